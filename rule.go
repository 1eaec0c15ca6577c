// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package rulescan compiles a YARA-style rule language into a compact
// bytecode and executes it, via a sandboxed virtual machine, against
// arbitrary byte buffers. A Scanner repeatedly evaluates a CompiledRules
// artifact's rules against input data and reports which ones matched.
package rulescan

import "github.com/saferwall/rulescan/internal/vm"

// RuleID is the stable, dense 32-bit index of a rule within a
// CompiledRules artifact: RuleID(i) identifies rules[i].
type RuleID uint32

// MetaKind tags the type of a metadata value.
type MetaKind int

const (
	MetaInt MetaKind = iota
	MetaFloat
	MetaBool
	MetaString
	MetaBytes
)

// MetaValue is one metadata entry's typed value. Exactly one field is
// meaningful, selected by Kind.
type MetaValue struct {
	Kind  MetaKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Bytes []byte
}

// PatternSpec is one `$name = "literal"` pattern declaration.
type PatternSpec struct {
	Name    string
	Literal []byte

	// ID is the pattern's stable ID within the CompiledRules' shared
	// automaton (internal/patternscan.Automaton), the key into a scan's
	// recorded match offsets (see ScanResults.PatternMatches).
	ID uint32
}

// Rule is one compiled rule: a stable ID, identifier, namespace, ordered
// metadata, ordered patterns, and the bytecode program for its condition.
type Rule struct {
	ID         RuleID
	Identifier string
	Namespace  string

	// MetaOrder preserves declaration order; MetaOrder's entries are keys
	// into Meta. Per spec, metadata keys are unique per rule.
	MetaOrder []string
	Meta      map[string]MetaValue

	Patterns []PatternSpec

	// Condition is the rule's compiled condition program, run once per
	// scan by the VM.
	Condition vm.Program
}

// MetadataNames returns rule metadata keys in declaration order.
func (r *Rule) MetadataNames() []string { return r.MetaOrder }

// Metadata looks up one metadata entry by name.
func (r *Rule) Metadata(name string) (MetaValue, bool) {
	v, ok := r.Meta[name]
	return v, ok
}
