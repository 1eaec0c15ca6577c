// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package capi is a pure-Go approximation of the foreign-function
// surface spec §6 describes: opaque integer handles standing in for the
// C-ABI's pointer handles, and the exact error-code table a cgo shell
// generated from this package would forward across the boundary.
//
// A real cgo shell (//export-annotated wrappers calling into this
// package) is a separate, out-of-scope build artifact — see DESIGN.md.
// This package stays pure Go so the module builds without CGO_ENABLED.
package capi

import (
	"sync"
	"sync/atomic"

	"github.com/saferwall/rulescan"
	"github.com/saferwall/rulescan/compiler"
	"github.com/saferwall/rulescan/internal/patternscan"
)

// ErrorCode mirrors spec §6's FFI result table.
type ErrorCode int

const (
	Success ErrorCode = iota
	SyntaxError
	VariableError
	ScanErrorCode
	ScanTimeout
	InvalidArgument
	InvalidUTF8
	SerializationError
	NoMetadata
)

// Handle is an opaque reference into this package's handle table,
// standing in for a C pointer handle.
type Handle uint64

var (
	nextHandle uint64
	mu         sync.RWMutex
	rulesTbl   = map[Handle]*rulescan.CompiledRules{}
	scannerTbl = map[Handle]*rulescan.Scanner{}
	resultsTbl = map[Handle]*rulescan.ScanResults{}
	ruleTbl    = map[Handle]*rulescan.Rule{}
	matchesTbl = map[Handle][]patternscan.Match{}
)

func newHandle() Handle { return Handle(atomic.AddUint64(&nextHandle, 1)) }

// CompileRules compiles source and returns a handle to the resulting
// CompiledRules, or SyntaxError with a human-readable message.
func CompileRules(source []byte) (Handle, ErrorCode, string) {
	rules, err := compiler.Compile(source)
	if err != nil {
		return 0, SyntaxError, err.Error()
	}
	h := newHandle()
	mu.Lock()
	rulesTbl[h] = rules
	mu.Unlock()
	return h, Success, ""
}

// RulesDeserialize wraps rulescan.Deserialize behind a handle.
func RulesDeserialize(blob []byte) (Handle, ErrorCode, string) {
	rules, err := rulescan.Deserialize(blob)
	if err != nil {
		return 0, SerializationError, err.Error()
	}
	h := newHandle()
	mu.Lock()
	rulesTbl[h] = rules
	mu.Unlock()
	return h, Success, ""
}

// RulesSerialize returns the serialized bytes for a compiled-rules handle.
func RulesSerialize(h Handle) ([]byte, ErrorCode, string) {
	mu.RLock()
	rules, ok := rulesTbl[h]
	mu.RUnlock()
	if !ok {
		return nil, InvalidArgument, "invalid rules handle"
	}
	blob, err := rules.Serialize()
	if err != nil {
		return nil, SerializationError, err.Error()
	}
	return blob, Success, ""
}

// RulesDestroy releases a compiled-rules handle.
func RulesDestroy(h Handle) {
	mu.Lock()
	delete(rulesTbl, h)
	mu.Unlock()
}

// ScannerNew constructs a Scanner over a compiled-rules handle.
func ScannerNew(rulesHandle Handle) (Handle, ErrorCode, string) {
	mu.RLock()
	rules, ok := rulesTbl[rulesHandle]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid rules handle"
	}
	s, err := rulescan.New(rules, nil)
	if err != nil {
		return 0, ScanErrorCode, err.Error()
	}
	h := newHandle()
	mu.Lock()
	scannerTbl[h] = s
	mu.Unlock()
	return h, Success, ""
}

// ScannerScan scans data through a scanner handle, returning a handle to
// the resulting matches.
func ScannerScan(scannerHandle Handle, data []byte) (Handle, ErrorCode, string) {
	mu.RLock()
	s, ok := scannerTbl[scannerHandle]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid scanner handle"
	}
	res, err := s.Scan(data)
	if err != nil {
		switch err {
		case rulescan.ErrScanTimeout:
			return 0, ScanTimeout, err.Error()
		default:
			return 0, ScanErrorCode, err.Error()
		}
	}
	h := newHandle()
	mu.Lock()
	resultsTbl[h] = res
	mu.Unlock()
	return h, Success, ""
}

// ResultsMatchingCount returns the number of matching rules for a results
// handle.
func ResultsMatchingCount(resultsHandle Handle) (int, ErrorCode, string) {
	mu.RLock()
	res, ok := resultsTbl[resultsHandle]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid results handle"
	}
	return res.MatchingRules(), Success, ""
}

// ResultsRuleAt returns a handle to the idx-th matched rule from a results
// handle, in recorded match order (ScanResults.Iter's order), the "single
// rule" handle spec §6 names.
func ResultsRuleAt(resultsHandle Handle, idx int) (Handle, ErrorCode, string) {
	mu.RLock()
	res, ok := resultsTbl[resultsHandle]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid results handle"
	}
	if idx < 0 {
		return 0, InvalidArgument, "rule index out of range"
	}
	it := res.Iter()
	var rule *rulescan.Rule
	for i := 0; ; i++ {
		r, ok := it.Next()
		if !ok {
			return 0, InvalidArgument, "rule index out of range"
		}
		if i == idx {
			rule = r
			break
		}
	}
	h := newHandle()
	mu.Lock()
	ruleTbl[h] = rule
	mu.Unlock()
	return h, Success, ""
}

// RuleIdentifier returns a rule handle's identifier.
func RuleIdentifier(h Handle) (string, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return "", InvalidArgument, "invalid rule handle"
	}
	return r.Identifier, Success, ""
}

// RuleNamespace returns a rule handle's namespace.
func RuleNamespace(h Handle) (string, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return "", InvalidArgument, "invalid rule handle"
	}
	return r.Namespace, Success, ""
}

// RuleMetadataCount returns the number of metadata entries on a rule
// handle, or NoMetadata if it carries none (spec §6's NO_METADATA code,
// "rule carries no metadata").
func RuleMetadataCount(h Handle) (int, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid rule handle"
	}
	if len(r.MetaOrder) == 0 {
		return 0, NoMetadata, "rule carries no metadata"
	}
	return len(r.MetaOrder), Success, ""
}

// RuleMetadataAt returns the name and typed value of the idx-th metadata
// entry on a rule handle, in declaration order, or NoMetadata if the rule
// carries none.
func RuleMetadataAt(h Handle, idx int) (string, rulescan.MetaValue, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return "", rulescan.MetaValue{}, InvalidArgument, "invalid rule handle"
	}
	if len(r.MetaOrder) == 0 {
		return "", rulescan.MetaValue{}, NoMetadata, "rule carries no metadata"
	}
	if idx < 0 || idx >= len(r.MetaOrder) {
		return "", rulescan.MetaValue{}, InvalidArgument, "metadata index out of range"
	}
	name := r.MetaOrder[idx]
	v, _ := r.Metadata(name)
	return name, v, Success, ""
}

// RuleMetadata looks up one named metadata entry on a rule handle, or
// NoMetadata if the rule carries none.
func RuleMetadata(h Handle, name string) (rulescan.MetaValue, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return rulescan.MetaValue{}, InvalidArgument, "invalid rule handle"
	}
	if len(r.MetaOrder) == 0 {
		return rulescan.MetaValue{}, NoMetadata, "rule carries no metadata"
	}
	v, ok := r.Metadata(name)
	if !ok {
		return rulescan.MetaValue{}, InvalidArgument, "no such metadata key"
	}
	return v, Success, ""
}

// RulePatternCount returns the number of pattern declarations on a rule
// handle, the "patterns" handle spec §6 names.
func RulePatternCount(h Handle) (int, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid rule handle"
	}
	return len(r.Patterns), Success, ""
}

// RulePatternNameAt returns the $name of the idx-th pattern declared on a
// rule handle, in declaration order.
func RulePatternNameAt(h Handle, idx int) (string, ErrorCode, string) {
	mu.RLock()
	r, ok := ruleTbl[h]
	mu.RUnlock()
	if !ok {
		return "", InvalidArgument, "invalid rule handle"
	}
	if idx < 0 || idx >= len(r.Patterns) {
		return "", InvalidArgument, "pattern index out of range"
	}
	return r.Patterns[idx].Name, Success, ""
}

// ResultsPatternMatches returns a handle to ruleHandle's patternName match
// offsets recorded during the scan that produced resultsHandle, the
// "matches" handle spec §6 names alongside "patterns." InvalidArgument is
// returned if patternName was not declared on the rule.
func ResultsPatternMatches(resultsHandle, ruleHandle Handle, patternName string) (Handle, ErrorCode, string) {
	mu.RLock()
	res, resOk := resultsTbl[resultsHandle]
	r, ruleOk := ruleTbl[ruleHandle]
	mu.RUnlock()
	if !resOk {
		return 0, InvalidArgument, "invalid results handle"
	}
	if !ruleOk {
		return 0, InvalidArgument, "invalid rule handle"
	}
	matches, found := res.PatternMatches(r.ID, patternName)
	if !found {
		return 0, InvalidArgument, "no such pattern on rule"
	}
	h := newHandle()
	mu.Lock()
	matchesTbl[h] = matches
	mu.Unlock()
	return h, Success, ""
}

// MatchesCount returns the number of offset+length matches in a matches
// handle.
func MatchesCount(h Handle) (int, ErrorCode, string) {
	mu.RLock()
	m, ok := matchesTbl[h]
	mu.RUnlock()
	if !ok {
		return 0, InvalidArgument, "invalid matches handle"
	}
	return len(m), Success, ""
}

// MatchAt returns the offset and length of the idx-th match in a matches
// handle.
func MatchAt(h Handle, idx int) (offset int, length int, code ErrorCode, msg string) {
	mu.RLock()
	m, ok := matchesTbl[h]
	mu.RUnlock()
	if !ok {
		return 0, 0, InvalidArgument, "invalid matches handle"
	}
	if idx < 0 || idx >= len(m) {
		return 0, 0, InvalidArgument, "match index out of range"
	}
	return m[idx].Offset, m[idx].Length, Success, ""
}

// MatchesDestroy releases a matches handle.
func MatchesDestroy(h Handle) {
	mu.Lock()
	delete(matchesTbl, h)
	mu.Unlock()
}

// RuleDestroy releases a rule handle.
func RuleDestroy(h Handle) {
	mu.Lock()
	delete(ruleTbl, h)
	mu.Unlock()
}

// ResultsDestroy releases a results handle, permitting the owning
// scanner to start another scan.
func ResultsDestroy(h Handle) {
	mu.Lock()
	res, ok := resultsTbl[h]
	delete(resultsTbl, h)
	mu.Unlock()
	if ok {
		res.Release()
	}
}

// ScannerDestroy releases a scanner handle.
func ScannerDestroy(h Handle) {
	mu.Lock()
	delete(scannerTbl, h)
	mu.Unlock()
}
