// Package modules holds the static, process-wide table of built-in modules
// a compiled rule set can import: each entry declares the expected shape of
// its output and a Main function that derives a value tree from the data
// being scanned.
package modules

import (
	"errors"

	"github.com/saferwall/rulescan/internal/stringpool"
	"github.com/saferwall/rulescan/internal/value"
)

// ErrMainNotImplemented is returned when a descriptor declares no Main
// function. The registry shipped with this package never hits this path;
// it exists for the "externally supplied module output" case spec's design
// notes call an open question this repository declines to resolve any
// other way (see DESIGN.md).
var ErrMainNotImplemented = errors.New("modules: Main not implemented")

// Context is the read-only view a module's Main function receives: the
// buffer currently being scanned, plus the scan's string pool for modules
// that want to intern repeated byte strings (directory names, section
// labels) rather than allocate a fresh Go string per occurrence. Modules
// must treat Data as immutable.
type Context struct {
	Data []byte
	Pool *stringpool.Pool
}

// Descriptor is one registered module.
type Descriptor struct {
	// Name is the identifier rule conditions use to reach this module's
	// fields, e.g. "olecf.stream_count".
	Name string
	// RootStructDescriptor names the top-level fields Main's returned
	// Struct value must expose, in no particular order. Optional; a nil
	// slice skips the debug-mode schema assertion described in spec §4.2.
	RootStructDescriptor []string
	// Main derives this scan's value tree from ctx. Nil means the module
	// has no built-in parser; calling it is a programming error.
	Main func(ctx *Context) (value.Value, error)
}

// AssertSchema reports whether v's top-level Struct field names are
// exactly those named by RootStructDescriptor. Called from the scan
// engine in debug builds only (spec §4.2: "mismatches are programming
// errors (fail fast in debug builds)").
func (d Descriptor) AssertSchema(v value.Value) error {
	if len(d.RootStructDescriptor) == 0 {
		return nil
	}
	got := make(map[string]bool)
	for _, n := range v.FieldNames() {
		got[n] = true
	}
	declared := make(map[string]bool, len(d.RootStructDescriptor))
	for _, want := range d.RootStructDescriptor {
		declared[want] = true
		if !got[want] {
			return errors.New("modules: " + d.Name + " output missing field " + want)
		}
	}
	for _, n := range v.FieldNames() {
		if !declared[n] {
			return errors.New("modules: " + d.Name + " output has undeclared field " + n)
		}
	}
	return nil
}

// Registry is the static module table, keyed by name.
type Registry map[string]Descriptor

// Default is the process-wide registry populated by every built-in
// module's init function.
var Default = Registry{}

// Register adds (or replaces) a descriptor. Called from each module
// package's init; not meant for runtime use by scan callers.
func Register(d Descriptor) {
	Default[d.Name] = d
}

// Lookup returns the descriptor for name, if registered.
func (r Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

// Run invokes name's Main, or returns ErrMainNotImplemented if the
// descriptor declares none.
func (r Registry) Run(name string, ctx *Context) (value.Value, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return value.Value{}, errors.New("modules: unknown module " + name)
	}
	if d.Main == nil {
		return value.Value{}, ErrMainNotImplemented
	}
	return d.Main(ctx)
}
