// Package value implements the dynamically typed value tree that module
// outputs are converted into, and that rule conditions address by dotted
// name path, array index, or map key.
package value

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindBytes
	KindStruct
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the eight kinds a module's output tree, or a
// rule's evaluated sub-expression, can take. Exactly one of the typed
// fields below is meaningful, selected by Kind.
type Value struct {
	kind   Kind
	i      int64
	f      float64
	b      bool
	s      string
	bytes  []byte
	fields map[string]Value
	order  []string // insertion order of Struct field names
	items  []Value
	mp     map[any]Value
}

func Int(v int64) Value    { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Bool(v bool) Value    { return Value{kind: KindBool, b: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func Bytes(v []byte) Value { return Value{kind: KindBytes, bytes: v} }
func Array(items []Value) Value { return Value{kind: KindArray, items: items} }

// Struct builds a Struct-kind value from an ordered set of named fields.
// Callers pass fields in declaration order; StructBuilder is the usual way
// to assemble one incrementally.
func Struct(order []string, fields map[string]Value) Value {
	return Value{kind: KindStruct, order: order, fields: fields}
}

func Map(m map[any]Value) Value { return Value{kind: KindMap, mp: m} }

// StructBuilder assembles a Struct value field by field, preserving
// insertion order the way a module descriptor's schema declares its fields.
type StructBuilder struct {
	order  []string
	fields map[string]Value
}

func NewStructBuilder() *StructBuilder {
	return &StructBuilder{fields: make(map[string]Value)}
}

func (b *StructBuilder) Set(name string, v Value) *StructBuilder {
	if _, exists := b.fields[name]; !exists {
		b.order = append(b.order, name)
	}
	b.fields[name] = v
	return b
}

func (b *StructBuilder) Build() Value {
	return Value{kind: KindStruct, order: b.order, fields: b.fields}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsBytes() ([]byte, bool)  { return v.bytes, v.kind == KindBytes }

// FieldNames returns a Struct value's field names in declaration order.
// Returns nil for any other kind.
func (v Value) FieldNames() []string {
	if v.kind != KindStruct {
		return nil
	}
	return v.order
}

// Field looks up a single named field on a Struct value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Index looks up the i-th element of an Array value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Len returns the number of elements in an Array, or -1 for any other kind.
func (v Value) Len() int {
	if v.kind != KindArray {
		return -1
	}
	return len(v.items)
}

// MapGet looks up a keyed entry in a Map value. Keys are compared with ==,
// so only comparable Go types (string, int64, ...) are valid map keys.
func (v Value) MapGet(key any) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	f, ok := v.mp[key]
	return f, ok
}

// Lookup resolves a dotted field path starting at v. A single polymorphic
// traversal: each path element is tried as a struct field name first (the
// common case), falling back to nothing for kinds that don't support named
// lookup. Array indices and map keys are addressed through Index/MapGet
// directly by the VM, since those need a typed key/index rather than a
// bare string.
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, name := range path {
		next, ok := cur.Field(name)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.bytes)
	case KindStruct:
		return fmt.Sprintf("struct{%d fields}", len(v.order))
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.items))
	case KindMap:
		return fmt.Sprintf("map{%d entries}", len(v.mp))
	default:
		return "<invalid>"
	}
}
