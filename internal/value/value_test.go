package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructBuilderPreservesOrder(t *testing.T) {
	v := NewStructBuilder().
		Set("b", Int(2)).
		Set("a", Int(1)).
		Set("b", Int(20)). // overwrite, should not duplicate order entry
		Build()

	require.Equal(t, []string{"b", "a"}, v.FieldNames())
	f, ok := v.Field("b")
	require.True(t, ok)
	n, _ := f.AsInt()
	require.Equal(t, int64(20), n)
}

func TestLookupDottedPath(t *testing.T) {
	inner := NewStructBuilder().Set("count", Int(3)).Build()
	outer := NewStructBuilder().Set("child", inner).Build()

	got, ok := outer.Lookup("child", "count")
	require.True(t, ok)
	n, _ := got.AsInt()
	require.Equal(t, int64(3), n)

	_, ok = outer.Lookup("child", "missing")
	require.False(t, ok)
}

func TestArrayIndexAndLen(t *testing.T) {
	arr := Array([]Value{Int(1), Int(2), Int(3)})
	require.Equal(t, 3, arr.Len())

	v, ok := arr.Index(1)
	require.True(t, ok)
	n, _ := v.AsInt()
	require.Equal(t, int64(2), n)

	_, ok = arr.Index(5)
	require.False(t, ok)
}

func TestMapGet(t *testing.T) {
	m := Map(map[any]Value{"x": Bool(true)})
	v, ok := m.MapGet("x")
	require.True(t, ok)
	b, _ := v.AsBool()
	require.True(t, b)

	_, ok = m.MapGet("y")
	require.False(t, ok)
}

func TestKindMismatchAccessorsReturnFalse(t *testing.T) {
	v := Int(5)
	_, ok := v.AsBool()
	require.False(t, ok)
	_, ok = v.Field("anything")
	require.False(t, ok)
	require.Equal(t, -1, v.Len())
}
