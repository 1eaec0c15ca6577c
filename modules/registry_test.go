package modules

import (
	"errors"
	"testing"

	"github.com/saferwall/rulescan/internal/value"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	reg := Registry{}
	reg["t"] = Descriptor{
		Name: "t",
		Main: func(ctx *Context) (value.Value, error) {
			return value.NewStructBuilder().Set("ok", value.Bool(true)).Build(), nil
		},
	}
	d, ok := reg.Lookup("t")
	require.True(t, ok)
	v, err := reg.Run("t", &Context{})
	require.NoError(t, err)
	ok2, _ := v.Field("ok")
	b, _ := ok2.AsBool()
	require.True(t, b)
	require.Equal(t, "t", d.Name)
}

func TestRunUnknownModule(t *testing.T) {
	reg := Registry{}
	_, err := reg.Run("missing", &Context{})
	require.Error(t, err)
}

func TestRunMainNotImplemented(t *testing.T) {
	reg := Registry{"noop": Descriptor{Name: "noop"}}
	_, err := reg.Run("noop", &Context{})
	require.True(t, errors.Is(err, ErrMainNotImplemented))
}

func TestAssertSchema(t *testing.T) {
	d := Descriptor{Name: "t", RootStructDescriptor: []string{"a", "b"}}
	ok := value.NewStructBuilder().Set("a", value.Int(1)).Set("b", value.Int(2)).Build()
	require.NoError(t, d.AssertSchema(ok))

	missing := value.NewStructBuilder().Set("a", value.Int(1)).Build()
	require.Error(t, d.AssertSchema(missing))
}
