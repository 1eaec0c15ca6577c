package olecf

import (
	"github.com/saferwall/rulescan/internal/value"
	"github.com/saferwall/rulescan/modules"
)

// ModuleName is the identifier rule conditions use to reach this module's
// fields, e.g. "olecf.stream_count".
const ModuleName = "olecf"

func init() {
	modules.Register(modules.Descriptor{
		Name:                  ModuleName,
		RootStructDescriptor:  Descriptor,
		Main:                  Main,
	})
}

// Main decodes ctx.Data as a compound file container and returns its value
// tree. A malformed input is not a scan failure: Main returns a struct
// with is_olecf false and every other field at its zero value, matching
// spec's "module either populates partial data or reports the file as
// unparseable."
func Main(ctx *modules.Context) (value.Value, error) {
	b := value.NewStructBuilder()
	f, err := Parse(ctx.Data)
	if err != nil {
		b.Set("is_olecf", value.Bool(false))
		b.Set("stream_count", value.Int(0))
		b.Set("mini_stream_size", value.Int(0))
		b.Set("streams", value.Array(nil))
		return b.Build(), nil
	}

	streams := make([]value.Value, 0, len(f.entries))
	for _, e := range f.entries {
		name := e.name
		if ctx.Pool != nil {
			ctx.Pool.Intern([]byte(name))
		}
		sb := value.NewStructBuilder()
		sb.Set("name", value.String(name))
		sb.Set("size", value.Int(int64(e.size)))
		sb.Set("is_storage", value.Bool(e.isStorage()))
		streams = append(streams, sb.Build())
	}

	b.Set("is_olecf", value.Bool(true))
	b.Set("stream_count", value.Int(int64(len(streams))))
	b.Set("mini_stream_size", value.Int(int64(f.header.miniStreamCutoff)))
	b.Set("streams", value.Array(streams))
	return b.Build(), nil
}

// Descriptor describes Main's output schema, consumed by debug-mode schema
// assertions in the scan engine (spec §4.2 "the output schema of Main
// exactly matches the declared descriptor").
var Descriptor = []string{"is_olecf", "stream_count", "mini_stream_size", "streams"}
