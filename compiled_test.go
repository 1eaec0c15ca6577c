package rulescan

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSampleRules() *CompiledRules {
	b := NewBuilder()
	patID := b.InternPattern("p", "$a", []byte("AB"))
	b.AddRule(Rule{
		Identifier: "dummy",
		Condition:  trueProgram(),
	})
	b.AddRule(Rule{
		Identifier: "big",
		Condition:  filesizeGTProgram(10),
	})
	b.AddRule(Rule{
		Identifier: "p",
		Patterns:   []PatternSpec{{Name: "$a", Literal: []byte("AB")}},
		Condition:  patternProgram(patID),
	})
	return b.Build()
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	rules := buildSampleRules()

	blob, err := rules.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(blob)
	require.NoError(t, err)
	require.Equal(t, rules.Len(), restored.Len())

	corpus := [][]byte{nil, make([]byte, 5), make([]byte, 11), []byte("xxABxxAB")}
	for _, data := range corpus {
		s1, err := New(rules, nil)
		require.NoError(t, err)
		r1, err := s1.Scan(data)
		require.NoError(t, err)
		var order1 []string
		for it := r1.Iter(); ; {
			r, ok := it.Next()
			if !ok {
				break
			}
			order1 = append(order1, r.Identifier)
		}

		s2, err := New(restored, nil)
		require.NoError(t, err)
		r2, err := s2.Scan(data)
		require.NoError(t, err)
		var order2 []string
		for it := r2.Iter(); ; {
			r, ok := it.Next()
			if !ok {
				break
			}
			order2 = append(order2, r.Identifier)
		}

		require.Equal(t, order1, order2)
	}
}

func TestDeserializeRejectsCorruptBlob(t *testing.T) {
	rules := buildSampleRules()
	blob, err := rules.Serialize()
	require.NoError(t, err)

	_, err = Deserialize(blob[:len(blob)/2])
	require.Error(t, err)
}

func TestDeserializeRejectsMismatchedVersion(t *testing.T) {
	env := gobEnvelope{Version: rulescanFormatVersion + 1}
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(env))

	_, err := Deserialize(buf.Bytes())
	require.ErrorIs(t, err, ErrSerializationVersion)
}

func TestBuilderDeduplicatesModuleImports(t *testing.T) {
	b := NewBuilder()
	b.UseModule("olecf")
	b.UseModule("olecf")
	rules := b.Build()
	require.Equal(t, []string{"olecf"}, rules.Modules())
}
