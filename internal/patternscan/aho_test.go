package patternscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanFindsTwoOccurrences(t *testing.T) {
	a := Build([][]byte{[]byte("AB")})
	matches := a.Scan([]byte("xxABxxAB"))[0]

	require.Len(t, matches, 2)
	require.Equal(t, Match{Offset: 2, Length: 2}, matches[0])
	require.Equal(t, Match{Offset: 6, Length: 2}, matches[1])
}

func TestScanMultiplePatternsOverlap(t *testing.T) {
	a := Build([][]byte{[]byte("he"), []byte("she"), []byte("his"), []byte("hers")})
	matches := a.Scan([]byte("ushers"))

	require.Contains(t, matches, uint32(0)) // "he" inside "ushers"
	require.Contains(t, matches, uint32(1)) // "she" inside "ushers"
	require.Contains(t, matches, uint32(3)) // "hers" inside "ushers"
	require.NotContains(t, matches, uint32(2)) // "his" never occurs
}

func TestHasMatch(t *testing.T) {
	results := map[uint32][]Match{5: {{Offset: 0, Length: 1}}}
	require.True(t, HasMatch(results, 5))
	require.False(t, HasMatch(results, 6))
}

func TestBuildSkipsEmptyPatterns(t *testing.T) {
	a := Build([][]byte{nil, []byte("x")})
	matches := a.Scan([]byte("x"))
	require.NotContains(t, matches, uint32(0))
	require.Contains(t, matches, uint32(1))
}

func TestScanNilAutomaton(t *testing.T) {
	var a *Automaton
	require.Nil(t, a.Scan([]byte("anything")))
}
