package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunConstBool(t *testing.T) {
	s := NewStore(Imports{})
	matched, err := s.Run(Program{{Op: OpConstBool, Bool: true}})
	require.NoError(t, err)
	require.True(t, matched)
}

func TestRunFilesizeComparison(t *testing.T) {
	s := NewStore(Imports{})
	s.Globals.Filesize = 11
	prog := Program{
		{Op: OpLoadFilesize},
		{Op: OpConstInt, Int: 10},
		{Op: OpCmpGT},
	}
	matched, err := s.Run(prog)
	require.NoError(t, err)
	require.True(t, matched)
}

func TestRunAndOrNot(t *testing.T) {
	s := NewStore(Imports{})
	prog := Program{
		{Op: OpConstBool, Bool: true},
		{Op: OpConstBool, Bool: false},
		{Op: OpAnd},
		{Op: OpNot},
	}
	matched, err := s.Run(prog)
	require.NoError(t, err)
	require.True(t, matched) // not (true and false) == true
}

func TestRunMatchPatternImport(t *testing.T) {
	s := NewStore(Imports{
		MatchPattern: func(id uint32) bool { return id == 7 },
	})
	matched, err := s.Run(Program{{Op: OpMatchPattern, PatternID: 7}})
	require.NoError(t, err)
	require.True(t, matched)

	matched, err = s.Run(Program{{Op: OpMatchPattern, PatternID: 8}})
	require.NoError(t, err)
	require.False(t, matched)
}

func TestRunLookupFieldMissingIsFalseNotTrap(t *testing.T) {
	s := NewStore(Imports{
		LookupField: func(path []string) (Cell, bool) { return Cell{}, false },
	})
	prog := Program{{Op: OpLoadField, Path: []string{"mod", "missing"}}}
	matched, err := s.Run(prog)
	require.NoError(t, err)
	require.False(t, matched)
}

func TestRunStackUnderflowTraps(t *testing.T) {
	s := NewStore(Imports{})
	_, err := s.Run(Program{{Op: OpAnd}})
	require.Error(t, err)
	var trap *Trap
	require.ErrorAs(t, err, &trap)
	require.ErrorIs(t, trap, ErrStackUnderflow)
}

func TestRunUnknownOpcodeTraps(t *testing.T) {
	s := NewStore(Imports{})
	_, err := s.Run(Program{{Op: Op(999)}})
	require.Error(t, err)
}

func TestJumps(t *testing.T) {
	s := NewStore(Imports{})
	// if false jump to index 3 (push false), else (index 2) push true.
	prog := Program{
		{Op: OpConstBool, Bool: true},
		{Op: OpJumpIfFalse, Target: 3},
		{Op: OpJump, Target: 4},
		{Op: OpConstBool, Bool: false},
	}
	matched, err := s.Run(append(prog, Instr{Op: OpConstBool, Bool: true}))
	require.NoError(t, err)
	require.True(t, matched)
}

func TestMemoryBoundsChecked(t *testing.T) {
	m := NewMemory(1)
	require.Equal(t, 1, m.Pages())
	err := m.Write(PageSize-1, []byte{1, 2})
	require.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, m.Write(0, []byte{1, 2, 3}))
	got, err := m.Read(0, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	prev := m.Grow(1)
	require.Equal(t, 1, prev)
	require.Equal(t, 2, m.Pages())
}
