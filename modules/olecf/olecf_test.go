package olecf

import (
	"encoding/binary"
	"testing"

	"github.com/saferwall/rulescan/modules"
	"github.com/stretchr/testify/require"
)

// buildMinimalHeader returns a 512-byte header sector with a valid
// signature, BOM, and a single FAT sector at index 0 (immediately after
// the header), leaving every other header field its zero value.
func buildMinimalHeader() []byte {
	h := make([]byte, SectorSize)
	copy(h[:8], signature[:])
	binary.LittleEndian.PutUint16(h[28:], 0xFFFE)
	// DIFAT slot 0 points at FAT sector 0.
	binary.LittleEndian.PutUint32(h[76:], 0)
	for i := 1; i < numDIFAT; i++ {
		binary.LittleEndian.PutUint32(h[76+i*4:], 0xFFFFFFFF)
	}
	return h
}

func TestParseRejectsBadSignature(t *testing.T) {
	data := make([]byte, SectorSize)
	_, err := Parse(data)
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestParseRejectsBadBOM(t *testing.T) {
	data := buildMinimalHeader()
	binary.LittleEndian.PutUint16(data[28:], 0x1234)
	fat := make([]byte, SectorSize)
	_, err := Parse(append(data, fat...))
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestFollowChainCycle(t *testing.T) {
	header := buildMinimalHeader()
	fatSector := make([]byte, SectorSize)
	// FAT entry for sector 2 points back to sector 2: a self cycle.
	binary.LittleEndian.PutUint32(fatSector[2*4:], 2)
	data := append(header, fatSector...)

	f, err := Parse(data)
	require.NoError(t, err)

	chain := f.followChain(2)
	require.Equal(t, []uint32{2}, chain)
}

func TestFollowChainSingleStepEOC(t *testing.T) {
	header := buildMinimalHeader()
	fatSector := make([]byte, SectorSize)
	binary.LittleEndian.PutUint32(fatSector[0:], EndOfChain)
	data := append(header, fatSector...)

	f, err := Parse(data)
	require.NoError(t, err)

	chain := f.followChain(0)
	require.Equal(t, []uint32{0}, chain)
}

func TestParseDirEntryRejectsBadNameLen(t *testing.T) {
	for _, nameLen := range []uint16{0, 1, 65} {
		raw := make([]byte, DirEntrySize)
		binary.LittleEndian.PutUint16(raw[64:], nameLen)
		raw[66] = typeStream
		_, ok, err := parseDirEntry(raw, 0)
		require.NoError(t, err)
		require.False(t, ok, "nameLen %d should be rejected", nameLen)
	}
}

func TestParseDirEntryAcceptsBoundaryNameLen(t *testing.T) {
	for _, nameLen := range []uint16{2, 64} {
		raw := make([]byte, DirEntrySize)
		binary.LittleEndian.PutUint16(raw[64:], nameLen)
		raw[66] = typeStream
		_, ok, err := parseDirEntry(raw, 0)
		require.NoError(t, err)
		require.True(t, ok, "nameLen %d should be accepted", nameLen)
	}
}

func TestMainOnGarbageIsNotOLE(t *testing.T) {
	v, err := Main(&modules.Context{Data: []byte("not a compound file")})
	require.NoError(t, err)
	isOLE, ok := v.Field("is_olecf")
	require.True(t, ok)
	b, _ := isOLE.AsBool()
	require.False(t, b)
}
