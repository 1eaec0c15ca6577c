package binreader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint16AtLittleEndian(t *testing.T) {
	data := []byte{0x01, 0x02}
	v, err := Uint16At(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0201), v)
}

func TestUint16AtOutOfBounds(t *testing.T) {
	_, err := Uint16At([]byte{0x01}, 0)
	require.ErrorIs(t, err, ErrOutsideBoundary)
}

func TestUint32AtLittleEndian(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	v, err := Uint32At(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x04030201), v)
}

func TestBytesAtBounds(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	b, err := BytesAt(data, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, b)

	_, err = BytesAt(data, 3, 3)
	require.ErrorIs(t, err, ErrOutsideBoundary)

	_, err = BytesAt(data, -1, 2)
	require.ErrorIs(t, err, ErrOutsideBoundary)
}

func TestDecodeUTF16LETrimsTrailingNuls(t *testing.T) {
	// "Hi" in UTF-16LE followed by a trailing NUL code unit.
	b := []byte{'H', 0x00, 'i', 0x00, 0x00, 0x00}
	require.Equal(t, "Hi", DecodeUTF16LE(b))
}

func TestDecodeUTF16LEEmpty(t *testing.T) {
	require.Equal(t, "", DecodeUTF16LE(nil))
	require.Equal(t, "", DecodeUTF16LE([]byte{0x00, 0x00}))
}
