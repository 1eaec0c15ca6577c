// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package binreader provides bounds-checked little-endian field readers
// shared by the binary-format parsers under modules/.
package binreader

import (
	"bytes"
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// ErrOutsideBoundary is reported when attempting to read past the end of
// the buffer being decoded.
var ErrOutsideBoundary = errors.New("reading data outside boundary")

// Uint16At reads a little-endian uint16 at offset.
func Uint16At(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, ErrOutsideBoundary
	}
	return uint16(data[offset]) | uint16(data[offset+1])<<8, nil
}

// Uint32At reads a little-endian uint32 at offset.
func Uint32At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, ErrOutsideBoundary
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24, nil
}

// BytesAt returns a size-byte slice starting at offset.
func BytesAt(data []byte, offset, size int) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > len(data) {
		return nil, ErrOutsideBoundary
	}
	return data[offset : offset+size], nil
}

// DecodeUTF16LE decodes a little-endian UTF-16 byte slice to UTF-8, trimming
// any trailing NUL code units first. Lossy: invalid sequences are replaced
// rather than rejected, matching how directory/entry names in compound-file
// containers are surfaced to rule conditions.
func DecodeUTF16LE(b []byte) string {
	trimmed := trimTrailingNulPairs(b)
	if len(trimmed) == 0 {
		return ""
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(trimmed)
	if err != nil {
		return string(bytes.ReplaceAll(trimmed, []byte{0}, nil))
	}
	return string(out)
}

func trimTrailingNulPairs(b []byte) []byte {
	end := len(b)
	for end >= 2 && b[end-2] == 0 && b[end-1] == 0 {
		end -= 2
	}
	return b[:end]
}
