// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package olecf parses the Compound File Binary Format (the container used
// by legacy Microsoft Office documents, among others) and registers itself
// as the "olecf" scan module: the representative binary-format parser the
// scan VM calls into through the module registry.
package olecf

import (
	"encoding/binary"
	"errors"

	"github.com/saferwall/rulescan/internal/binreader"
	"github.com/saferwall/rulescan/internal/value"
	"github.com/saferwall/rulescan/modules"
)

const (
	// SectorSize is the size, in bytes, of a regular FAT sector.
	SectorSize = 1 << 9
	// MiniSectorSize is the size, in bytes, of a mini-FAT sector.
	MiniSectorSize = 1 << 6
	// DirEntrySize is the size, in bytes, of one directory entry.
	DirEntrySize = 128
	// MiniStreamCutoff is the size below which a stream lives in the
	// mini-stream rather than being read through the main FAT directly.
	MiniStreamCutoff = 4096

	headerSize = SectorSize
	numDIFAT   = 109

	// EndOfChain terminates a FAT or mini-FAT chain.
	EndOfChain uint32 = 0xFFFFFFFE
	// ReservedThreshold is the first sector value treated as a sentinel
	// rather than a regular sector (FREESECT, FATSECT, DIFSECT, ENDOFCHAIN).
	ReservedThreshold uint32 = 0xFFFFFFFA

	typeUnknown      = 0
	typeStorage      = 1
	typeStream       = 2
	typeRootStorage  = 5
)

var signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Errors returned while decoding a compound file. None of these abort a
// scan; the "olecf" module's Main surfaces them as a partial, mostly-empty
// value tree with is_olecf false.
var (
	ErrInvalidHeader    = errors.New("olecf: invalid header")
	ErrIncompleteStream = errors.New("olecf: incomplete stream read")
)

// direntry is one parsed 128-byte directory entry.
type direntry struct {
	name         string
	objType      byte
	startSector  uint32
	size         uint64
}

func (d direntry) isStorage() bool { return d.objType == typeStorage }

// File is the decoded form of a compound file container.
type File struct {
	header       header
	fat          []uint32 // sector numbers, in DIFAT order
	rootEntry    *direntry
	entries      []direntry     // every non-root entry, in parse order
	byName       map[string]int // name->index into entries, last write wins
	miniStream   []byte   // root storage's chain, concatenated
	miniFATWords []uint32 // mini-FAT entries, in chain order
	data         []byte
}

type header struct {
	numFATSectors      uint32
	firstDirSector     uint32
	firstMiniFATSector uint32
	numMiniFATSectors  uint32
	miniStreamCutoff   uint32
	difat              [numDIFAT]uint32
}

// Parse decodes data as a compound file container.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrInvalidHeader
	}
	var sig [8]byte
	copy(sig[:], data[:8])
	if sig != signature {
		return nil, ErrInvalidHeader
	}
	bom, err := binreader.Uint16At(data, 28)
	if err != nil || bom != 0xFFFE {
		return nil, ErrInvalidHeader
	}

	h := header{miniStreamCutoff: MiniStreamCutoff}
	if v, err := binreader.Uint32At(data, 44); err == nil {
		h.numFATSectors = v
	}
	if v, err := binreader.Uint32At(data, 48); err == nil {
		h.firstDirSector = v
	}
	if v, err := binreader.Uint32At(data, 60); err == nil {
		h.firstMiniFATSector = v
	}
	if v, err := binreader.Uint32At(data, 64); err == nil {
		h.numMiniFATSectors = v
	}
	if v, err := binreader.Uint32At(data, 56); err == nil && v != 0 {
		h.miniStreamCutoff = v
	}
	for i := 0; i < numDIFAT; i++ {
		v, err := binreader.Uint32At(data, 76+i*4)
		if err != nil {
			return nil, ErrInvalidHeader
		}
		h.difat[i] = v
	}

	f := &File{header: h, data: data, byName: make(map[string]int)}

	for _, v := range h.difat {
		if v < ReservedThreshold {
			f.fat = append(f.fat, v)
		}
	}
	if len(f.fat) == 0 {
		return nil, ErrInvalidHeader
	}

	if err := f.parseDirectory(); err != nil {
		return nil, err
	}
	if f.rootEntry != nil {
		chain := f.followChain(f.rootEntry.startSector)
		f.miniStream = f.readChain(chain, SectorSize, f.rootEntry.size)
	}
	if h.firstMiniFATSector < ReservedThreshold {
		chain := f.followChain(h.firstMiniFATSector)
		buf := f.readRawChain(chain, SectorSize)
		f.miniFATWords = make([]uint32, len(buf)/4)
		for i := range f.miniFATWords {
			f.miniFATWords[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
	}
	return f, nil
}

func sectorOffset(s uint32) int { return headerSize + int(s)*SectorSize }

// fatLookup returns the FAT entry for sector s: the word at intra-sector
// offset (s mod 128) within the ⌊s/128⌋-th sector named by the DIFAT list,
// per spec's "FAT lookup" rule.
func (f *File) fatLookup(s uint32) (uint32, bool) {
	idx := int(s / 128)
	if idx < 0 || idx >= len(f.fat) {
		return 0, false
	}
	off := sectorOffset(f.fat[idx]) + int(s%128)*4
	v, err := binreader.Uint32At(f.data, off)
	if err != nil {
		return 0, false
	}
	return v, true
}

// miniFATLookup is fatLookup's analogue over the mini-FAT word array
// already assembled in File.miniFATWords.
func (f *File) miniFATLookup(ms uint32) (uint32, bool) {
	if int(ms) >= len(f.miniFATWords) {
		return 0, false
	}
	return f.miniFATWords[ms], true
}

// followChain walks the main FAT starting at start, terminating (in
// order) when: the current sector exceeds the reserved threshold, it has
// already been visited (cycle guard), its FAT entry is EndOfChain, or the
// FAT lookup itself fails. The returned slice never contains duplicates
// and always terminates even over a malformed, cyclic chain.
func (f *File) followChain(start uint32) []uint32 {
	var chain []uint32
	seen := make(map[uint32]bool)
	s := start
	for {
		if s > ReservedThreshold {
			break
		}
		if seen[s] {
			break
		}
		chain = append(chain, s)
		seen[s] = true
		next, ok := f.fatLookup(s)
		if !ok || next == EndOfChain {
			break
		}
		s = next
	}
	return chain
}

// followMiniChain is followChain's mini-FAT analogue.
func (f *File) followMiniChain(start uint32) []uint32 {
	var chain []uint32
	seen := make(map[uint32]bool)
	s := start
	for {
		if s > ReservedThreshold {
			break
		}
		if seen[s] {
			break
		}
		chain = append(chain, s)
		seen[s] = true
		next, ok := f.miniFATLookup(s)
		if !ok || next == EndOfChain {
			break
		}
		s = next
	}
	return chain
}

// readRawChain concatenates every sector in chain, each sectorSize bytes,
// skipping sectors that fall outside the buffer rather than failing.
func (f *File) readRawChain(chain []uint32, sectorSize int) []byte {
	out := make([]byte, 0, len(chain)*sectorSize)
	for _, s := range chain {
		off := headerSize + int(s)*sectorSize
		b, err := binreader.BytesAt(f.data, off, sectorSize)
		if err != nil {
			break
		}
		out = append(out, b...)
	}
	return out
}

// readChain reads chain and truncates to wantSize, reporting (via the
// returned slice's length) a short read: callers compare len(result) to
// wantSize to detect IncompleteStream, matching spec's "final length !=
// size" rule.
func (f *File) readChain(chain []uint32, sectorSize int, wantSize uint64) []byte {
	raw := f.readRawChain(chain, sectorSize)
	if uint64(len(raw)) > wantSize {
		return raw[:wantSize]
	}
	return raw
}

func (f *File) parseDirectory() error {
	chain := f.followChain(f.header.firstDirSector)
	for _, s := range chain {
		base := sectorOffset(s)
		for i := 0; i*DirEntrySize < SectorSize; i++ {
			off := base + i*DirEntrySize
			entry, ok, err := parseDirEntry(f.data, off)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if entry.objType == typeRootStorage {
				e := entry
				f.rootEntry = &e
				continue
			}
			f.byName[entry.name] = len(f.entries)
			f.entries = append(f.entries, entry)
		}
	}
	return nil
}

func parseDirEntry(data []byte, off int) (direntry, bool, error) {
	raw, err := binreader.BytesAt(data, off, DirEntrySize)
	if err != nil {
		return direntry{}, false, nil
	}
	nameLen, err := binreader.Uint16At(raw, 64)
	if err != nil {
		return direntry{}, false, nil
	}
	if nameLen < 2 || nameLen > 64 {
		return direntry{}, false, nil
	}
	objType := raw[66]
	if objType != typeStorage && objType != typeStream && objType != typeRootStorage {
		return direntry{}, false, nil
	}
	name := binreader.DecodeUTF16LE(raw[:nameLen])
	startSector, err := binreader.Uint32At(raw, 116)
	if err != nil {
		return direntry{}, false, nil
	}
	sizeLo, err := binreader.Uint32At(raw, 120)
	if err != nil {
		return direntry{}, false, nil
	}
	sizeHi, err := binreader.Uint32At(raw, 124)
	if err != nil {
		return direntry{}, false, nil
	}
	size := uint64(sizeHi)<<32 | uint64(sizeLo)
	return direntry{name: name, objType: objType, startSector: startSector, size: size}, true, nil
}

// ReadStream returns the decoded bytes of the named stream and whether the
// read was complete (matched the entry's declared size).
func (f *File) ReadStream(name string) ([]byte, bool, error) {
	idx, ok := f.byName[name]
	if !ok {
		return nil, false, errors.New("olecf: no such stream " + name)
	}
	e := f.entries[idx]
	if e.isStorage() {
		return nil, false, errors.New("olecf: " + name + " is a storage, not a stream")
	}
	var out []byte
	if e.size < uint64(f.header.miniStreamCutoff) {
		chain := f.followMiniChain(e.startSector)
		out = make([]byte, 0, len(chain)*MiniSectorSize)
		for _, ms := range chain {
			start := int(ms) * MiniSectorSize
			end := start + MiniSectorSize
			if end > len(f.miniStream) {
				break
			}
			out = append(out, f.miniStream[start:end]...)
		}
	} else {
		chain := f.followChain(e.startSector)
		out = f.readRawChain(chain, SectorSize)
	}
	if uint64(len(out)) > e.size {
		out = out[:e.size]
	}
	complete := uint64(len(out)) == e.size
	if !complete {
		return out, false, ErrIncompleteStream
	}
	return out, true, nil
}

// Streams returns every non-root directory entry in parse order.
func (f *File) Streams() []direntry { return f.entries }
