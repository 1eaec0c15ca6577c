package vm

import "errors"

// PageSize is the linear memory growth unit, kept at the WebAssembly page
// size (64KiB) even though this VM is a pure-Go interpreter rather than a
// wasm host: it is the unit every compiled-rules producer in this domain
// (a real wasmtime/wazero-hosted compiler) would use, and keeping it makes
// a future swap to a real wasm backend a matter of re-plumbing Memory, not
// rethinking callers.
const PageSize = 64 * 1024

// ErrOutOfBounds is the trap raised when a guest access falls outside the
// current linear memory size.
var ErrOutOfBounds = errors.New("vm: memory access out of bounds")

// Memory is the scan VM's bounded linear memory: a single, growable byte
// buffer owned by the Store. No opcode or host import in this package
// reads or writes it. All accesses are bounds-checked; an out-of-bounds
// access returns ErrOutOfBounds, never a panic.
type Memory struct {
	data []byte
}

// NewMemory allocates memory with the given number of pages (at least one,
// per spec: "one linear memory of at least one page").
func NewMemory(pages int) *Memory {
	if pages < 1 {
		pages = 1
	}
	return &Memory{data: make([]byte, pages*PageSize)}
}

// Pages returns the current size in pages.
func (m *Memory) Pages() int { return len(m.data) / PageSize }

// Grow appends n pages, returning the previous page count. The host may
// grow memory at will; the guest module must never assume a maximum.
func (m *Memory) Grow(n int) int {
	prev := m.Pages()
	if n <= 0 {
		return prev
	}
	m.data = append(m.data, make([]byte, n*PageSize)...)
	return prev
}

// Read returns a copy of length bytes starting at offset.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, ErrOutOfBounds
	}
	out := make([]byte, length)
	copy(out, m.data[offset:end])
	return out, nil
}

// Write copies b into memory starting at offset.
func (m *Memory) Write(offset uint32, b []byte) error {
	end := uint64(offset) + uint64(len(b))
	if end > uint64(len(m.data)) {
		return ErrOutOfBounds
	}
	copy(m.data[offset:end], b)
	return nil
}
