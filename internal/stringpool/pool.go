// Package stringpool implements the runtime string interner used during a
// scan: byte strings produced by module Main calls or pattern extraction are
// appended once and handed out stable uint32 IDs, keyed by content so
// repeated values collapse to the same ID within a scan.
package stringpool

// DefaultResetThreshold is the pool byte-size above which Scanner.Scan
// discards and reallocates the pool between scans, capping long-running
// residency growth from scanning many distinct inputs.
const DefaultResetThreshold = 64 * 1024

// Pool is an append-only interner. It is not safe for concurrent use; a
// scanner owns exactly one pool for its lifetime (or until Reset).
type Pool struct {
	byContent map[string]uint32
	strings   [][]byte
	size      int
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{byContent: make(map[string]uint32)}
}

// Intern returns the ID for b, appending it if not already present. The
// returned ID is stable for the lifetime of the pool (until Reset).
func (p *Pool) Intern(b []byte) uint32 {
	if id, ok := p.byContent[string(b)]; ok {
		return id
	}
	id := uint32(len(p.strings))
	cp := make([]byte, len(b))
	copy(cp, b)
	p.strings = append(p.strings, cp)
	p.byContent[string(cp)] = id
	p.size += len(cp)
	return id
}

// Get returns the interned bytes for id. Panics-free: returns nil, false
// for an out-of-range id, which a well-behaved caller never produces since
// IDs only ever come from Intern.
func (p *Pool) Get(id uint32) ([]byte, bool) {
	if int(id) >= len(p.strings) {
		return nil, false
	}
	return p.strings[id], true
}

// Size returns the total number of bytes currently interned.
func (p *Pool) Size() int { return p.size }

// Reset discards all interned strings and IDs. Called between scans once
// the pool has grown past a threshold, per Scanner.Options.PoolResetThreshold.
func (p *Pool) Reset() {
	p.byContent = make(map[string]uint32)
	p.strings = nil
	p.size = 0
}

// ResetIfLarge resets the pool when its size exceeds threshold, returning
// whether it did.
func (p *Pool) ResetIfLarge(threshold int) bool {
	if p.size <= threshold {
		return false
	}
	p.Reset()
	return true
}
