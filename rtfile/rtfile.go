// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package rtfile is the memory-mapped scan-file convenience wrapper spec
// §4.1 and §6 describe (`Scanner::scan_file`) and explicitly scope
// outside the core: it belongs here, not in the root rulescan package,
// because mapping a file is an I/O and OS concern the sandboxed scan
// engine itself must never depend on.
package rtfile

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/saferwall/rulescan"
)

// ScanFile memory-maps the file at path read-only, scans it through
// scanner, and unmaps it before returning — the acquire-scan-release
// pattern spec §5 calls "scoped acquisition."
func ScanFile(scanner *rulescan.Scanner, path string) (*rulescan.ScanResults, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return scanner.Scan(nil)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer data.Unmap()

	return scanner.Scan([]byte(data))
}
