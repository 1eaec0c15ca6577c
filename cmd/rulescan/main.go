// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command rulescan is a cobra-based CLI over the rulescan core: compile
// rule source to a serialized artifact, scan a file against a compiled
// artifact, or dump a raw OLE compound-file's directory for debugging —
// the teacher's own CLI dependency (spf13/cobra), now pointed at this
// domain instead of dumping PE files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "rulescan",
		Short: "compile and run YARA-style rules against byte buffers",
	}
	root.AddCommand(newCompileCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newDumpOlecfCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
