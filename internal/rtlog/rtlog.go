// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package rtlog adapts the teacher's logging convention (a go-kratos
// log.Logger wrapped in a leveled log.Helper) to the scanner core: the
// scan engine logs failures worth surfacing but not worth aborting for (a
// module's Main returning an error) through a *log.Helper built here,
// defaulting to a stdout logger filtered at error level when the caller
// supplies none.
package rtlog

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// New returns a *log.Helper for l, or a default stdout logger filtered to
// error level when l is nil. Mirrors saferwall/pe's file.go New().
func New(l log.Logger) *log.Helper {
	if l == nil {
		l = log.NewStdLogger(os.Stdout)
		return log.NewHelper(log.NewFilter(l, log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(l)
}
