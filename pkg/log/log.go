// Copyright 2016 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides functionality similar to standard log package with some extensions:
//   - verbosity levels
//   - global verbosity setting that can be used by multiple packages
//   - ability to redirect output (used by tests)
package log

import (
	"flag"
	"fmt"
	"io"
	golog "log"
	"os"
	"sync"
)

var (
	flagV  = flag.Int("vv", 0, "verbosity")
	mu     sync.Mutex
	logger = golog.New(os.Stderr, "", golog.LstdFlags)
)

// V reports whether messages at verbosity v are printed.
func V(v int) bool {
	return v <= *flagV
}

// SetVerbosity overrides the -vv flag value.
func SetVerbosity(v int) {
	*flagV = v
}

// SetOutput redirects log output to w.
// Returns a function that restores the previous output.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := logger.Writer()
	logger.SetOutput(w)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		logger.SetOutput(prev)
	}
}

func Logf(v int, msg string, args ...interface{}) {
	if !V(v) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger.Output(2, fmt.Sprintf(msg, args...))
}

// VerboseWriter logs everything written to it at the given verbosity.
type VerboseWriter int

func (w VerboseWriter) Write(data []byte) (int, error) {
	Logf(int(w), "%s", data)
	return len(data), nil
}
