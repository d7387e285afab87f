// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mgrconfig

import (
	"github.com/tracefuzz/tracefuzz/pkg/csource"
	"github.com/tracefuzz/tracefuzz/pkg/harvest"
)

type Config struct {
	// Run name, shows up in logs (optional).
	Name string `json:"name,omitempty"`
	// Root of the library source tree, e.g. a dqlite checkout.
	// The tree must contain the tracing implementation and the headers named in program.
	Root string `json:"root"`
	// Location of a working directory. Outputs here include:
	// - <workdir>/debug_trace_generated.c: the generated program
	// - <workdir>/debug_trace_generated: the program binary
	// - <workdir>/check.txt: messages recorded by the intercepted trace function
	// - <workdir>/test.txt: the crash trace dump
	// - <workdir>/result.json: the validation result
	Workdir string `json:"workdir"`
	// Clang binary used to parse sources ("clang" by default).
	Clang string `json:"clang,omitempty"`
	// Additional clang flags, e.g. include paths relative to root.
	ClangFlags []string `json:"clang_flags,omitempty"`
	// Per-file parse, build and run timeout in seconds.
	Timeout int `json:"timeout,omitempty"`
	// File to write Prometheus metrics to in text format (optional).
	Metrics string `json:"metrics,omitempty"`

	// Call site discovery parameters, harvest.root defaults to root.
	Harvest harvest.Config `json:"harvest"`
	// Generated program parameters.
	Program csource.Options `json:"program"`
}
