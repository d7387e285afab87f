// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package csource

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Options control the generated program and the way it is built.
type Options struct {
	// Symbol is the traced function that the program intercepts.
	Symbol string `json:"symbol,omitempty"`
	// Macro is the tracing macro that each generated call goes through.
	Macro string `json:"macro,omitempty"`
	// TracingSource is the library tracing implementation, included with Symbol renamed.
	TracingSource string `json:"tracing_source,omitempty"`
	// Headers provide types used by the generators (raft_id and friends).
	Headers []string `json:"headers,omitempty"`
	// EnableVar is the global switch that turns tracing on.
	EnableVar string `json:"enable_var,omitempty"`
	// DumpFunc prints the crash trace ring buffer to a file descriptor.
	DumpFunc string `json:"dump_func,omitempty"`

	SourceFile string `json:"source_file,omitempty"`
	CheckFile  string `json:"check_file,omitempty"`
	DumpFile   string `json:"dump_file,omitempty"`

	Compiler string        `json:"compiler,omitempty"`
	CFlags   []string      `json:"cflags,omitempty"`
	LDFlags  []string      `json:"ldflags,omitempty"`
	Timeout  time.Duration `json:"-"`
}

const (
	DefaultSourceFile = "debug_trace_generated.c"
	DefaultCheckFile  = "check.txt"
	DefaultDumpFile   = "test.txt"
)

func DefaultOpts() Options {
	return Options{
		Symbol:        "dqlite_tracef",
		Macro:         "tracef",
		TracingSource: "src/tracing.c",
		Headers:       []string{"src/raft.h"},
		EnableVar:     "_dqliteTracingEnabled",
		DumpFunc:      "dqlite_print_crash_trace",
		SourceFile:    DefaultSourceFile,
		CheckFile:     DefaultCheckFile,
		DumpFile:      DefaultDumpFile,
		Compiler:      "cc",
		CFlags:        []string{"-D_GNU_SOURCE", "-g", "-O0"},
		Timeout:       5 * time.Minute,
	}
}

// Complete fills unset fields with defaults and checks the result.
func (opts *Options) Complete() error {
	def := DefaultOpts()
	for _, f := range []struct {
		val *string
		def string
	}{
		{&opts.Symbol, def.Symbol},
		{&opts.Macro, def.Macro},
		{&opts.TracingSource, def.TracingSource},
		{&opts.EnableVar, def.EnableVar},
		{&opts.DumpFunc, def.DumpFunc},
		{&opts.SourceFile, def.SourceFile},
		{&opts.CheckFile, def.CheckFile},
		{&opts.DumpFile, def.DumpFile},
		{&opts.Compiler, def.Compiler},
	} {
		if *f.val == "" {
			*f.val = f.def
		}
	}
	if opts.Headers == nil {
		opts.Headers = def.Headers
	}
	if opts.CFlags == nil {
		opts.CFlags = def.CFlags
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	return opts.Check()
}

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	badPathRe = regexp.MustCompile(`["\\\n]`)
)

// Check checks if the opts combination is valid or not.
func (opts Options) Check() error {
	for _, id := range []struct {
		what, val string
	}{
		{"symbol", opts.Symbol},
		{"macro", opts.Macro},
		{"enable_var", opts.EnableVar},
		{"dump_func", opts.DumpFunc},
	} {
		if !identRe.MatchString(id.val) {
			return fmt.Errorf("option %v=%q is not a C identifier", id.what, id.val)
		}
	}
	for _, file := range append([]string{opts.TracingSource}, opts.Headers...) {
		if file == "" || badPath(file) {
			return fmt.Errorf("bad include file %q", file)
		}
	}
	for _, file := range []string{opts.SourceFile, opts.CheckFile, opts.DumpFile} {
		if file == "" || filepath.Base(file) != file || badPath(file) {
			return fmt.Errorf("bad output file %q: must be a plain file name", file)
		}
	}
	if opts.CheckFile == opts.DumpFile {
		return errors.New("check_file and dump_file must differ")
	}
	if opts.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", opts.Timeout)
	}
	return nil
}

func badPath(file string) bool {
	return badPathRe.MatchString(file)
}
