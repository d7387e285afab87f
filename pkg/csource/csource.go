// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package csource generates a C program that invokes every harvested trace call site
// with generated arguments, recording the formatted messages in a ground-truth file
// and dumping the crash trace ring buffer at the end.
package csource

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/tracefuzz/tracefuzz/pkg/harvest"
	"github.com/tracefuzz/tracefuzz/pkg/tracegen"
)

// Render returns source of the program for sites.
// Each site becomes exactly one line, and lines of consecutive sites are adjacent,
// so the line numbers recorded by the tracing macro grow by one per call.
// The result must not be reformatted.
func Render(sites []*harvest.CallSite, opts Options) ([]byte, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	calls := new(bytes.Buffer)
	for i, site := range sites {
		if err := renderCall(calls, site, opts); err != nil {
			return nil, fmt.Errorf("call site #%v (%v): %w", i, site.File, err)
		}
	}
	headers := new(bytes.Buffer)
	for _, hdr := range opts.Headers {
		fmt.Fprintf(headers, "#include \"%v\"\n", hdr)
	}
	src := []byte(programTemplate)
	for _, repl := range []struct {
		from, to string
	}{
		{"HEADERS", headers.String()},
		{"GENERATORS", string(tracegen.Definitions())},
		{"SEED", string(tracegen.SeedInit())},
		{"TRACING_SOURCE", opts.TracingSource},
		{"SYMBOL", opts.Symbol},
		{"ENABLE_VAR", opts.EnableVar},
		{"DUMP_FUNC", opts.DumpFunc},
		{"CHECK_FILE", opts.CheckFile},
		{"DUMP_FILE", opts.DumpFile},
	} {
		src = bytes.ReplaceAll(src, []byte("[["+repl.from+"]]"), []byte(repl.to))
	}
	for _, leftover := range placeholderRe.FindAll(src, -1) {
		if string(leftover) != "[[CALLS]]" {
			return nil, fmt.Errorf("unreplaced placeholder %s", leftover)
		}
	}
	// Calls go last as format strings may contain anything.
	return bytes.Replace(src, []byte("[[CALLS]]"), calls.Bytes(), 1), nil
}

var placeholderRe = regexp.MustCompile(`\[\[[A-Z_]+\]\]`)

func renderCall(w *bytes.Buffer, site *harvest.CallSite, opts Options) error {
	if !strings.HasPrefix(site.Format, `"`) || strings.ContainsAny(site.Format, "\n") {
		return fmt.Errorf("format %q is not a single-line string literal", site.Format)
	}
	args := []string{site.Format}
	for _, key := range site.Args {
		if !key.Valid() {
			return fmt.Errorf("unknown generator key %v", key)
		}
		args = append(args, key.Call())
	}
	fmt.Fprintf(w, "\t%v(%v); // from %v\n", opts.Macro, strings.Join(args, ", "),
		strings.ReplaceAll(site.File, "\n", " "))
	return nil
}
