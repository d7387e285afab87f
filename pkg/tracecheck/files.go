// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tracecheck

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tracefuzz/tracefuzz/pkg/config"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/osutil"
)

// ReadLines reads a trace artifact: surrounding whitespace of the whole file is trimmed,
// and the rest is split on newlines. An empty file has no lines.
func ReadLines(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(data)), nil
}

func SplitLines(data string) []string {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil
	}
	return strings.Split(data, "\n")
}

// Report is the outcome of validating a pair of files.
type Report struct {
	CheckLines int
	DumpLines  int
	Result     *Result
}

// Check validates dumpFile against checkFile.
// The returned error is set only if the files can't be read.
func Check(checkFile, dumpFile string) (*Report, error) {
	check, err := ReadLines(checkFile)
	if err != nil {
		return nil, osutil.PrependContext("failed to read check file", err)
	}
	dump, err := ReadLines(dumpFile)
	if err != nil {
		return nil, osutil.PrependContext("failed to read dump file", err)
	}
	log.Logf(0, "validating %v (%v lines) against %v (%v lines)", dumpFile, len(dump), checkFile, len(check))
	return &Report{
		CheckLines: len(check),
		DumpLines:  len(dump),
		Result:     Validate(check, dump),
	}, nil
}

// Print prints the summary to stdout and the itemized errors to stderr.
func (rep *Report) Print(stdout, stderr io.Writer) {
	fmt.Fprintf(stdout, "Check file has %v lines\n", rep.CheckLines)
	fmt.Fprintf(stdout, "Test file has %v lines\n", rep.DumpLines)
	res := rep.Result
	if res.Success {
		fmt.Fprintf(stdout, "All validation checks passed!\n")
		fmt.Fprintf(stdout, "Validated %v trace messages\n", res.MessageCount)
		return
	}
	fmt.Fprintf(stderr, "Validation failed:\n")
	for _, err := range res.Errors {
		fmt.Fprintf(stderr, "  - %v\n", err)
	}
}

// SaveResult writes res as JSON.
func SaveResult(file string, res *Result) error {
	return config.SaveFile(file, res)
}
