// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tracef-check validates the crash trace dump of a generated program against
// the messages the program recorded.
//
// Usage:
//
//	tracef-check -check check.txt -dump test.txt
//
// The summary goes to stdout, validation errors go to stderr.
// The exit status is 1 if the files can't be read or validation fails.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/tracefuzz/tracefuzz/pkg/csource"
	"github.com/tracefuzz/tracefuzz/pkg/tool"
	"github.com/tracefuzz/tracefuzz/pkg/tracecheck"
)

func main() {
	var (
		flagCheck   = flag.String("check", csource.DefaultCheckFile, "messages recorded by the program")
		flagDump    = flag.String("dump", csource.DefaultDumpFile, "crash trace dump")
		flagReport  = flag.String("report", "", "write JSON result to this file")
		flagMetrics = flag.String("metrics", "", "write Prometheus metrics to this file")
	)
	defer tool.Init()()
	ok, err := check(*flagCheck, *flagDump, *flagReport, os.Stdout, os.Stderr)
	if err != nil {
		tool.Fail(err)
	}
	if err := tool.Stats(*flagMetrics); err != nil {
		tool.Fail(err)
	}
	if !ok {
		tool.Exit(1)
	}
}

func check(checkFile, dumpFile, reportFile string, stdout, stderr io.Writer) (bool, error) {
	rep, err := tracecheck.Check(checkFile, dumpFile)
	if err != nil {
		return false, err
	}
	rep.Print(stdout, stderr)
	if reportFile != "" {
		if err := tracecheck.SaveResult(reportFile, rep.Result); err != nil {
			return false, err
		}
	}
	return rep.Result.Success, nil
}
