// Copyright 2020 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains various helper utilitites useful for implementation of command line tools.
package tool

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/stat"
)

var (
	flagCPUProfile = flag.String("cpuprofile", "", "write CPU profile to this file")
	flagMEMProfile = flag.String("memprofile", "", "write memory profile to this file")
)

// Init parses command line flags and installs profiling.
// The returned function must be deferred by main.
func Init() func() {
	flag.Parse()
	return installProfiling(*flagCPUProfile, *flagMEMProfile)
}

func Failf(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}

// Errors prints each error on a separate line with the given prefix.
func Errors(w io.Writer, header string, errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "%v:\n", header)
	for _, err := range errs {
		fmt.Fprintf(w, "  - %v\n", err)
	}
}

// Exit terminates the tool with the given code without printing anything,
// e.g. after the tool has already reported the failure itself.
func Exit(code int) {
	exit(code)
}

// Stats logs console-level metrics and writes all Prometheus metrics to the metrics file, if set.
func Stats(metrics string) error {
	for _, ui := range stat.Collect(stat.Console) {
		log.Logf(0, "%-20v: %v", ui.Name, ui.Value)
	}
	if metrics == "" {
		return nil
	}
	if err := stat.WriteTextfile(metrics); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

var exit = os.Exit
