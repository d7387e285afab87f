// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tracef-run runs the whole crash trace check for a library source tree:
// it harvests trace call sites, generates and builds a program that invokes each of them,
// runs the program and validates the crash trace dump against the recorded messages.
//
// Usage:
//
//	tracef-run -config tracefuzz.cfg
//	tracef-run -root ~/dqlite -workdir /tmp/tracef
//
// All artifacts are left in the working directory.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tracefuzz/tracefuzz/pkg/csource"
	"github.com/tracefuzz/tracefuzz/pkg/harvest"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/mgrconfig"
	"github.com/tracefuzz/tracefuzz/pkg/osutil"
	"github.com/tracefuzz/tracefuzz/pkg/stat"
	"github.com/tracefuzz/tracefuzz/pkg/tool"
	"github.com/tracefuzz/tracefuzz/pkg/tracecheck"
)

const resultFile = "result.json"

var (
	statBuildTime = stat.New("build time", "Time to build the generated program",
		stat.Console, stat.FormatMillis, stat.Prometheus("tracefuzz_build_ms"))
	statRunTime = stat.New("run time", "Time to run the generated program",
		stat.Console, stat.FormatMillis, stat.Prometheus("tracefuzz_run_ms"))
)

func main() {
	var (
		flagConfig  = flag.String("config", "", "config file (optional)")
		flagRoot    = flag.String("root", "", "library source tree (overrides config)")
		flagWorkdir = flag.String("workdir", "", "working directory (overrides config)")
		flagMetrics = flag.String("metrics", "", "write Prometheus metrics to this file")
	)
	defer tool.Init()()
	cfg := mgrconfig.DefaultValues()
	if *flagConfig != "" {
		var err error
		if cfg, err = mgrconfig.LoadPartialFile(*flagConfig); err != nil {
			tool.Fail(err)
		}
	}
	if *flagRoot != "" {
		cfg.Root = *flagRoot
		cfg.Harvest.Root = ""
	}
	if *flagWorkdir != "" {
		cfg.Workdir = *flagWorkdir
	}
	if *flagMetrics != "" {
		cfg.Metrics = *flagMetrics
	}
	if err := mgrconfig.Complete(cfg); err != nil {
		tool.Fail(err)
	}
	res, err := run(cfg, cfg.Parser(), os.Stdout, os.Stderr)
	if err != nil {
		tool.Fail(err)
	}
	if err := tool.Stats(cfg.Metrics); err != nil {
		tool.Fail(err)
	}
	if !res.OK() {
		tool.Exit(1)
	}
}

type runResult struct {
	Harvest *harvest.Result
	Report  *tracecheck.Report
}

func (res *runResult) OK() bool {
	return len(res.Harvest.Errors) == 0 && res.Report.Result.Success
}

func run(cfg *mgrconfig.Config, parser harvest.Parser, stdout, stderr io.Writer) (*runResult, error) {
	if err := osutil.MkdirAll(cfg.Workdir); err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	log.Logf(0, "%v %v: checking %v in %v", name, uuid.NewString(), cfg.Root, cfg.Workdir)
	hres, err := harvest.Scan(&cfg.Harvest, parser)
	if err != nil {
		return nil, err
	}
	// Harvesting errors don't prevent checking the call sites that were harvested.
	tool.Errors(stderr, "Harvesting failed", hres.Errors)
	if _, err := csource.Write(cfg.Workdir, hres.Sites, cfg.Program); err != nil {
		return nil, err
	}
	start := time.Now()
	bin, err := csource.Build(cfg.Program, cfg.Root, cfg.Workdir)
	if err != nil {
		return nil, err
	}
	statBuildTime.Since(start)
	start = time.Now()
	if err := csource.Run(cfg.Program, bin, cfg.Workdir); err != nil {
		return nil, err
	}
	statRunTime.Since(start)
	rep, err := tracecheck.Check(filepath.Join(cfg.Workdir, cfg.Program.CheckFile),
		filepath.Join(cfg.Workdir, cfg.Program.DumpFile))
	if err != nil {
		return nil, err
	}
	rep.Print(stdout, stderr)
	if err := tracecheck.SaveResult(filepath.Join(cfg.Workdir, resultFile), rep.Result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}
	return &runResult{Harvest: hres, Report: rep}, nil
}
