// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// tracef-gen harvests trace call sites from a C source tree and writes a program
// that exercises each of them once.
//
// Usage:
//
//	tracef-gen -root ~/dqlite -out debug_trace_generated.c
//
// The program is written even if some call sites could not be harvested,
// but the tool exits with status 1 in that case.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/tracefuzz/tracefuzz/pkg/csource"
	"github.com/tracefuzz/tracefuzz/pkg/harvest"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/mgrconfig"
	"github.com/tracefuzz/tracefuzz/pkg/osutil"
	"github.com/tracefuzz/tracefuzz/pkg/tool"
)

func main() {
	var (
		flagConfig  = flag.String("config", "", "config file (optional)")
		flagRoot    = flag.String("root", "", "library source tree (overrides config)")
		flagOut     = flag.String("out", csource.DefaultSourceFile, "output file")
		flagClang   = flag.String("clang", "", "clang binary (overrides config)")
		flagProcs   = flag.Int("procs", 0, "number of files parsed in parallel (overrides config)")
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
	if *flagClang != "" {
		cfg.Clang = *flagClang
	}
	if *flagProcs != 0 {
		cfg.Harvest.Procs = *flagProcs
	}
	if *flagMetrics != "" {
		cfg.Metrics = *flagMetrics
	}
	if cfg.Workdir == "" {
		cfg.Workdir = filepath.Dir(*flagOut)
	}
	if err := mgrconfig.Complete(cfg); err != nil {
		tool.Fail(err)
	}
	res, err := generate(cfg, cfg.Parser(), *flagOut)
	if err != nil {
		tool.Fail(err)
	}
	if err := tool.Stats(cfg.Metrics); err != nil {
		tool.Fail(err)
	}
	if len(res.Errors) != 0 {
		tool.Errors(os.Stderr, "Harvesting failed", res.Errors)
		tool.Exit(1)
	}
}

func generate(cfg *mgrconfig.Config, parser harvest.Parser, out string) (*harvest.Result, error) {
	res, err := harvest.Scan(&cfg.Harvest, parser)
	if err != nil {
		return nil, err
	}
	src, err := csource.Render(res.Sites, cfg.Program)
	if err != nil {
		return nil, err
	}
	if err := osutil.WriteFile(out, src); err != nil {
		return nil, err
	}
	log.Logf(0, "wrote %v call sites from %v files to %v (%v errors)",
		len(res.Sites), len(res.Files), out, len(res.Errors))
	return res, nil
}
