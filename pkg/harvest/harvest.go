// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package harvest discovers call sites of a variadic trace function in a C source tree.
//
// Every source file is parsed with the clang front end, calls whose callee refers to a declaration
// named Config.Symbol are extracted together with their literal format string and the types of the
// variadic arguments. Matching is done by name only: an unrelated function with the same name
// would be picked up as well.
package harvest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/tracefuzz/tracefuzz/pkg/clangast"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/stat"
	"github.com/tracefuzz/tracefuzz/pkg/tracegen"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// Root is the source tree to scan.
	Root string `json:"root"`
	// Patterns select files to scan, they are matched against slash-separated paths relative to Root.
	// "*" does not cross directories, "**" does, and a "**/" element may match no directories at all.
	// Alternatives ("{a,b}") and character classes are supported too.
	Patterns []string `json:"patterns,omitempty"`
	// Symbol is the name of the traced function.
	Symbol string `json:"symbol,omitempty"`
	// Procs is the number of files parsed in parallel.
	Procs int `json:"procs,omitempty"`
}

const (
	DefaultSymbol  = "dqlite_tracef"
	DefaultPattern = "src/**/*.c"
	// FormatArg is the index of the format argument: (file, line, func, level, fmt, ...).
	FormatArg = 4
)

func (cfg *Config) Complete() error {
	if cfg.Root == "" {
		return fmt.Errorf("source root is not specified")
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{DefaultPattern}
	}
	if _, err := NewMatcher(cfg.Patterns); err != nil {
		return err
	}
	if cfg.Symbol == "" {
		cfg.Symbol = DefaultSymbol
	}
	if cfg.Procs <= 0 {
		cfg.Procs = runtime.NumCPU()
	}
	return nil
}

// Parser produces the clang AST of a source file.
// File names are relative to the scan root.
type Parser interface {
	Parse(file string) (*clangast.Node, error)
}

type CallSite struct {
	// File is the path of the source file relative to the scan root.
	File string
	// Loc is the location of the call as reported by clang.
	Loc clangast.Loc
	// Format is the format string literal as spelled in the source (with quotes).
	Format string
	// Args are generator keys of the variadic arguments, in order.
	Args []tracegen.Key
	// Types are the clang spellings of the variadic argument types.
	Types []string
}

type Result struct {
	// Files are the scanned files, in scan order.
	Files []string
	Sites []*CallSite
	// Errors contains *FileError and *SiteError values ordered by file, then by position in the file.
	Errors []error
}

// FileError means that a file could not be processed and contributes no call sites.
type FileError struct {
	File string
	Err  error
}

func (err *FileError) Error() string {
	return fmt.Sprintf("%v: %v", err.File, err.Err)
}

func (err *FileError) Unwrap() error {
	return err.Err
}

// SiteError means that a single call site was skipped.
type SiteError struct {
	File string
	Loc  clangast.Loc
	Err  error
}

func (err *SiteError) Error() string {
	if err.Loc.File != "" {
		return fmt.Sprintf("%v: call at %v: %v", err.File, err.Loc, err.Err)
	}
	return fmt.Sprintf("%v: %v", err.File, err.Err)
}

func (err *SiteError) Unwrap() error {
	return err.Err
}

var (
	statFiles     = stat.New("scanned files", "Number of scanned source files", stat.Console)
	statSites     = stat.New("call sites", "Number of harvested trace call sites", stat.Console, stat.Prometheus("tracefuzz_call_sites"))
	statErrors    = stat.New("harvest errors", "Number of harvesting errors", stat.Console, stat.Prometheus("tracefuzz_harvest_errors"))
	statParseTime = stat.New("parse time", "Time to parse one source file",
		stat.Console, stat.Distribution{}, stat.FormatMillis)
)

// Scan harvests call sites from all matching files under cfg.Root.
// Files are processed in parallel, but results are always in the sorted file order.
// Per-file and per-site problems are reported in Result.Errors,
// the returned error is set only if the source tree can't be enumerated.
func Scan(cfg *Config, parser Parser) (*Result, error) {
	files, err := ListFiles(cfg.Root, cfg.Patterns)
	if err != nil {
		return nil, err
	}
	type fileResult struct {
		sites []*CallSite
		errs  []error
	}
	results := make([]fileResult, len(files))
	var remaining atomic.Int64
	remaining.Store(int64(len(files)))
	var eg errgroup.Group
	eg.SetLimit(max(cfg.Procs, 1))
	for i, file := range files {
		eg.Go(func() error {
			start := time.Now()
			sites, errs := scanFile(parser, file, cfg.Symbol)
			statParseTime.Since(start)
			results[i] = fileResult{sites, errs}
			log.Logf(0, "processed %v, %v remaining", file, remaining.Add(-1))
			return nil
		})
	}
	eg.Wait()
	res := &Result{Files: files}
	for _, fr := range results {
		res.Sites = append(res.Sites, fr.sites...)
		res.Errors = append(res.Errors, fr.errs...)
	}
	statFiles.Add(len(files))
	statSites.Add(len(res.Sites))
	statErrors.Add(len(res.Errors))
	return res, nil
}

func scanFile(parser Parser, file, symbol string) ([]*CallSite, []error) {
	root, err := parser.Parse(file)
	if err != nil {
		return nil, []error{&FileError{File: file, Err: err}}
	}
	var sites []*CallSite
	var errs []error
	abandon := false
	for _, call := range clangast.FindCalls(root, symbol) {
		site, err := extractSite(file, call)
		if err != nil {
			errs = append(errs, err)
			if ferr, ok := err.(*FileError); ok {
				log.Logf(1, "%v", ferr)
				abandon = true
			}
			continue
		}
		sites = append(sites, site)
	}
	if abandon {
		// The remaining call sites were still examined above so that all problems are reported,
		// but a file with an unextractable format contributes nothing.
		return nil, errs
	}
	return sites, errs
}

func extractSite(file string, call *clangast.Node) (*CallSite, error) {
	args := clangast.Args(call)
	if len(args) <= FormatArg {
		return nil, &FileError{
			File: file,
			Err:  fmt.Errorf("call at %v has %v arguments, want at least %v", call.Loc, len(args), FormatArg+1),
		}
	}
	format, err := clangast.Literal(args[FormatArg])
	if err != nil {
		return nil, &FileError{
			File: file,
			Err:  fmt.Errorf("cannot extract format from trace call at %v: %w", call.Loc, err),
		}
	}
	site := &CallSite{
		File:   file,
		Loc:    call.Loc,
		Format: format,
	}
	for i, arg := range args[FormatArg+1:] {
		key, err := tracegen.Lookup(arg.Type)
		if err != nil {
			return nil, &SiteError{
				File: file,
				Loc:  call.Loc,
				Err:  fmt.Errorf("argument %v: %w", i, err),
			}
		}
		site.Args = append(site.Args, key)
		site.Types = append(site.Types, arg.Type)
	}
	return site, nil
}

// ListFiles returns sorted slash-separated paths relative to root that match any of the patterns.
func ListFiles(root string, patterns []string) ([]string, error) {
	matcher, err := NewMatcher(patterns)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

// Matcher matches slash-separated paths against a set of glob patterns.
type Matcher struct {
	globs []glob.Glob
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := new(Matcher)
	for _, pattern := range patterns {
		for _, variant := range expandPattern(pattern) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			m.globs = append(m.globs, g)
		}
	}
	return m, nil
}

func (m *Matcher) Match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// expandPattern returns variants of pattern with every "**/" element either kept or dropped.
// glob's "**" needs the following separator to be present, so "src/**/*.c" alone
// would not match files directly in src.
func expandPattern(pattern string) []string {
	for i := 0; ; {
		j := strings.Index(pattern[i:], "**/")
		if j < 0 {
			return []string{pattern}
		}
		j += i
		if j != 0 && pattern[j-1] != '/' {
			i = j + 3
			continue
		}
		var res []string
		for _, rest := range expandPattern(pattern[j+3:]) {
			res = append(res, pattern[:j+3]+rest, pattern[:j]+rest)
		}
		return res
	}
}
