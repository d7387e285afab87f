// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package csource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tracefuzz/tracefuzz/pkg/harvest"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/osutil"
)

var ErrNoCompiler = errors.New("no C compiler")

// Write renders the program for sites into dir and returns path of the source file.
func Write(dir string, sites []*harvest.CallSite, opts Options) (string, error) {
	src, err := Render(sites, opts)
	if err != nil {
		return "", err
	}
	file := filepath.Join(dir, opts.SourceFile)
	if err := osutil.WriteFile(file, src); err != nil {
		return "", err
	}
	return file, nil
}

// Build compiles the generated program dir/opts.SourceFile against the library in root
// and returns name of the resulting binary.
// The compiler runs in dir, so __FILE__ expands to the bare source file name.
func Build(opts Options, root, dir string) (string, error) {
	if !osutil.IsExist(filepath.Join(dir, opts.SourceFile)) {
		return "", fmt.Errorf("no program source %v in %v", opts.SourceFile, dir)
	}
	if _, err := exec.LookPath(opts.Compiler); err != nil {
		return "", ErrNoCompiler
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	bin := strings.TrimSuffix(opts.SourceFile, filepath.Ext(opts.SourceFile))
	if bin == opts.SourceFile {
		bin += ".bin"
	}
	flags := []string{"-o", bin, opts.SourceFile, "-I", absRoot}
	flags = append(flags, opts.CFlags...)
	flags = append(flags, opts.LDFlags...)
	out, err := osutil.RunCmd(opts.timeout(), dir, opts.Compiler, flags...)
	if err != nil {
		os.Remove(filepath.Join(dir, bin))
		var verbose *osutil.VerboseError
		if errors.As(err, &verbose) {
			out = verbose.Output
		}
		return "", fmt.Errorf("failed to build program:\n%s\ncompiler invocation: %v %v",
			out, opts.Compiler, flags)
	}
	return filepath.Join(dir, bin), nil
}

// Run executes the built program in dir, where it creates opts.CheckFile and opts.DumpFile.
// Program output is logged at verbosity 1, stderr is also included into the returned error.
func Run(opts Options, bin, dir string) error {
	abs, err := filepath.Abs(bin)
	if err != nil {
		return err
	}
	for _, file := range []string{opts.CheckFile, opts.DumpFile} {
		if err := os.Remove(filepath.Join(dir, file)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	stderr := new(bytes.Buffer)
	cmd := osutil.Command(abs)
	cmd.Dir = dir
	cmd.Stdout = log.VerboseWriter(1)
	cmd.Stderr = io.MultiWriter(stderr, log.VerboseWriter(1))
	if _, err := osutil.Run(opts.timeout(), cmd); err != nil {
		var verbose *osutil.VerboseError
		if errors.As(err, &verbose) {
			verbose.Output = stderr.Bytes()
		}
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}

func (opts Options) timeout() time.Duration {
	if opts.Timeout == 0 {
		return DefaultOpts().Timeout
	}
	return opts.Timeout
}
