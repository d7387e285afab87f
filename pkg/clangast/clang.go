// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package clangast

import (
	"bytes"
	"time"

	"github.com/tracefuzz/tracefuzz/pkg/osutil"
)

// Clang parses C files by running the clang front end.
type Clang struct {
	// Bin is the clang binary, "clang" if empty.
	Bin string
	// Dir is the directory clang runs in, include paths in Flags are relative to it.
	Dir string
	// Flags are additional compiler flags (include paths, defines).
	Flags []string
	// Timeout is the per-file timeout, defaults to 10 minutes.
	Timeout time.Duration
}

func (c *Clang) Args(file string) []string {
	args := []string{"-D_GNU_SOURCE"}
	args = append(args, c.Flags...)
	return append(args, "-Xclang", "-ast-dump=json", "-fsyntax-only", file)
}

func (c *Clang) Parse(file string) (*Node, error) {
	bin := c.Bin
	if bin == "" {
		bin = "clang"
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	stdout := new(bytes.Buffer)
	cmd := osutil.Command(bin, c.Args(file)...)
	cmd.Dir = c.Dir
	cmd.Stdout = stdout
	if _, err := osutil.Run(timeout, cmd); err != nil {
		return nil, osutil.PrependContext(file, err)
	}
	root, err := Decode(stdout)
	if err != nil {
		return nil, osutil.PrependContext(file, err)
	}
	return root, nil
}
