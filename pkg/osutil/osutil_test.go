// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExist(t *testing.T) {
	if f := os.Args[0]; !IsExist(f) {
		t.Fatalf("executable %v does not exist", f)
	}
	if f := os.Args[0] + "-foo-bar-buz"; IsExist(f) {
		t.Fatalf("file %v exists", f)
	}
}

func TestWriteFileCreatesDirs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a", "b", "debug_trace_generated.c")
	require.NoError(t, WriteFile(file, []byte("int main() {}\n")))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "int main() {}\n", string(data))
}

func requireShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func TestRunCmd(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	out, err := RunCmd(time.Minute, dir, "sh", "-c", "echo out; echo err 1>&2; pwd")
	require.NoError(t, err)
	assert.Contains(t, string(out), "out\n")
	assert.Contains(t, string(out), "err\n")
	assert.Contains(t, string(out), filepath.Base(dir))
}

func TestRunCmdFailure(t *testing.T) {
	requireShell(t)
	out, err := RunCmd(time.Minute, "", "sh", "-c", "echo boom; exit 3")
	require.Error(t, err)
	var verr *VerboseError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.ExitCode)
	assert.Equal(t, "boom\n", string(out))
	assert.Contains(t, err.Error(), "boom")

	err = PrependContext("compile", err)
	assert.True(t, strings.HasPrefix(err.Error(), "compile: failed to run"))
}

func TestRunCmdTimeout(t *testing.T) {
	requireShell(t)
	start := time.Now()
	_, err := RunCmd(100*time.Millisecond, "", "sh", "-c", "sleep 100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timedout")
	assert.Less(t, time.Since(start), 50*time.Second)
}

func TestPrependContextPlain(t *testing.T) {
	base := errors.New("no such file")
	err := PrependContext("reading check.txt", base)
	assert.Equal(t, "reading check.txt: no such file", err.Error())
	assert.ErrorIs(t, err, base)
}
