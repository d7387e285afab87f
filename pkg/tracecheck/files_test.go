// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tracecheck

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Nil(t, SplitLines(" \n\n"))
	assert.Equal(t, []string{"a"}, SplitLines("a\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("\n a\n\nb \n"))
}

func writeArtifacts(t *testing.T, check, dump string) (string, string) {
	dir := t.TempDir()
	checkFile := filepath.Join(dir, "check.txt")
	dumpFile := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(checkFile, []byte(check), 0644))
	require.NoError(t, os.WriteFile(dumpFile, []byte(dump), 0644))
	return checkFile, dumpFile
}

func TestCheck(t *testing.T) {
	checkFile, dumpFile := writeArtifacts(t, "hello\nworld\n", strings.Join([]string{
		header(2),
		record(100, 7, 10, "hello"),
		record(101, 7, 11, "world"),
	}, "\n")+"\n")
	rep, err := Check(checkFile, dumpFile)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.CheckLines)
	assert.Equal(t, 3, rep.DumpLines)
	assert.True(t, rep.Result.Success)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rep.Print(stdout, stderr)
	assert.Equal(t, "Check file has 2 lines\nTest file has 3 lines\n"+
		"All validation checks passed!\nValidated 2 trace messages\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestCheckEmptyRun(t *testing.T) {
	checkFile, dumpFile := writeArtifacts(t, "", header(0)+"\n")
	rep, err := Check(checkFile, dumpFile)
	require.NoError(t, err)
	assert.True(t, rep.Result.Success)
	assert.Equal(t, 0, rep.Result.MessageCount)
}

func TestCheckFailure(t *testing.T) {
	checkFile, dumpFile := writeArtifacts(t, "hello\n", "")
	rep, err := Check(checkFile, dumpFile)
	require.NoError(t, err)
	assert.False(t, rep.Result.Success)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rep.Print(stdout, stderr)
	assert.Equal(t, "Check file has 1 lines\nTest file has 0 lines\n", stdout.String())
	assert.Equal(t, "Validation failed:\n  - dump is empty\n", stderr.String())
}

func TestCheckMissingFile(t *testing.T) {
	checkFile, _ := writeArtifacts(t, "hello\n", "")
	_, err := Check(checkFile, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dump file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveResult(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out", "result.json")
	res := Validate([]string{"a"}, []string{header(1), record(1, 1, 1, "b")})
	require.NoError(t, SaveResult(file, res))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"success":       false,
		"errors":        []any{`Line 2: Message mismatch: expected "a", got "b"`},
		"message_count": float64(1),
	}, got)
}
