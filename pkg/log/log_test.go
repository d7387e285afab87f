// Copyright 2016 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerbosity(t *testing.T) {
	buf := new(bytes.Buffer)
	defer SetOutput(buf)()
	defer SetVerbosity(0)
	tests := []struct {
		verbosity int
		level     int
		printed   bool
	}{
		{0, 0, true},
		{0, 1, false},
		{1, 1, true},
		{2, 1, true},
		{2, 3, false},
	}
	for _, test := range tests {
		buf.Reset()
		SetVerbosity(test.verbosity)
		Logf(test.level, "message %v", test.level)
		got := strings.Contains(buf.String(), "message")
		if got != test.printed {
			t.Errorf("verbosity %v, level %v: printed=%v, want %v",
				test.verbosity, test.level, got, test.printed)
		}
	}
}

func TestVerboseWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	defer SetOutput(buf)()
	w := VerboseWriter(0)
	n, err := w.Write([]byte("compiler output"))
	if err != nil || n != len("compiler output") {
		t.Fatalf("write returned %v, %v", n, err)
	}
	if !strings.Contains(buf.String(), "compiler output") {
		t.Fatalf("output is not logged: %q", buf.String())
	}
}
