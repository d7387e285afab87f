// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tracecheck

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/testutil"
)

func header(n int) string {
	return fmt.Sprintf("Tentatively showing last %v crash trace records:", n)
}

func record(ts, pid uint64, line int, msg string) string {
	return formatRecord(&Record{ts, pid, ExpectedFile, line, ExpectedFunc, msg})
}

func formatRecord(rec *Record) string {
	return fmt.Sprintf("%v %v %v:%v %v %v", rec.Timestamp, rec.Pid, rec.File, rec.Line, rec.Func, rec.Message)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		check  []string
		dump   []string
		errors []string
		count  int
	}{
		{
			name:  "scenario A",
			check: []string{"hello", "world"},
			dump:  []string{header(2), record(100, 7, 10, "hello"), record(101, 7, 11, "world")},
			count: 2,
		},
		{
			name:   "scenario B",
			check:  []string{"hello", "world"},
			dump:   []string{header(2), record(100, 7, 10, "hello"), record(101, 8, 11, "world")},
			errors: []string{"Line 3: PID 8 differs from expected 7"},
			count:  2,
		},
		{
			name:  "scenario C",
			check: []string{"hello", "world"},
			dump: []string{header(2), record(100, 7, 10, "hello"), record(101, 7, 11, "world"),
				record(102, 7, 12, "extra")},
			errors: []string{"Expected 2 trace lines but got 3"},
		},
		{
			name:  "no records",
			check: nil,
			dump:  []string{header(0)},
		},
		{
			name:   "empty dump",
			check:  []string{"hello"},
			dump:   nil,
			errors: []string{"dump is empty"},
		},
		{
			name:   "bad header",
			check:  []string{"hello"},
			dump:   []string{"Showing last 1 crash trace records:", record(1, 1, 1, "hello")},
			errors: []string{"Invalid header format: Showing last 1 crash trace records:"},
		},
		{
			name:   "header count mismatch",
			check:  []string{"hello"},
			dump:   []string{header(5), record(1, 1, 1, "hello")},
			errors: []string{"Header says 5 records but check file has 1 lines"},
			count:  1,
		},
		{
			name:  "header and body count mismatch",
			check: []string{"hello"},
			dump:  []string{header(2), record(1, 1, 1, "hello"), record(2, 1, 2, "hello")},
			errors: []string{
				"Header says 2 records but check file has 1 lines",
				"Expected 1 trace lines but got 2",
			},
		},
		{
			name:  "equal timestamps",
			check: []string{"a", "b"},
			dump:  []string{header(2), record(5, 1, 1, "a"), record(5, 1, 2, "b")},
			count: 2,
		},
		{
			name:   "timestamp goes back",
			check:  []string{"a", "b", "c"},
			dump:   []string{header(3), record(5, 1, 1, "a"), record(4, 1, 2, "b"), record(6, 1, 3, "c")},
			errors: []string{"Line 3: Timestamp 4 is not greater than previous 5"},
			count:  3,
		},
		{
			name:   "line numbers do not cascade",
			check:  []string{"a", "b", "c"},
			dump:   []string{header(3), record(1, 1, 10, "a"), record(2, 1, 12, "b"), record(3, 1, 12, "c")},
			errors: []string{"Line 3: Line number 12 should be 11"},
			count:  3,
		},
		{
			name:  "unparsable line",
			check: []string{"a", "b", "c"},
			dump:  []string{header(3), "garbage", record(2, 1, 21, "b"), record(3, 1, 22, "c")},
			// The line number baseline comes from the first parsed record.
			errors: []string{"Line 2: Invalid trace format: garbage"},
			count:  2,
		},
		{
			name:  "several errors on one line",
			check: []string{"a", "b"},
			dump: []string{header(2), record(1, 1, 1, "a"),
				formatRecord(&Record{0, 2, "other.c", 7, "helper", "c"})},
			errors: []string{
				"Line 3: Timestamp 0 is not greater than previous 1",
				"Line 3: PID 2 differs from expected 1",
				"Line 3: Filename 'other.c' should be 'debug_trace_generated.c'",
				"Line 3: Line number 7 should be 2",
				"Line 3: Function 'helper' should be 'main'",
				`Line 3: Message mismatch: expected "b", got "c"`,
			},
			count: 2,
		},
		{
			name:  "whitespace is trimmed",
			check: []string{"  hello world "},
			dump:  []string{header(1), "  1   7   debug_trace_generated.c:3  main   hello world   "},
			count: 1,
		},
		{
			name:   "header count out of range",
			check:  []string{"a"},
			dump:   []string{"Tentatively showing last 99999999999999999999 crash trace records:", record(1, 1, 1, "a")},
			errors: []string{"Header says 99999999999999999999 records but check file has 1 lines"},
			count:  1,
		},
		{
			name:  "header count with leading zeros",
			check: []string{"a"},
			dump:  []string{"Tentatively showing last 01 crash trace records:", record(1, 1, 1, "a")},
			count: 1,
		},
		{
			name:  "timestamp out of range",
			check: []string{"a", "b", "c"},
			dump: []string{header(3), record(5, 1, 1, "a"),
				"99999999999999999999999 1 debug_trace_generated.c:2 main b", record(6, 1, 3, "c")},
			errors: []string{"Line 3: Timestamp 99999999999999999999999 is out of range"},
			count:  3,
		},
		{
			name:  "first record fields out of range",
			check: []string{"a", "b"},
			dump: []string{header(2),
				"1 99999999999999999999999 debug_trace_generated.c:99999999999999999999999 main a",
				record(2, 7, 5, "x")},
			errors: []string{
				"Line 2: PID 99999999999999999999999 is out of range",
				"Line 2: Line number 99999999999999999999999 is out of range",
				`Line 3: Message mismatch: expected "b", got "x"`,
			},
			count: 2,
		},
		{
			name:  "line number out of range later",
			check: []string{"a", "b", "c"},
			dump: []string{header(3), record(1, 1, 10, "a"),
				"2 1 debug_trace_generated.c:99999999999999999999999 main b", record(3, 1, 13, "c")},
			errors: []string{
				"Line 3: Line number 99999999999999999999999 is out of range",
				"Line 4: Line number 13 should be 12",
			},
			count: 3,
		},
		{
			name:   "inner whitespace matters",
			check:  []string{"hello world"},
			dump:   []string{header(1), record(1, 7, 3, "hello  world")},
			errors: []string{`Line 2: Message mismatch: expected "hello world", got "hello  world"`},
			count:  1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := Validate(test.check, test.dump)
			errors := test.errors
			if errors == nil {
				errors = []string{}
			}
			if diff := cmp.Diff(errors, res.Errors); diff != "" {
				t.Fatal(diff)
			}
			assert.Equal(t, len(test.errors) == 0, res.Success)
			assert.Equal(t, test.count, res.MessageCount)
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	check := []string{"a", "b", "c"}
	dump := []string{header(4), record(3, 1, 1, "a"), "bad", record(1, 2, 5, "x")}
	first := Validate(check, dump)
	second := Validate(check, dump)
	assert.Equal(t, first, second)
	assert.False(t, first.Success)
}

func TestValidateRandom(t *testing.T) {
	r := rand.New(testutil.RandSource(t))
	for i := 0; i < testutil.IterCount(); i++ {
		n := 2 + r.Intn(20)
		pid := uint64(1 + r.Intn(1<<20))
		ts := uint64(1000 + r.Intn(1000))
		line := 1 + r.Intn(1000)
		var check, dump []string
		var recs []*Record
		dump = append(dump, header(n))
		for j := 0; j < n; j++ {
			msg := testutil.RandWord(r, 20)
			check = append(check, msg)
			recs = append(recs, &Record{ts, pid, ExpectedFile, line + j, ExpectedFunc, msg})
			ts += uint64(r.Intn(3))
		}
		for _, rec := range recs {
			dump = append(dump, formatRecord(rec))
		}
		res := Validate(check, dump)
		require.True(t, res.Success, "errors: %q", res.Errors)
		require.Equal(t, n, res.MessageCount)

		// A single corrupted field of a single record gives exactly one error.
		j := 1 + r.Intn(n-1)
		rec := *recs[j]
		var want string
		switch r.Intn(5) {
		case 0:
			rec.Pid++
			want = fmt.Sprintf("Line %v: PID %v differs from expected %v", j+2, rec.Pid, pid)
		case 1:
			rec.Line += 1 + r.Intn(10)
			want = fmt.Sprintf("Line %v: Line number %v should be %v", j+2, rec.Line, line+j)
		case 2:
			rec.Func = "not_main"
			want = fmt.Sprintf("Line %v: Function 'not_main' should be 'main'", j+2)
		case 3:
			rec.Message += "x"
			want = fmt.Sprintf("Line %v: Message mismatch: expected %q, got %q", j+2, check[j], rec.Message)
		case 4:
			rec.Timestamp = recs[j-1].Timestamp - 1
			want = fmt.Sprintf("Line %v: Timestamp %v is not greater than previous %v",
				j+2, rec.Timestamp, recs[j-1].Timestamp)
		}
		dump[j+1] = formatRecord(&rec)
		res = Validate(check, dump)
		require.Equal(t, []string{want}, res.Errors)
		require.Equal(t, n, res.MessageCount)
	}
}

func TestParseHeader(t *testing.T) {
	for line, want := range map[string]string{
		"Tentatively showing last 42 crash trace records:":                   "42",
		"Tentatively showing last 3 crash trace records: (truncated)":        "3",
		"Tentatively showing last 007 crash trace records:":                  "7",
		"Tentatively showing last 0 crash trace records:":                    "0",
		"Tentatively showing last 99999999999999999999 crash trace records:": "99999999999999999999",
	} {
		n, ok := ParseHeader(line)
		assert.True(t, ok, "line %q", line)
		assert.Equal(t, want, n, "line %q", line)
	}
	for _, line := range []string{
		"",
		" Tentatively showing last 3 crash trace records:",
		"Tentatively showing last crash trace records:",
		"Tentatively showing last -1 crash trace records:",
	} {
		_, ok := ParseHeader(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("  1697040000123  4242 debug_trace_generated.c:57 main  start id str_1234 ")
	require.NoError(t, err)
	assert.Equal(t, &Record{
		Timestamp: 1697040000123,
		Pid:       4242,
		File:      "debug_trace_generated.c",
		Line:      57,
		Func:      "main",
		Message:   "start id str_1234 ",
	}, rec)

	rec, err = ParseRecord("1 2 src/a b.c:3 fn msg: with colon")
	require.NoError(t, err)
	assert.Equal(t, "src/a b.c", rec.File)
	assert.Equal(t, "msg: with colon", rec.Message)

	for _, line := range []string{
		"",
		"1 2 file.c:3 main",
		"x 2 file.c:3 main msg",
		"1 2 file.c 3 main msg",
		"1 2 file.c:3 ma-in msg",
	} {
		_, err := ParseRecord(line)
		assert.Error(t, err, "line %q", line)
	}

	rec, err = ParseRecord("99999999999999999999999 2 file.c:3 main msg")
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, &RangeError{"Timestamp", "99999999999999999999999"}, rangeErr)
	assert.EqualError(t, err, "Timestamp 99999999999999999999999 is out of range")
	assert.Equal(t, &Record{Pid: 2, File: "file.c", Line: 3, Func: "main", Message: "msg"}, rec)
}

func TestMessageDiffLogged(t *testing.T) {
	buf := new(bytes.Buffer)
	defer log.SetOutput(buf)()
	log.SetVerbosity(1)
	defer log.SetVerbosity(0)
	res := Validate([]string{"value 1234"}, []string{header(1), record(1, 1, 1, "value 1243")})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, buf.String(), "line 2 message diff:")
	assert.Contains(t, buf.String(), "value 12")
	assert.NotContains(t, res.Errors[0], "[-")
}

func TestMessageDiff(t *testing.T) {
	assert.Equal(t, "id [-1-]{+2+}", messageDiff("id 1", "id 2"))
	assert.Equal(t, "same", messageDiff("same", "same"))
	assert.Equal(t, "{+new+}", messageDiff("", "new"))
}

func FuzzParseRecord(f *testing.F) {
	f.Add("1 2 debug_trace_generated.c:3 main hello")
	f.Add("  10\t20 a.c:30 fn  msg with spaces  ")
	f.Add("1 2 :3 main m")
	f.Add("garbage")
	f.Fuzz(func(t *testing.T, line string) {
		rec, err := ParseRecord(line)
		if err != nil {
			return
		}
		again, err := ParseRecord(formatRecord(rec))
		if err != nil {
			t.Fatalf("failed to reparse %q (from %q): %v", formatRecord(rec), line, err)
		}
		if diff := cmp.Diff(rec, again); diff != "" {
			t.Fatalf("reparsed record differs for %q:\n%v", line, diff)
		}
	})
}
