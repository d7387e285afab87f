// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tracecheck validates a crash trace ring buffer dump against the ground-truth
// messages recorded by the generated program.
//
// The dump starts with a header that declares the number of records,
// every following line is a record of the form:
//
//	<timestamp> <pid> <file>:<line> <function> <message>
//
// Records must come from a single process, in non-decreasing timestamp order,
// from consecutive lines of function main in the generated source file,
// and carry exactly the ground-truth messages in the same order.
package tracecheck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tracefuzz/tracefuzz/pkg/log"
	"github.com/tracefuzz/tracefuzz/pkg/stat"
)

const (
	ExpectedFile = "debug_trace_generated.c"
	ExpectedFunc = "main"
)

type Record struct {
	Timestamp uint64
	Pid       uint64
	File      string
	Line      int
	Func      string
	Message   string
}

type Result struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
	// MessageCount is the number of parsed records, whether they matched or not.
	MessageCount int `json:"message_count"`
}

var (
	headerRe = regexp.MustCompile(`^Tentatively showing last (\d+) crash trace records:`)
	recordRe = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s+([^:]+):(\d+)\s+(\w+)\s+(.*)$`)
)

var (
	statRecords = stat.New("validated records", "Number of parsed crash trace records",
		stat.Console, stat.Prometheus("tracefuzz_validated_records"))
	statValidationErrors = stat.New("validation errors", "Number of crash trace validation errors",
		stat.Console, stat.Prometheus("tracefuzz_validation_errors"))
)

// ParseHeader returns the number of records declared by the dump header
// as a decimal string without leading zeros, so that any count can be reported.
// Trailing text after the header is ignored.
func ParseHeader(line string) (string, bool) {
	match := headerRe.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	count := strings.TrimLeft(match[1], "0")
	if count == "" {
		count = "0"
	}
	return count, true
}

// RangeError is returned by ParseRecord for a well-formed line with a numeric field
// that does not fit into Record. The record is returned along with the error,
// the field is left zero.
type RangeError struct {
	Field string
	Value string
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("%v %v is out of range", err.Field, err.Value)
}

// ParseRecord parses a single dump line.
func ParseRecord(line string) (*Record, error) {
	rec, overflow := parseRecord(line)
	if rec == nil {
		return nil, fmt.Errorf("invalid trace format: %v", line)
	}
	if len(overflow) != 0 {
		return rec, overflow[0]
	}
	return rec, nil
}

func parseRecord(line string) (*Record, []*RangeError) {
	match := recordRe.FindStringSubmatch(line)
	if match == nil {
		return nil, nil
	}
	rec := &Record{
		File:    match[3],
		Func:    match[5],
		Message: match[6],
	}
	// The regexp allows only digits, so parsing can fail only on overflow.
	var overflow []*RangeError
	if ts, err := strconv.ParseUint(match[1], 10, 64); err == nil {
		rec.Timestamp = ts
	} else {
		overflow = append(overflow, &RangeError{fieldTimestamp, match[1]})
	}
	if pid, err := strconv.ParseUint(match[2], 10, 64); err == nil {
		rec.Pid = pid
	} else {
		overflow = append(overflow, &RangeError{fieldPid, match[2]})
	}
	if n, err := strconv.Atoi(match[4]); err == nil {
		rec.Line = n
	} else {
		overflow = append(overflow, &RangeError{fieldLine, match[4]})
	}
	return rec, overflow
}

const (
	fieldTimestamp = "Timestamp"
	fieldPid       = "PID"
	fieldLine      = "Line number"
)

// Validate checks dump lines against the check (ground-truth) lines.
// Line-count problems are fatal and leave MessageCount at 0,
// all per-record problems are recorded and checking continues.
func Validate(check, dump []string) *Result {
	res := validate(check, dump)
	res.Success = len(res.Errors) == 0
	statRecords.Add(res.MessageCount)
	statValidationErrors.Add(len(res.Errors))
	return res
}

func validate(check, dump []string) *Result {
	res := &Result{Errors: []string{}}
	if len(dump) == 0 {
		res.Errors = append(res.Errors, "dump is empty")
		return res
	}
	declared, ok := ParseHeader(dump[0])
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("Invalid header format: %v", dump[0]))
		return res
	}
	body := dump[1:]
	if declared != strconv.Itoa(len(check)) {
		res.Errors = append(res.Errors, fmt.Sprintf("Header says %v records but check file has %v lines",
			declared, len(check)))
	}
	if len(body) != len(check) {
		res.Errors = append(res.Errors, fmt.Sprintf("Expected %v trace lines but got %v",
			len(check), len(body)))
		return res
	}
	var (
		prevTimestamp uint64
		firstPid      uint64
		expectedLine  int
		parsed        bool
		// Baselines taken from a field that was out of range are not compared against.
		pidKnown  bool
		lineKnown bool
	)
	for i, line := range body {
		// Line number in the dump file, the header is line 1.
		lineno := i + 2
		errorf := func(msg string, args ...any) {
			res.Errors = append(res.Errors, fmt.Sprintf("Line %v: ", lineno)+fmt.Sprintf(msg, args...))
		}
		rec, overflow := parseRecord(line)
		if rec == nil {
			errorf("Invalid trace format: %v", line)
			continue
		}
		bad := make(map[string]bool)
		for _, err := range overflow {
			errorf("%v", err)
			bad[err.Field] = true
		}
		if !bad[fieldTimestamp] {
			if rec.Timestamp < prevTimestamp {
				errorf("Timestamp %v is not greater than previous %v", rec.Timestamp, prevTimestamp)
			}
			prevTimestamp = rec.Timestamp
		}
		if !parsed {
			firstPid, pidKnown = rec.Pid, !bad[fieldPid]
			expectedLine, lineKnown = rec.Line, !bad[fieldLine]
			parsed = true
		} else if pidKnown && !bad[fieldPid] && rec.Pid != firstPid {
			errorf("PID %v differs from expected %v", rec.Pid, firstPid)
		}
		if rec.File != ExpectedFile {
			errorf("Filename '%v' should be '%v'", rec.File, ExpectedFile)
		}
		if lineKnown && !bad[fieldLine] && rec.Line != expectedLine {
			errorf("Line number %v should be %v", rec.Line, expectedLine)
		}
		expectedLine++
		if rec.Func != ExpectedFunc {
			errorf("Function '%v' should be '%v'", rec.Func, ExpectedFunc)
		}
		got, want := strings.TrimSpace(rec.Message), strings.TrimSpace(check[i])
		if got != want {
			errorf("Message mismatch: expected %q, got %q", want, got)
			if log.V(1) {
				log.Logf(1, "line %v message diff:\n%v", lineno, messageDiff(want, got))
			}
		}
		res.MessageCount++
	}
	return res
}

// messageDiff renders a character diff with deletions as [-text-] and insertions as {+text+}.
func messageDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))
	buf := new(strings.Builder)
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(buf, "[-%v-]", diff.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(buf, "{+%v+}", diff.Text)
		default:
			buf.WriteString(diff.Text)
		}
	}
	return buf.String()
}
