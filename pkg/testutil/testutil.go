// Copyright 2022 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package testutil

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

func IterCount() int {
	iters := 1000
	if testing.Short() {
		iters /= 10
	}
	if RaceEnabled {
		iters /= 10
	}
	return iters
}

// RandSource returns a time-seeded source, the seed is logged so that failures can be reproduced
// with TRACEFUZZ_SEED.
func RandSource(t *testing.T) rand.Source {
	seed := time.Now().UnixNano()
	if fixed := os.Getenv("TRACEFUZZ_SEED"); fixed != "" {
		seed, _ = strconv.ParseInt(fixed, 0, 64)
	}
	if os.Getenv("CI") != "" {
		seed = 0 // required for deterministic coverage reports
	}
	t.Logf("seed=%v", seed)
	return rand.NewSource(seed)
}

// RandWord returns a random non-empty word of lowercase letters and digits.
func RandWord(r *rand.Rand, maxLen int) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789_"
	buf := make([]byte, 1+r.Intn(maxLen))
	for i := range buf {
		buf[i] = chars[r.Intn(len(chars))]
	}
	return string(buf)
}

// Writer forwards writes to the test log, e.g. for log.SetOutput.
type Writer struct {
	testing.TB
}

func (w *Writer) Write(data []byte) (int, error) {
	w.TB.Logf("%s", data)
	return len(data), nil
}
