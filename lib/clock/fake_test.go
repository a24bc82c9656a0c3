// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClockStandsStill(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)
	if !fake.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", fake.Now(), start)
	}
	if !fake.Now().Equal(fake.Now()) {
		t.Error("successive Now() calls returned different times")
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)
	fake.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !fake.Now().Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", fake.Now(), want)
	}
}

func TestFakeClockAdvanceNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Advance(-1) did not panic")
		}
	}()
	Fake(time.Now()).Advance(-time.Second)
}

func TestFakeClockSetMovesBackwards(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)
	earlier := start.Add(-time.Hour)
	fake.Set(earlier)
	if !fake.Now().Equal(earlier) {
		t.Errorf("Now() after Set = %v, want %v", fake.Now(), earlier)
	}
}

func TestRealClockProgresses(t *testing.T) {
	real := Real()
	before := real.Now()
	if real.Now().Before(before) {
		t.Error("real clock moved backwards")
	}
}
