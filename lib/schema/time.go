// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// windowsEpoch is 1601-01-01 00:00:00 UTC, the epoch the wire format
// counts microseconds from.
var windowsEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToMicros converts a Go time to Windows-epoch microseconds.
// Sub-microsecond precision is truncated. The zero time maps to 0.
func TimeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Sub(windowsEpoch).Microseconds()
}

// MicrosToTime converts Windows-epoch microseconds back to a Go time
// in UTC. Zero maps to the zero time, so unset timestamps survive the
// round trip as unset.
func MicrosToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return windowsEpoch.Add(time.Duration(us) * time.Microsecond)
}
