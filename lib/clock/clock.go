// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time reads for testability. Production code injects
// Real(); tests inject Fake() with deterministic time control.
//
// Every production function that calls time.Now should accept a Clock
// parameter (or be a method on a struct with a Clock field) instead of
// calling the time package directly. The sync engine's merge rules
// compare timestamps taken through this interface, so test scenarios
// can construct exact concurrent-edit orderings.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
