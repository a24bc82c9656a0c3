// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package tabgroup defines the value types at the heart of the sync
// engine: a Group, the ordered Tabs it owns, and the merge-relevant
// metadata on both (timestamps and device attribution).
//
// Ownership flows strictly Group→Tab: a tab's lifetime never exceeds
// its group's, and a tab's GroupID back-reference is a weak relation
// used for lookup only. Within one group, tab positions always form a
// dense 0..N-1 ordering; NormalizePositions restores that invariant
// after any mutation that could disturb it.
//
// Values in this package are plain data. All mutation discipline
// (observer notifications, merge rules, local/remote origin tracking)
// lives in lib/registry.
package tabgroup
