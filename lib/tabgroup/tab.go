// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package tabgroup

import (
	"slices"
	"time"

	"github.com/tabmesh/tabmesh/lib/ref"
)

// Tab is one synced tab inside a group. Identity (ID) is immutable
// once assigned; everything else can change from either a local edit
// or a remote one, and every change updates UpdateTime plus the
// LastUpdater attribution.
type Tab struct {
	// ID is the tab's globally unique identity. Unique across the
	// whole registry, not just the owning group.
	ID ref.TabID

	// GroupID is the back-reference to the owning group. Weak
	// relation: used for lookup, never for ownership.
	GroupID ref.GroupID

	// URL is the address to (re)open for this tab.
	URL string

	// Title is the page title last observed for this tab.
	Title string

	// Position is the tab's index within the group's ordering. Dense
	// 0..N-1 per group, unique, no gaps after any mutation.
	Position int

	// LocalID correlates this tab to an open tab in the current
	// tab-strip. Zero whenever the tab is not open in this process.
	// Never synced.
	LocalID ref.LocalTabID

	// Creator is the cache GUID of the device that created the tab.
	Creator ref.CacheGUID

	// LastUpdater is the cache GUID of the device that last wrote the
	// tab. Attribution only — never consulted for merges.
	LastUpdater ref.CacheGUID

	// CreationTime is when the tab entity was first created, as
	// reported by the creating device.
	CreationTime time.Time

	// UpdateTime is when the tab was last written, as reported by the
	// writing device. Last-write-wins merges compare this field.
	UpdateTime time.Time
}

// NormalizePositions sorts tabs by their current Position (ties broken
// by tab ID for determinism) and reassigns dense 0..N-1 positions in
// place. Call after any mutation that can leave gaps or duplicates,
// such as merging remote tabs that were numbered on another device.
func NormalizePositions(tabs []Tab) {
	slices.SortStableFunc(tabs, func(a, b Tab) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return compareStrings(a.ID.String(), b.ID.String())
	})
	for i := range tabs {
		tabs[i].Position = i
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
