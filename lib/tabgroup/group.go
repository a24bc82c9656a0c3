// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package tabgroup

import (
	"slices"
	"time"

	"github.com/tabmesh/tabmesh/lib/ref"
)

// Group is one synced tab group and the ordered tabs it owns.
//
// Identity (ID) and replica class (Collaboration present or not) are
// immutable once assigned. A group with a zero Collaboration is a
// private "saved" group synced to one account's devices; a group with
// a collaboration ID is shared across every member of that
// collaboration. The engine never converts one into the other in
// place — conversion is delete plus recreate under a fresh identity.
type Group struct {
	// ID is the group's globally unique identity, stable across
	// devices, renames, and open/close cycles.
	ID ref.GroupID

	// Title is the user-visible group name.
	Title string

	// Color is the group's display color from the fixed palette.
	Color Color

	// LocalID correlates this group to a tab-strip group in the
	// current process. Zero whenever the group is not open in any
	// window here. Never synced.
	LocalID ref.LocalGroupID

	// Position is an ordering hint among saved groups. Ignored for
	// shared groups.
	Position int

	// Pinned marks the group as pinned in the saved-groups surface.
	// Ignored for shared groups.
	Pinned bool

	// Collaboration identifies the sharing session this group belongs
	// to. Zero for private saved groups. Once set it never changes.
	Collaboration ref.CollaborationID

	// Creator is the cache GUID of the device that created the group.
	Creator ref.CacheGUID

	// LastUpdater is the cache GUID of the device that last wrote the
	// group's own metadata. Attribution only.
	LastUpdater ref.CacheGUID

	// CreationTime is when the group was first created, as reported by
	// the creating device.
	CreationTime time.Time

	// UpdateTime is when the group's metadata was last written, as
	// reported by the writing device. Last-write-wins merges compare
	// this field. Tab mutations carry their own timestamps and do not
	// touch the group's.
	UpdateTime time.Time

	// Tabs is the ordered list of tabs the group owns. Positions are
	// always dense 0..len(Tabs)-1.
	Tabs []Tab
}

// IsShared reports whether the group belongs to a collaboration.
func (g *Group) IsShared() bool { return !g.Collaboration.IsZero() }

// TabByID returns a pointer to the tab with the given ID, or nil.
// The pointer aliases the group's Tabs slice; it is invalidated by
// any mutation of the slice.
func (g *Group) TabByID(id ref.TabID) *Tab {
	for i := range g.Tabs {
		if g.Tabs[i].ID == id {
			return &g.Tabs[i]
		}
	}
	return nil
}

// TabByLocalID returns a pointer to the tab with the given local
// handle, or nil. Same aliasing caveat as TabByID.
func (g *Group) TabByLocalID(localID ref.LocalTabID) *Tab {
	if localID.IsZero() {
		return nil
	}
	for i := range g.Tabs {
		if g.Tabs[i].LocalID == localID {
			return &g.Tabs[i]
		}
	}
	return nil
}

// IndexOfTab returns the index of the tab with the given ID in the
// Tabs slice, or -1.
func (g *Group) IndexOfTab(id ref.TabID) int {
	for i := range g.Tabs {
		if g.Tabs[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the group. Registry reads hand out
// clones so callers can never mutate authoritative state through a
// returned value.
func (g *Group) Clone() Group {
	copied := *g
	copied.Tabs = slices.Clone(g.Tabs)
	return copied
}

// Normalize restores the dense-position invariant on the group's tabs.
func (g *Group) Normalize() {
	NormalizePositions(g.Tabs)
}
