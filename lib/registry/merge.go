// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"slices"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// MergeRemoteGroupMetadata reconciles an incoming remote copy of a
// group's metadata with the stored one. Last-write-wins by update
// time: the incoming copy applies only when its UpdateTime is
// strictly newer than the stored one, otherwise it is discarded and
// the stored value is returned unchanged. This makes the merge
// deterministic regardless of arrival order — commutative across two
// updates, idempotent for a repeated snapshot.
//
// Identity, replica class, tab list, and the local handle are never
// touched by a metadata merge. Returns the post-merge snapshot and
// whether the incoming copy was applied. False with a zero group
// means the group is not in the registry at all.
func (r *Registry) MergeRemoteGroupMetadata(id ref.GroupID, incoming tabgroup.Group) (tabgroup.Group, bool) {
	i := r.indexOf(id)
	if i < 0 {
		r.logger.Warn("registry: merge for unknown group", "group_id", id.String())
		return tabgroup.Group{}, false
	}
	stored := &r.groups[i]
	if !incoming.UpdateTime.After(stored.UpdateTime) {
		return stored.Clone(), false
	}
	stored.Title = incoming.Title
	stored.Color = incoming.Color
	stored.Position = incoming.Position
	stored.Pinned = incoming.Pinned
	stored.LastUpdater = incoming.LastUpdater
	stored.UpdateTime = incoming.UpdateTime
	r.notifyUpdated(OriginRemote, id, ref.TabID{})
	return stored.Clone(), true
}

// MergeRemoteTab reconciles an incoming remote tab with the registry.
// If the owning group is unknown the tab is not applied and the
// caller stages it as an orphan. If the tab is new to its group it is
// inserted at its wire position (appended when unset). If a copy
// already exists the merge is last-write-wins by update time, same
// rule as group metadata.
//
// Returns whether the owning group was found and whether the incoming
// tab was applied.
func (r *Registry) MergeRemoteTab(incoming tabgroup.Tab) (groupKnown, applied bool) {
	i := r.indexOf(incoming.GroupID)
	if i < 0 {
		return false, false
	}
	group := &r.groups[i]

	existing := group.TabByID(incoming.ID)
	if existing == nil {
		insertAt := incoming.Position
		if insertAt < 0 || insertAt > len(group.Tabs) {
			insertAt = len(group.Tabs)
		}
		group.Tabs = slices.Insert(group.Tabs, insertAt, incoming)
		for p := range group.Tabs {
			group.Tabs[p].Position = p
		}
		r.notifyUpdated(OriginRemote, group.ID, incoming.ID)
		return true, true
	}

	if !incoming.UpdateTime.After(existing.UpdateTime) {
		return true, false
	}
	existing.URL = incoming.URL
	existing.Title = incoming.Title
	existing.LastUpdater = incoming.LastUpdater
	existing.UpdateTime = incoming.UpdateTime

	from := group.IndexOfTab(incoming.ID)
	to := incoming.Position
	if to >= 0 && to < len(group.Tabs) && to != from {
		moved := group.Tabs[from]
		group.Tabs = slices.Delete(group.Tabs, from, from+1)
		group.Tabs = slices.Insert(group.Tabs, to, moved)
	}
	for p := range group.Tabs {
		group.Tabs[p].Position = p
	}
	r.notifyUpdated(OriginRemote, group.ID, incoming.ID)
	return true, true
}
