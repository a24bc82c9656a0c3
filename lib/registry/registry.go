// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"log/slog"
	"slices"

	"github.com/tabmesh/tabmesh/lib/clock"
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Registry is the single authoritative ordered collection of tab
// groups on this device. Construct with New. Not safe for concurrent
// use — all access happens on the owning sequence.
type Registry struct {
	// groups preserves insertion order. Lookup is a linear scan; the
	// collection is bounded by how many groups one user keeps, so a
	// scan beats the bookkeeping of a parallel index.
	groups []tabgroup.Group

	observers []Observer
	clock     clock.Clock
	logger    *slog.Logger
}

// Config holds the registry's collaborators. Clock is required; a nil
// Logger discards output.
type Config struct {
	// Clock stamps the update time of every local-origin mutation.
	Clock clock.Clock

	// Logger receives warnings about harmless precondition misses
	// (updating a group that no longer exists, and the like).
	Logger *slog.Logger
}

// New returns an empty registry.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	return &Registry{clock: c, logger: logger}
}

// AddObserver registers an observer. Notifications arrive in
// registration order. Adding the same observer twice registers it
// twice.
func (r *Registry) AddObserver(observer Observer) {
	r.observers = append(r.observers, observer)
}

// RemoveObserver unregisters the first registration of observer.
// No-op if it was never registered.
func (r *Registry) RemoveObserver(observer Observer) {
	for i, existing := range r.observers {
		if existing == observer {
			r.observers = slices.Delete(r.observers, i, i+1)
			return
		}
	}
}

// Len returns the number of groups in the registry, including groups
// that currently have zero tabs.
func (r *Registry) Len() int { return len(r.groups) }

// indexOf returns the slice index of the group with the given ID,
// or -1.
func (r *Registry) indexOf(id ref.GroupID) int {
	for i := range r.groups {
		if r.groups[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfLocal returns the slice index of the group with the given
// local handle, or -1.
func (r *Registry) indexOfLocal(localID ref.LocalGroupID) int {
	if localID.IsZero() {
		return -1
	}
	for i := range r.groups {
		if r.groups[i].LocalID == localID {
			return i
		}
	}
	return -1
}

// Get returns a copy of the group with the given ID.
func (r *Registry) Get(id ref.GroupID) (tabgroup.Group, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.groups[i].Clone(), true
	}
	return tabgroup.Group{}, false
}

// GetByLocalID returns a copy of the group currently open under the
// given local handle.
func (r *Registry) GetByLocalID(localID ref.LocalGroupID) (tabgroup.Group, bool) {
	if i := r.indexOfLocal(localID); i >= 0 {
		return r.groups[i].Clone(), true
	}
	return tabgroup.Group{}, false
}

// All returns copies of every group in insertion order, including
// transiently empty ones. Callers that feed UI should filter empty
// groups; the service façade does exactly that.
func (r *Registry) All() []tabgroup.Group {
	result := make([]tabgroup.Group, 0, len(r.groups))
	for i := range r.groups {
		result = append(result, r.groups[i].Clone())
	}
	return result
}

// FindTab locates a tab anywhere in the registry by its ID and
// returns a copy plus its owning group's ID.
func (r *Registry) FindTab(id ref.TabID) (tabgroup.Tab, ref.GroupID, bool) {
	for i := range r.groups {
		if tab := r.groups[i].TabByID(id); tab != nil {
			return *tab, r.groups[i].ID, true
		}
	}
	return tabgroup.Tab{}, ref.GroupID{}, false
}

// Add inserts a group. Idempotent: if a group with the same ID is
// already present the call is a no-op and returns false. The group's
// tab positions are normalized on the way in.
func (r *Registry) Add(origin Origin, group tabgroup.Group) bool {
	if group.ID.IsZero() {
		r.logger.Warn("registry: add with zero group ID dropped")
		return false
	}
	if r.indexOf(group.ID) >= 0 {
		return false
	}
	group.Normalize()
	r.groups = append(r.groups, group)
	snapshot := group.Clone()
	for _, observer := range r.observers {
		observer.GroupAdded(origin, snapshot)
	}
	return true
}

// Remove deletes the group with the given ID together with all its
// tabs, and returns the removed snapshot. No-op (false) if absent.
func (r *Registry) Remove(origin Origin, id ref.GroupID) (tabgroup.Group, bool) {
	i := r.indexOf(id)
	if i < 0 {
		r.logger.Warn("registry: remove of unknown group", "group_id", id.String())
		return tabgroup.Group{}, false
	}
	return r.removeAt(origin, i), true
}

// RemoveByLocalID is Remove keyed by the local tab-strip handle.
func (r *Registry) RemoveByLocalID(origin Origin, localID ref.LocalGroupID) (tabgroup.Group, bool) {
	i := r.indexOfLocal(localID)
	if i < 0 {
		r.logger.Warn("registry: remove of unknown local group", "local_id", localID.String())
		return tabgroup.Group{}, false
	}
	return r.removeAt(origin, i), true
}

func (r *Registry) removeAt(origin Origin, i int) tabgroup.Group {
	removed := r.groups[i].Clone()
	r.groups = slices.Delete(r.groups, i, i+1)
	for _, observer := range r.observers {
		observer.GroupRemoved(origin, removed)
	}
	return removed
}

// UpdateVisualData sets the group's title and color. If neither value
// changes the call is a no-op and no notification fires — redundant
// remote echoes must not ripple into the UI. On local-origin changes
// the group's update time is stamped from the registry clock.
func (r *Registry) UpdateVisualData(origin Origin, id ref.GroupID, title string, color tabgroup.Color) {
	i := r.indexOf(id)
	if i < 0 {
		r.logger.Warn("registry: visual update for unknown group", "group_id", id.String())
		return
	}
	group := &r.groups[i]
	if group.Title == title && group.Color == color {
		return
	}
	group.Title = title
	group.Color = color
	if origin == OriginLocal {
		group.UpdateTime = r.clock.Now()
	}
	r.notifyUpdated(origin, id, ref.TabID{})
}

// SetPinned sets the saved-group pinned flag and position hint.
func (r *Registry) SetPinned(origin Origin, id ref.GroupID, pinned bool, position int) {
	i := r.indexOf(id)
	if i < 0 {
		r.logger.Warn("registry: pin update for unknown group", "group_id", id.String())
		return
	}
	group := &r.groups[i]
	if group.Pinned == pinned && group.Position == position {
		return
	}
	group.Pinned = pinned
	group.Position = position
	if origin == OriginLocal {
		group.UpdateTime = r.clock.Now()
	}
	r.notifyUpdated(origin, id, ref.TabID{})
}

// AddTab inserts a tab into the named group at the tab's Position
// (appended when Position is negative or past the end) and restores
// dense positions. No-op if the group is unknown — the caller decides
// whether that makes the tab an orphan.
func (r *Registry) AddTab(origin Origin, groupID ref.GroupID, tab tabgroup.Tab) bool {
	i := r.indexOf(groupID)
	if i < 0 {
		r.logger.Warn("registry: add tab to unknown group",
			"group_id", groupID.String(), "tab_id", tab.ID.String())
		return false
	}
	group := &r.groups[i]
	if group.TabByID(tab.ID) != nil {
		return false
	}
	tab.GroupID = groupID
	if origin == OriginLocal {
		tab.UpdateTime = r.clock.Now()
		if tab.CreationTime.IsZero() {
			tab.CreationTime = tab.UpdateTime
		}
	}
	insertAt := tab.Position
	if insertAt < 0 || insertAt > len(group.Tabs) {
		insertAt = len(group.Tabs)
	}
	group.Tabs = slices.Insert(group.Tabs, insertAt, tab)
	for p := range group.Tabs {
		group.Tabs[p].Position = p
	}
	r.notifyUpdated(origin, groupID, tab.ID)
	return true
}

// RemoveTab deletes a tab from its group and restores dense
// positions. The group itself stays in the registry even when this
// empties it: remote tab deletions never cascade into group
// deletions, and local empty-group cleanup is the service's call.
func (r *Registry) RemoveTab(origin Origin, groupID ref.GroupID, tabID ref.TabID) bool {
	i := r.indexOf(groupID)
	if i < 0 {
		r.logger.Warn("registry: remove tab from unknown group",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	group := &r.groups[i]
	at := group.IndexOfTab(tabID)
	if at < 0 {
		r.logger.Warn("registry: remove of unknown tab",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	group.Tabs = slices.Delete(group.Tabs, at, at+1)
	for p := range group.Tabs {
		group.Tabs[p].Position = p
	}
	r.notifyUpdated(origin, groupID, tabID)
	return true
}

// MoveTab moves a tab to the given index within its group, shifting
// its neighbors. The index is clamped to the valid range.
func (r *Registry) MoveTab(origin Origin, groupID ref.GroupID, tabID ref.TabID, toIndex int) bool {
	i := r.indexOf(groupID)
	if i < 0 {
		r.logger.Warn("registry: move tab in unknown group",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	group := &r.groups[i]
	from := group.IndexOfTab(tabID)
	if from < 0 {
		r.logger.Warn("registry: move of unknown tab",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(group.Tabs) {
		toIndex = len(group.Tabs) - 1
	}
	if from == toIndex {
		return false
	}
	moved := group.Tabs[from]
	group.Tabs = slices.Delete(group.Tabs, from, from+1)
	group.Tabs = slices.Insert(group.Tabs, toIndex, moved)
	for p := range group.Tabs {
		group.Tabs[p].Position = p
	}
	if origin == OriginLocal {
		group.Tabs[toIndex].UpdateTime = r.clock.Now()
	}
	r.notifyUpdated(origin, groupID, tabID)
	return true
}

// UpdateTab replaces a tab's content fields (URL, title) while
// keeping its identity, position, and local handle. On local-origin
// changes the tab's update time is stamped. No-op without
// notification when nothing changes.
func (r *Registry) UpdateTab(origin Origin, groupID ref.GroupID, tabID ref.TabID, url, title string) bool {
	i := r.indexOf(groupID)
	if i < 0 {
		r.logger.Warn("registry: update tab in unknown group",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	tab := r.groups[i].TabByID(tabID)
	if tab == nil {
		r.logger.Warn("registry: update of unknown tab",
			"group_id", groupID.String(), "tab_id", tabID.String())
		return false
	}
	if tab.URL == url && tab.Title == title {
		return false
	}
	tab.URL = url
	tab.Title = title
	if origin == OriginLocal {
		tab.UpdateTime = r.clock.Now()
	}
	r.notifyUpdated(origin, groupID, tabID)
	return true
}

// StampAttribution records the last updater of a group or, when tabID
// is non-zero, of one tab. Attribution is bookkeeping, not content:
// no notification fires and no timestamp changes.
func (r *Registry) StampAttribution(groupID ref.GroupID, tabID ref.TabID, updater ref.CacheGUID) {
	i := r.indexOf(groupID)
	if i < 0 {
		return
	}
	if tabID.IsZero() {
		r.groups[i].LastUpdater = updater
		return
	}
	if tab := r.groups[i].TabByID(tabID); tab != nil {
		tab.LastUpdater = updater
	}
}

// OpenInTabStrip records the local tab-strip handle for a group. Only
// the correlation changes; content fields and timestamps are
// untouched.
func (r *Registry) OpenInTabStrip(id ref.GroupID, localID ref.LocalGroupID) {
	i := r.indexOf(id)
	if i < 0 {
		r.logger.Warn("registry: open of unknown group", "group_id", id.String())
		return
	}
	if r.groups[i].LocalID == localID {
		return
	}
	r.groups[i].LocalID = localID
	r.notifyUpdated(OriginLocal, id, ref.TabID{})
}

// CloseInTabStrip clears the local handle of the group opened under
// localID, along with the local handles of all its tabs — local IDs
// never outlive the tab-strip session that created them.
func (r *Registry) CloseInTabStrip(localID ref.LocalGroupID) {
	i := r.indexOfLocal(localID)
	if i < 0 {
		r.logger.Warn("registry: close of unknown local group", "local_id", localID.String())
		return
	}
	group := &r.groups[i]
	group.LocalID = 0
	for t := range group.Tabs {
		group.Tabs[t].LocalID = 0
	}
	r.notifyUpdated(OriginLocal, group.ID, ref.TabID{})
}

// SetTabLocalID records the local tab-strip handle for one tab.
func (r *Registry) SetTabLocalID(groupID ref.GroupID, tabID ref.TabID, localID ref.LocalTabID) {
	i := r.indexOf(groupID)
	if i < 0 {
		return
	}
	if tab := r.groups[i].TabByID(tabID); tab != nil {
		tab.LocalID = localID
	}
}

// LoadStoredEntries seeds the registry from durable storage: groups
// first, then their tabs matched by group ID. Tabs whose group is not
// in the load set are returned as orphans for the caller to stage —
// they are retained, not dropped. No notifications fire; loading
// precedes the first observer in practice, and the service gates its
// own initialized signal on this call.
func (r *Registry) LoadStoredEntries(groups []tabgroup.Group, tabs []tabgroup.Tab) []tabgroup.Tab {
	for _, group := range groups {
		if group.ID.IsZero() || r.indexOf(group.ID) >= 0 {
			continue
		}
		group.Tabs = nil
		r.groups = append(r.groups, group)
	}
	var orphans []tabgroup.Tab
	for _, tab := range tabs {
		i := r.indexOf(tab.GroupID)
		if i < 0 {
			orphans = append(orphans, tab)
			continue
		}
		group := &r.groups[i]
		if group.TabByID(tab.ID) == nil {
			group.Tabs = append(group.Tabs, tab)
		}
	}
	for i := range r.groups {
		r.groups[i].Normalize()
	}
	r.logger.Info("registry: loaded stored entries",
		"groups", len(groups), "tabs", len(tabs), "orphan_tabs", len(orphans))
	return orphans
}

func (r *Registry) notifyUpdated(origin Origin, groupID ref.GroupID, tabID ref.TabID) {
	for _, observer := range r.observers {
		observer.GroupUpdated(origin, groupID, tabID)
	}
}
