// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package syncbridge

import (
	"slices"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// orphanBuffer stages tabs whose owning group has not arrived yet.
// Bounded by the number of in-flight tabs; entries leave when their
// group shows up, when a tombstone arrives for them, or when sync for
// the bridge's domain is disabled.
type orphanBuffer struct {
	tabs []tabgroup.Tab
}

// add stages a tab, replacing any staged copy with the same ID.
func (o *orphanBuffer) add(tab tabgroup.Tab) {
	for i := range o.tabs {
		if o.tabs[i].ID == tab.ID {
			o.tabs[i] = tab
			return
		}
	}
	o.tabs = append(o.tabs, tab)
}

// take removes and returns every staged tab owned by groupID, in
// staging order.
func (o *orphanBuffer) take(groupID ref.GroupID) []tabgroup.Tab {
	var taken []tabgroup.Tab
	o.tabs = slices.DeleteFunc(o.tabs, func(tab tabgroup.Tab) bool {
		if tab.GroupID == groupID {
			taken = append(taken, tab)
			return true
		}
		return false
	})
	return taken
}

// remove drops the staged tab with the given ID, reporting whether it
// was present.
func (o *orphanBuffer) remove(id ref.TabID) bool {
	for i := range o.tabs {
		if o.tabs[i].ID == id {
			o.tabs = slices.Delete(o.tabs, i, i+1)
			return true
		}
	}
	return false
}

func (o *orphanBuffer) clear() { o.tabs = nil }

func (o *orphanBuffer) len() int { return len(o.tabs) }
