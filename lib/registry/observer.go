// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Origin tags every registry mutation and notification with where the
// change came from. Observers use it to decide whether to propagate:
// a sync bridge forwards Local changes to the transport and must
// ignore Remote ones, which it just applied itself.
type Origin int

const (
	// OriginLocal marks a caller-initiated mutation on this device.
	OriginLocal Origin = iota

	// OriginRemote marks a mutation applied on behalf of the sync
	// transport.
	OriginRemote
)

// String returns "local" or "remote".
func (o Origin) String() string {
	if o == OriginLocal {
		return "local"
	}
	return "remote"
}

// Observer receives registry change notifications. Fan-out is
// synchronous, on the registry's owning sequence, in registration
// order. Observer methods must not mutate the registry reentrantly.
type Observer interface {
	// GroupAdded fires after a group enters the registry. The group
	// snapshot includes any tabs it was added with.
	GroupAdded(origin Origin, group tabgroup.Group)

	// GroupRemoved fires after a group and all its tabs leave the
	// registry. The snapshot is the last state before removal.
	GroupRemoved(origin Origin, removed tabgroup.Group)

	// GroupUpdated fires after any other mutation of a group. A zero
	// tabID means group-level metadata changed; a non-zero tabID
	// names the tab that was added, updated, moved, or removed.
	GroupUpdated(origin Origin, groupID ref.GroupID, tabID ref.TabID)
}
