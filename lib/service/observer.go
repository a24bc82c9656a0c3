// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Observer is the UI-facing notification surface. All callbacks run on
// the engine sequence. Group values are snapshots; holding on to them
// is safe, mutating them has no effect.
type Observer interface {
	// Initialized fires once, after the durable stores have loaded and
	// the registry is seeded. An observer added later gets it
	// immediately. No other callback precedes it.
	Initialized()

	// TabGroupAdded announces a group the UI has not seen: a local
	// creation, or a remote group once it has content to show.
	TabGroupAdded(group tabgroup.Group, origin registry.Origin)

	// TabGroupUpdated announces any change to a visible group —
	// metadata, tab content, tab order.
	TabGroupUpdated(group tabgroup.Group, origin registry.Origin)

	// TabGroupRemoved announces a visible group's deletion. The
	// snapshot is the group's last state.
	TabGroupRemoved(removed tabgroup.Group, origin registry.Origin)
}
