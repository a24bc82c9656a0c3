// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// FromGroup builds the wire entity for a group's own metadata. Tabs
// are not included — each tab is its own entity (see FromTab). The
// group's local ID and collaboration ID never enter the entity: the
// first is process-local, the second travels as transport metadata.
func FromGroup(group tabgroup.Group) Entity {
	return Entity{
		GUID:           group.ID.String(),
		CreationTimeUS: TimeToMicros(group.CreationTime),
		UpdateTimeUS:   TimeToMicros(group.UpdateTime),
		Creator:        group.Creator,
		LastUpdater:    group.LastUpdater,
		Group: &GroupPayload{
			Title:    group.Title,
			Color:    uint8(group.Color),
			Position: group.Position,
			Pinned:   group.Pinned,
		},
	}
}

// FromTab builds the wire entity for one tab.
func FromTab(tab tabgroup.Tab) Entity {
	position := tab.Position
	return Entity{
		GUID:           tab.ID.String(),
		CreationTimeUS: TimeToMicros(tab.CreationTime),
		UpdateTimeUS:   TimeToMicros(tab.UpdateTime),
		Creator:        tab.Creator,
		LastUpdater:    tab.LastUpdater,
		Tab: &TabPayload{
			URL:             tab.URL,
			Title:           tab.Title,
			OwningGroupGUID: tab.GroupID.String(),
			Position:        &position,
		},
	}
}

// ToGroup converts a group entity back to a model value. The returned
// group has no tabs — the caller attaches tab entities separately.
// The title is sanitized and out-of-palette colors from newer clients
// clamp to grey rather than failing, so a hostile peer or a palette
// extension never wedges older devices.
func (e *Entity) ToGroup() (tabgroup.Group, error) {
	if e.Group == nil {
		return tabgroup.Group{}, fmt.Errorf("schema: entity %s is not a group", e.GUID)
	}
	id, err := ref.ParseGroupID(e.GUID)
	if err != nil {
		return tabgroup.Group{}, fmt.Errorf("schema: group entity: %w", err)
	}
	return tabgroup.Group{
		ID:           id,
		Title:        tabgroup.SanitizeTitle(e.Group.Title),
		Color:        tabgroup.ClampColor(tabgroup.Color(e.Group.Color)),
		Position:     e.Group.Position,
		Pinned:       e.Group.Pinned,
		Creator:      e.Creator,
		LastUpdater:  e.LastUpdater,
		CreationTime: MicrosToTime(e.CreationTimeUS),
		UpdateTime:   MicrosToTime(e.UpdateTimeUS),
	}, nil
}

// ToTab converts a tab entity back to a model value. The title is
// sanitized; a nil wire position becomes -1, which the registry
// interprets as "append at the end".
func (e *Entity) ToTab() (tabgroup.Tab, error) {
	if e.Tab == nil {
		return tabgroup.Tab{}, fmt.Errorf("schema: entity %s is not a tab", e.GUID)
	}
	id, err := ref.ParseTabID(e.GUID)
	if err != nil {
		return tabgroup.Tab{}, fmt.Errorf("schema: tab entity: %w", err)
	}
	groupID, err := ref.ParseGroupID(e.Tab.OwningGroupGUID)
	if err != nil {
		return tabgroup.Tab{}, fmt.Errorf("schema: tab entity %s owner: %w", e.GUID, err)
	}
	position := -1
	if e.Tab.Position != nil {
		position = *e.Tab.Position
	}
	return tabgroup.Tab{
		ID:           id,
		GroupID:      groupID,
		URL:          e.Tab.URL,
		Title:        tabgroup.SanitizeTitle(e.Tab.Title),
		Position:     position,
		Creator:      e.Creator,
		LastUpdater:  e.LastUpdater,
		CreationTime: MicrosToTime(e.CreationTimeUS),
		UpdateTime:   MicrosToTime(e.UpdateTimeUS),
	}, nil
}
