// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tabmesh/tabmesh/lib/codec"
	"github.com/tabmesh/tabmesh/lib/ref"
)

// Entity is one wire record: a group's metadata or a single tab.
// Exactly one of Group and Tab is set. The GUID doubles as the
// storage key in the durable store and as the client tag input for
// the sync transport.
type Entity struct {
	// GUID is the entity's UUID — a group ID for group entities, a
	// tab ID for tab entities. Groups and tabs share this namespace.
	GUID string `cbor:"guid"`

	// CreationTimeUS is the creation time in Windows-epoch
	// microseconds, as reported by the creating device.
	CreationTimeUS int64 `cbor:"creation_time_us"`

	// UpdateTimeUS is the last-write time in Windows-epoch
	// microseconds, as reported by whichever replica wrote last.
	UpdateTimeUS int64 `cbor:"update_time_us"`

	// Creator is the cache GUID of the creating device. Attribution
	// only; empty when unknown.
	Creator ref.CacheGUID `cbor:"creator_cache_guid,omitempty"`

	// LastUpdater is the cache GUID of the last writing device.
	// Attribution only; empty when unknown.
	LastUpdater ref.CacheGUID `cbor:"last_updater_cache_guid,omitempty"`

	// Group is the group payload. Nil for tab entities.
	Group *GroupPayload `cbor:"group,omitempty"`

	// Tab is the tab payload. Nil for group entities.
	Tab *TabPayload `cbor:"tab,omitempty"`
}

// GroupPayload carries a group's own metadata. Tabs are separate
// entities referencing the group by GUID.
type GroupPayload struct {
	// Title is the user-visible group name.
	Title string `cbor:"title"`

	// Color is the palette index (0..8).
	Color uint8 `cbor:"color"`

	// Position is the ordering hint among saved groups.
	Position int `cbor:"position,omitempty"`

	// Pinned marks the group as pinned in the saved-groups surface.
	Pinned bool `cbor:"pinned,omitempty"`
}

// TabPayload carries one tab.
type TabPayload struct {
	// URL is the address to (re)open.
	URL string `cbor:"url"`

	// Title is the page title.
	Title string `cbor:"title,omitempty"`

	// OwningGroupGUID is the GUID of the group entity this tab
	// belongs to.
	OwningGroupGUID string `cbor:"owning_group_guid"`

	// Position is the tab's index within the group ordering. Nil when
	// the writing device did not assign one; the receiver appends.
	Position *int `cbor:"position,omitempty"`
}

// IsGroup reports whether the entity carries a group payload.
func (e *Entity) IsGroup() bool { return e.Group != nil }

// IsTab reports whether the entity carries a tab payload.
func (e *Entity) IsTab() bool { return e.Tab != nil }

// StorageKey returns the durable-store key for the entity: its GUID.
func (e *Entity) StorageKey() string { return e.GUID }

// Validate checks the structural invariants every entity must satisfy
// before it is applied: a parseable non-nil UUID, and exactly one
// payload. Tab entities additionally need a parseable owning group
// GUID. Entities failing validation are rejected, never applied.
func (e *Entity) Validate() error {
	parsed, err := uuid.Parse(e.GUID)
	if err != nil {
		return fmt.Errorf("schema: entity GUID %q: %w", e.GUID, err)
	}
	if parsed == uuid.Nil {
		return fmt.Errorf("schema: entity GUID is the nil UUID")
	}
	switch {
	case e.Group == nil && e.Tab == nil:
		return fmt.Errorf("schema: entity %s has neither group nor tab payload", e.GUID)
	case e.Group != nil && e.Tab != nil:
		return fmt.Errorf("schema: entity %s has both group and tab payloads", e.GUID)
	}
	if e.Tab != nil {
		owner, err := uuid.Parse(e.Tab.OwningGroupGUID)
		if err != nil {
			return fmt.Errorf("schema: tab %s owning group GUID %q: %w", e.GUID, e.Tab.OwningGroupGUID, err)
		}
		if owner == uuid.Nil {
			return fmt.Errorf("schema: tab %s owning group GUID is the nil UUID", e.GUID)
		}
	}
	return nil
}

// Encode serializes the entity with the engine's deterministic CBOR
// codec. Equal entities always produce identical bytes.
func (e *Entity) Encode() ([]byte, error) {
	data, err := codec.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("schema: encoding entity %s: %w", e.GUID, err)
	}
	return data, nil
}

// Decode deserializes an entity from CBOR bytes. The result is not
// validated; call Validate before applying it.
func Decode(data []byte) (Entity, error) {
	var e Entity
	if err := codec.Unmarshal(data, &e); err != nil {
		return Entity{}, fmt.Errorf("schema: decoding entity: %w", err)
	}
	return e, nil
}
