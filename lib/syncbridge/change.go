// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package syncbridge

import (
	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/schema"
)

// ChangeType classifies one remote entity change.
type ChangeType uint8

const (
	// ChangeAdd introduces an entity this client has not seen.
	ChangeAdd ChangeType = iota

	// ChangeUpdate carries a new version of a known entity.
	ChangeUpdate

	// ChangeDelete tombstones an entity. Only the storage key is set.
	ChangeDelete
)

func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "add"
	case ChangeUpdate:
		return "update"
	case ChangeDelete:
		return "delete"
	}
	return "unknown"
}

// EntityChange is one element of a remote change batch, and also the
// form in which a bridge hands entities back for commit.
type EntityChange struct {
	// Type says whether the entity is new, updated, or deleted.
	Type ChangeType

	// StorageKey identifies the entity. For deletes it is the only
	// identifying field; for adds and updates it may be left empty, in
	// which case the entity's own key applies.
	StorageKey string

	// Entity is the wire payload. Zero for deletes.
	Entity schema.Entity

	// Collaboration is the transport-level collaboration the change
	// belongs to. Zero on the private feed; always set on the shared
	// feed. It never travels inside the entity payload.
	Collaboration ref.CollaborationID
}

// Key returns the change's storage key, falling back to the entity's
// own key when StorageKey was not filled in.
func (c EntityChange) Key() string {
	if c.StorageKey != "" {
		return c.StorageKey
	}
	return c.Entity.StorageKey()
}

// ChangeProcessor is the transport half the bridges talk to. Put and
// Delete enqueue local changes for upload; both are called only after
// the corresponding store write committed, so the transport never
// holds data the local device could forget.
type ChangeProcessor interface {
	// Put hands one locally-written entity to the transport. The
	// collaboration ID is transport metadata; it is zero on the
	// private feed.
	Put(storageKey string, entity schema.Entity, collaboration ref.CollaborationID)

	// Delete tombstones one entity on the transport.
	Delete(storageKey string)

	// IsTrackingMetadata reports whether the transport is ready to
	// accept local changes. While false, local mutations are persisted
	// but not uploaded; the full-sync merge re-commits them later.
	IsTrackingMetadata() bool
}

// TabCloser closes open tabs in the local tab strip. The shared bridge
// uses it when collaboration sync is disabled: shared content must
// leave the screen before the groups leave the registry.
type TabCloser interface {
	CloseTab(group ref.LocalGroupID, tab ref.LocalTabID)
}
