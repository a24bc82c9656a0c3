// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package syncbridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabmesh/tabmesh/lib/ref"
	"github.com/tabmesh/tabmesh/lib/registry"
	"github.com/tabmesh/tabmesh/lib/schema"
	"github.com/tabmesh/tabmesh/lib/sequence"
	"github.com/tabmesh/tabmesh/lib/store"
	"github.com/tabmesh/tabmesh/lib/tabgroup"
)

// Bridge syncs one replica class — private saved groups or shared
// collaboration groups — between the registry, its durable store, and
// the transport. Construct with NewPrivateBridge or NewSharedBridge.
// Not safe for concurrent use; every method except StartLoad must run
// on the engine sequence.
type Bridge struct {
	registry  *registry.Registry
	store     *store.Store
	processor ChangeProcessor
	runner    sequence.Runner
	logger    *slog.Logger
	shared    bool

	// closer is set on shared bridges that can reach the tab strip.
	closer TabCloser

	orphans orphanBuffer
}

// Config holds a bridge's collaborators. Registry, Store, Processor,
// and Runner are required.
type Config struct {
	Registry  *registry.Registry
	Store     *store.Store
	Processor ChangeProcessor
	Runner    sequence.Runner

	// TabCloser lets the shared bridge close open shared tabs when
	// collaboration sync shuts off. Ignored by private bridges; a
	// shared bridge without one skips the tab-strip cleanup.
	TabCloser TabCloser

	// Logger receives skip warnings and store-failure errors. Nil
	// discards output.
	Logger *slog.Logger
}

// NewPrivateBridge returns the bridge for private saved groups.
func NewPrivateBridge(cfg Config) *Bridge {
	return newBridge(cfg, false)
}

// NewSharedBridge returns the bridge for shared collaboration groups.
// Every entity on this bridge's feed must carry a collaboration ID.
func NewSharedBridge(cfg Config) *Bridge {
	return newBridge(cfg, true)
}

func newBridge(cfg Config, shared bool) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		registry:  cfg.Registry,
		store:     cfg.Store,
		processor: cfg.Processor,
		runner:    cfg.Runner,
		logger:    logger,
		shared:    shared,
		closer:    cfg.TabCloser,
	}
}

// Shared reports which replica class the bridge owns.
func (b *Bridge) Shared() bool { return b.shared }

// owns reports whether a group belongs to this bridge's replica class.
func (b *Bridge) owns(group *tabgroup.Group) bool {
	return group.IsShared() == b.shared
}

// StartLoad reads the bridge's store on its own goroutine, decodes the
// records, and posts complete onto the engine sequence with the
// decoded groups and tabs. Undecodable or invalid records are logged
// and skipped; a failed load completes with nothing rather than
// wedging startup.
func (b *Bridge) StartLoad(ctx context.Context, complete func(groups []tabgroup.Group, tabs []tabgroup.Tab)) {
	go func() {
		records, err := b.store.LoadAll(ctx)
		b.runner.Post(func() {
			if err != nil {
				b.logger.Error("syncbridge: loading stored entities", "error", err)
				complete(nil, nil)
				return
			}
			groups, tabs := b.decodeRecords(records)
			complete(groups, tabs)
		})
	}()
}

func (b *Bridge) decodeRecords(records []store.Record) ([]tabgroup.Group, []tabgroup.Tab) {
	var groups []tabgroup.Group
	var tabs []tabgroup.Tab
	for _, record := range records {
		entity, err := schema.Decode(record.Data)
		if err != nil {
			b.logger.Warn("syncbridge: skipping undecodable record",
				"storage_key", record.StorageKey, "error", err)
			continue
		}
		if err := entity.Validate(); err != nil {
			b.logger.Warn("syncbridge: skipping invalid record",
				"storage_key", record.StorageKey, "error", err)
			continue
		}
		switch {
		case entity.IsGroup():
			group, err := entity.ToGroup()
			if err != nil {
				b.logger.Warn("syncbridge: skipping malformed group record",
					"storage_key", record.StorageKey, "error", err)
				continue
			}
			if b.shared {
				if record.Collaboration.IsZero() {
					b.logger.Warn("syncbridge: shared group record without collaboration",
						"storage_key", record.StorageKey)
					continue
				}
				group.Collaboration = record.Collaboration
			}
			groups = append(groups, group)
		case entity.IsTab():
			tab, err := entity.ToTab()
			if err != nil {
				b.logger.Warn("syncbridge: skipping malformed tab record",
					"storage_key", record.StorageKey, "error", err)
				continue
			}
			tabs = append(tabs, tab)
		}
	}
	return groups, tabs
}

// IsEntityDataValid reports whether a remote change may be applied:
// the entity must pass structural validation, and the collaboration ID
// must match the bridge's feed — required on the shared feed, absent
// on the private one. Invalid changes are logged and never applied.
func (b *Bridge) IsEntityDataValid(change EntityChange) bool {
	if err := change.Entity.Validate(); err != nil {
		b.logger.Warn("syncbridge: rejecting invalid entity", "error", err)
		return false
	}
	if b.shared && change.Collaboration.IsZero() {
		b.logger.Warn("syncbridge: rejecting shared entity without collaboration",
			"storage_key", change.Key())
		return false
	}
	if !b.shared && !change.Collaboration.IsZero() {
		b.logger.Warn("syncbridge: rejecting private entity with collaboration",
			"storage_key", change.Key(), "collaboration", change.Collaboration.String())
		return false
	}
	return true
}

// GetStorageKey returns the durable-store key for an entity.
func (b *Bridge) GetStorageKey(entity schema.Entity) string {
	return entity.StorageKey()
}

// GetClientTag returns the transport's client tag for an entity.
func (b *Bridge) GetClientTag(entity schema.Entity) string {
	return schema.ClientTagHash(entity.GUID)
}

// MergeFullSyncData runs the initial reconciliation when sync turns
// on: the remote snapshot is applied like an incremental batch, and
// every local entity the snapshot does not know is committed back to
// the transport. The result on every device is the union of both
// sides, with per-entity last-write-wins where they overlap.
func (b *Bridge) MergeFullSyncData(ctx context.Context, changes []EntityChange) error {
	remote := make(map[string]bool, len(changes))
	batch := b.store.NewWriteBatch()
	for _, change := range changes {
		if change.Type == ChangeDelete {
			b.logger.Warn("syncbridge: tombstone in full sync data skipped",
				"storage_key", change.Key())
			continue
		}
		if !b.IsEntityDataValid(change) {
			continue
		}
		remote[change.Key()] = true
		b.persistUpsert(batch, change)
		b.applyRemoteUpsert(change)
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("syncbridge: persisting full sync data: %w", err)
	}

	if !b.processor.IsTrackingMetadata() {
		return nil
	}
	for _, group := range b.registry.All() {
		if !b.owns(&group) {
			continue
		}
		if !remote[group.ID.String()] {
			b.processor.Put(group.ID.String(), schema.FromGroup(group), group.Collaboration)
		}
		for _, tab := range group.Tabs {
			if !remote[tab.ID.String()] {
				b.processor.Put(tab.ID.String(), schema.FromTab(tab), group.Collaboration)
			}
		}
	}
	return nil
}

// ApplyIncrementalSyncChanges applies one remote change batch. The
// batch is processed in two passes, adds and updates first and deletes
// second, so a delete-plus-recreate arriving in one batch converges
// the same way regardless of the order the transport delivered it.
// Remote changes never flow back to the processor.
func (b *Bridge) ApplyIncrementalSyncChanges(ctx context.Context, changes []EntityChange) error {
	batch := b.store.NewWriteBatch()
	for _, change := range changes {
		if change.Type == ChangeDelete {
			continue
		}
		if !b.IsEntityDataValid(change) {
			continue
		}
		b.persistUpsert(batch, change)
		b.applyRemoteUpsert(change)
	}
	for _, change := range changes {
		if change.Type != ChangeDelete {
			continue
		}
		batch.Delete(change.Key())
		b.applyRemoteDelete(change.Key())
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("syncbridge: persisting remote batch: %w", err)
	}
	return nil
}

func (b *Bridge) persistUpsert(batch *store.WriteBatch, change EntityChange) {
	data, err := change.Entity.Encode()
	if err != nil {
		b.logger.Warn("syncbridge: skipping unencodable entity",
			"storage_key", change.Key(), "error", err)
		return
	}
	batch.Put(change.Key(), data, change.Collaboration)
}

func (b *Bridge) applyRemoteUpsert(change EntityChange) {
	switch {
	case change.Entity.IsGroup():
		group, err := change.Entity.ToGroup()
		if err != nil {
			b.logger.Warn("syncbridge: skipping malformed group entity",
				"storage_key", change.Key(), "error", err)
			return
		}
		group.Collaboration = change.Collaboration
		if _, known := b.registry.Get(group.ID); known {
			b.registry.MergeRemoteGroupMetadata(group.ID, group)
			return
		}
		b.registry.Add(registry.OriginRemote, group)
		for _, orphan := range b.orphans.take(group.ID) {
			b.registry.MergeRemoteTab(orphan)
		}
	case change.Entity.IsTab():
		tab, err := change.Entity.ToTab()
		if err != nil {
			b.logger.Warn("syncbridge: skipping malformed tab entity",
				"storage_key", change.Key(), "error", err)
			return
		}
		if groupKnown, _ := b.registry.MergeRemoteTab(tab); !groupKnown {
			b.orphans.add(tab)
			b.logger.Debug("syncbridge: staged orphan tab",
				"tab_id", tab.ID.String(), "group_id", tab.GroupID.String())
		}
	}
}

// applyRemoteDelete resolves a tombstone's key against the registry.
// Group and tab GUIDs share a namespace, so the key is tried as a
// group first, then as a live tab, then as a staged orphan. A tab
// delete that empties its group leaves the empty group in place.
func (b *Bridge) applyRemoteDelete(storageKey string) {
	if groupID, err := ref.ParseGroupID(storageKey); err == nil {
		if _, known := b.registry.Get(groupID); known {
			b.registry.Remove(registry.OriginRemote, groupID)
			return
		}
	}
	tabID, err := ref.ParseTabID(storageKey)
	if err != nil {
		b.logger.Warn("syncbridge: tombstone with malformed key", "storage_key", storageKey)
		return
	}
	if _, owner, found := b.registry.FindTab(tabID); found {
		b.registry.RemoveTab(registry.OriginRemote, owner, tabID)
		return
	}
	if b.orphans.remove(tabID) {
		return
	}
	b.logger.Debug("syncbridge: tombstone for unknown entity", "storage_key", storageKey)
}

// ApplyDisableSyncChanges tears down the bridge's synced state when
// its sync feed turns off.
//
// The shared bridge removes every shared group: a group still open in
// the tab strip has its tabs closed one by one first, so shared
// content never outlives membership. The private bridge keeps the
// registry as is — saved groups belong to the device — and only wipes
// its durable cache, which the next full-sync merge rebuilds.
func (b *Bridge) ApplyDisableSyncChanges(ctx context.Context) error {
	if b.shared {
		for _, group := range b.registry.All() {
			if !group.IsShared() {
				continue
			}
			if b.closer != nil && !group.LocalID.IsZero() {
				for _, tab := range group.Tabs {
					if !tab.LocalID.IsZero() {
						b.closer.CloseTab(group.LocalID, tab.LocalID)
					}
				}
			}
			b.registry.Remove(registry.OriginRemote, group.ID)
		}
	}
	b.orphans.clear()
	if err := b.store.Wipe(ctx); err != nil {
		return fmt.Errorf("syncbridge: wiping store on sync disable: %w", err)
	}
	return nil
}

// LeaveCollaboration tears down one collaboration's groups when this
// device loses membership, while shared sync as a whole stays on. Same
// ordering as a full disable, scoped to the collaboration: open tabs
// close first, then the groups leave the registry, then the durable
// records go. Only meaningful on the shared bridge.
func (b *Bridge) LeaveCollaboration(ctx context.Context, collaboration ref.CollaborationID) error {
	if !b.shared {
		return fmt.Errorf("syncbridge: leave collaboration on the private bridge")
	}
	if collaboration.IsZero() {
		return fmt.Errorf("syncbridge: leave collaboration: collaboration ID is required")
	}
	for _, group := range b.registry.All() {
		if group.Collaboration != collaboration {
			continue
		}
		if b.closer != nil && !group.LocalID.IsZero() {
			for _, tab := range group.Tabs {
				if !tab.LocalID.IsZero() {
					b.closer.CloseTab(group.LocalID, tab.LocalID)
				}
			}
		}
		b.registry.Remove(registry.OriginRemote, group.ID)
	}
	if err := b.store.WipeCollaboration(ctx, collaboration); err != nil {
		return err
	}
	b.logger.Info("syncbridge: left collaboration", "collaboration", collaboration.String())
	return nil
}

// GetDataForCommit resolves storage keys the transport wants to
// upload into entity changes. Keys no longer present anywhere are
// skipped — a vanished entity has a tombstone on the way.
func (b *Bridge) GetDataForCommit(ctx context.Context, storageKeys []string) []EntityChange {
	var result []EntityChange
	for _, key := range storageKeys {
		change, found := b.entityForKey(ctx, key)
		if !found {
			b.logger.Warn("syncbridge: no data for commit request", "storage_key", key)
			continue
		}
		result = append(result, change)
	}
	return result
}

// GetAllDataForDebugging returns every entity in the bridge's domain,
// groups before their tabs.
func (b *Bridge) GetAllDataForDebugging() []EntityChange {
	var result []EntityChange
	for _, group := range b.registry.All() {
		if !b.owns(&group) {
			continue
		}
		result = append(result, EntityChange{
			Type:          ChangeUpdate,
			StorageKey:    group.ID.String(),
			Entity:        schema.FromGroup(group),
			Collaboration: group.Collaboration,
		})
		for _, tab := range group.Tabs {
			result = append(result, EntityChange{
				Type:          ChangeUpdate,
				StorageKey:    tab.ID.String(),
				Entity:        schema.FromTab(tab),
				Collaboration: group.Collaboration,
			})
		}
	}
	return result
}

func (b *Bridge) entityForKey(ctx context.Context, storageKey string) (EntityChange, bool) {
	if groupID, err := ref.ParseGroupID(storageKey); err == nil {
		if group, found := b.registry.Get(groupID); found && b.owns(&group) {
			return EntityChange{
				Type:          ChangeUpdate,
				StorageKey:    storageKey,
				Entity:        schema.FromGroup(group),
				Collaboration: group.Collaboration,
			}, true
		}
	}
	if tabID, err := ref.ParseTabID(storageKey); err == nil {
		if tab, owner, found := b.registry.FindTab(tabID); found {
			group, ok := b.registry.Get(owner)
			if ok && b.owns(&group) {
				return EntityChange{
					Type:          ChangeUpdate,
					StorageKey:    storageKey,
					Entity:        schema.FromTab(tab),
					Collaboration: group.Collaboration,
				}, true
			}
		}
	}
	// Not in the registry; fall back to the durable copy.
	record, found, err := b.store.Get(ctx, storageKey)
	if err != nil {
		b.logger.Error("syncbridge: reading store for commit", "storage_key", storageKey, "error", err)
		return EntityChange{}, false
	}
	if !found {
		return EntityChange{}, false
	}
	entity, err := schema.Decode(record.Data)
	if err != nil {
		b.logger.Warn("syncbridge: undecodable stored record for commit",
			"storage_key", storageKey, "error", err)
		return EntityChange{}, false
	}
	return EntityChange{
		Type:          ChangeUpdate,
		StorageKey:    storageKey,
		Entity:        entity,
		Collaboration: record.Collaboration,
	}, true
}

// localGroupAdded persists a locally created group and all its tabs,
// then hands them to the transport. The store commit comes first; if
// it fails the transport sees nothing and the change is retried by the
// next full-sync merge.
func (b *Bridge) localGroupAdded(ctx context.Context, group tabgroup.Group) {
	entities := make([]schema.Entity, 0, 1+len(group.Tabs))
	entities = append(entities, schema.FromGroup(group))
	for _, tab := range group.Tabs {
		entities = append(entities, schema.FromTab(tab))
	}

	batch := b.store.NewWriteBatch()
	for _, entity := range entities {
		b.persistUpsert(batch, EntityChange{Entity: entity, Collaboration: group.Collaboration})
	}
	if err := batch.Commit(ctx); err != nil {
		b.logger.Error("syncbridge: persisting local group add",
			"group_id", group.ID.String(), "error", err)
		return
	}
	if !b.processor.IsTrackingMetadata() {
		return
	}
	for _, entity := range entities {
		b.processor.Put(entity.StorageKey(), entity, group.Collaboration)
	}
}

// localGroupRemoved deletes a locally removed group and its tabs from
// the store, then tombstones them on the transport, tabs before the
// group.
func (b *Bridge) localGroupRemoved(ctx context.Context, removed tabgroup.Group) {
	keys := make([]string, 0, 1+len(removed.Tabs))
	for _, tab := range removed.Tabs {
		keys = append(keys, tab.ID.String())
	}
	keys = append(keys, removed.ID.String())

	batch := b.store.NewWriteBatch()
	for _, key := range keys {
		batch.Delete(key)
	}
	if err := batch.Commit(ctx); err != nil {
		b.logger.Error("syncbridge: persisting local group removal",
			"group_id", removed.ID.String(), "error", err)
		return
	}
	if !b.processor.IsTrackingMetadata() {
		return
	}
	for _, key := range keys {
		b.processor.Delete(key)
	}
}

// localGroupUpdated persists and uploads the entity a local mutation
// touched: the group's own metadata when tabID is zero, otherwise the
// single tab. A tab that is no longer in the group was removed, which
// becomes a store delete plus a transport tombstone.
func (b *Bridge) localGroupUpdated(ctx context.Context, group tabgroup.Group, tabID ref.TabID) {
	if tabID.IsZero() {
		b.upsertLocal(ctx, schema.FromGroup(group), group.Collaboration)
		return
	}
	tab := group.TabByID(tabID)
	if tab == nil {
		b.deleteLocal(ctx, tabID.String())
		return
	}
	b.upsertLocal(ctx, schema.FromTab(*tab), group.Collaboration)
}

func (b *Bridge) upsertLocal(ctx context.Context, entity schema.Entity, collaboration ref.CollaborationID) {
	batch := b.store.NewWriteBatch()
	b.persistUpsert(batch, EntityChange{Entity: entity, Collaboration: collaboration})
	if err := batch.Commit(ctx); err != nil {
		b.logger.Error("syncbridge: persisting local update",
			"storage_key", entity.StorageKey(), "error", err)
		return
	}
	if b.processor.IsTrackingMetadata() {
		b.processor.Put(entity.StorageKey(), entity, collaboration)
	}
}

func (b *Bridge) deleteLocal(ctx context.Context, storageKey string) {
	batch := b.store.NewWriteBatch()
	batch.Delete(storageKey)
	if err := batch.Commit(ctx); err != nil {
		b.logger.Error("syncbridge: persisting local delete",
			"storage_key", storageKey, "error", err)
		return
	}
	if b.processor.IsTrackingMetadata() {
		b.processor.Delete(storageKey)
	}
}
