// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncbridge connects the in-memory group registry to the sync
// transport and the durable entity store.
//
// Two bridges run side by side: the private bridge owns saved groups
// (no collaboration ID) and the shared bridge owns collaboration
// groups. Each bridge translates between registry mutations and wire
// entities in both directions — local changes are persisted to the
// store and handed to the transport's ChangeProcessor, remote change
// batches are validated, persisted, and merged into the registry with
// last-write-wins semantics. Tabs that arrive before their owning
// group are staged in an orphan buffer and attached when the group
// shows up.
//
// The Mediator sits in front of both bridges. It observes the registry
// and routes every local-origin mutation to the bridge owning the
// touched group, and it runs the startup join barrier: the registry is
// seeded exactly once, after both stores have finished loading.
//
// Everything here runs on the engine's owning sequence; only store
// loads run on their own goroutine and post their completion back.
package syncbridge
