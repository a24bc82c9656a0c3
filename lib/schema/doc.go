// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the wire entity record that travels between
// devices and is persisted to the local store.
//
// Groups and tabs share one namespace: each is a single Entity keyed
// by its own GUID, disambiguated by which payload field is set (a
// group payload, or a tab payload referencing its owning group). A
// collaboration ID is deliberately NOT part of the entity — for shared
// groups it travels as transport-level metadata alongside the record.
//
// Conversion between wire entities and lib/tabgroup values is a
// lossless two-way bijection for every synced field. Local-only state
// (local IDs) never appears here. Timestamps are encoded as
// microseconds since the Windows epoch (1601-01-01 UTC), so Go times
// round-trip at microsecond precision.
package schema
