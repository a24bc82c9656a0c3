// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the durable local home of wire entities: an opaque
// key→bytes table with write-batch semantics, backed by SQLite.
//
// Each sync bridge exclusively owns one Store (one database file).
// Values are opaque CBOR blobs produced by lib/schema; the store never
// interprets them. The one piece of metadata it does understand is
// the per-record collaboration ID, which shared-group entities carry
// as transport metadata rather than inside the payload — it rides in
// its own column so a load can hand it back alongside every record.
//
// Writes happen through WriteBatch: all puts and deletes in a batch
// commit in one SQLite transaction, so a local mutation is either
// fully durable or not recorded at all. Snapshot export/import
// (a zstd-compressed CBOR stream) exists for offline debugging and
// backup via the inspect CLI.
package store
