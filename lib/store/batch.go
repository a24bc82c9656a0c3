// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tabmesh/tabmesh/lib/ref"
)

// WriteBatch accumulates puts and deletes that commit atomically.
// A batch is single-use: build it, Commit it once, discard it.
// Not safe for concurrent use.
type WriteBatch struct {
	store      *Store
	operations []batchOperation
}

type batchOperation struct {
	// delete selects between the two operation kinds.
	delete        bool
	storageKey    string
	collaboration ref.CollaborationID
	data          []byte
}

// NewWriteBatch starts an empty batch against the store.
func (s *Store) NewWriteBatch() *WriteBatch {
	return &WriteBatch{store: s}
}

// Put upserts a record. A later Put of the same key within the batch
// wins, matching SQLite's last-statement-wins within a transaction.
func (b *WriteBatch) Put(storageKey string, data []byte, collaboration ref.CollaborationID) {
	b.operations = append(b.operations, batchOperation{
		storageKey:    storageKey,
		collaboration: collaboration,
		data:          data,
	})
}

// Delete removes a record. Deleting an absent key is a no-op.
func (b *WriteBatch) Delete(storageKey string) {
	b.operations = append(b.operations, batchOperation{delete: true, storageKey: storageKey})
}

// Len returns the number of queued operations.
func (b *WriteBatch) Len() int { return len(b.operations) }

// Commit applies the batch in one transaction. Either every operation
// becomes durable or none does. An empty batch commits trivially.
//
// The error return is named so the deferred transaction end can write
// a COMMIT failure into it; an anonymous return would report a failed
// COMMIT as success.
func (b *WriteBatch) Commit(ctx context.Context) (err error) {
	if len(b.operations) == 0 {
		return nil
	}
	conn, err := b.store.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: batch commit: %w", err)
	}
	defer b.store.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("store: batch begin: %w", err)
	}
	defer endFn(&err)

	for _, op := range b.operations {
		if op.delete {
			err = sqlitex.Execute(conn,
				"DELETE FROM entities WHERE storage_key = ?",
				&sqlitex.ExecOptions{Args: []any{op.storageKey}})
		} else {
			err = sqlitex.Execute(conn,
				`INSERT INTO entities (storage_key, collaboration_id, data)
				 VALUES (?, ?, ?)
				 ON CONFLICT (storage_key) DO UPDATE
				 SET collaboration_id = excluded.collaboration_id, data = excluded.data`,
				&sqlitex.ExecOptions{Args: []any{op.storageKey, op.collaboration.String(), op.data}})
		}
		if err != nil {
			err = fmt.Errorf("store: batch operation on %s: %w", op.storageKey, err)
			return err
		}
	}
	return err
}
