// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/tabmesh/tabmesh/lib/codec"
	"github.com/tabmesh/tabmesh/lib/ref"
)

// snapshotRecord is the on-stream form of one exported record.
type snapshotRecord struct {
	StorageKey    string `cbor:"storage_key"`
	Collaboration string `cbor:"collaboration_id,omitempty"`
	Data          []byte `cbor:"data"`
}

// ExportSnapshot writes every stored record to w as a zstd-compressed
// CBOR stream. Intended for offline debugging and backup through the
// inspect CLI; the engine itself never reads snapshots.
func (s *Store) ExportSnapshot(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	compressor, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("store: snapshot compressor: %w", err)
	}
	encoder := codec.NewEncoder(compressor)
	for _, record := range records {
		item := snapshotRecord{
			StorageKey:    record.StorageKey,
			Collaboration: record.Collaboration.String(),
			Data:          record.Data,
		}
		if err := encoder.Encode(item); err != nil {
			compressor.Close()
			return 0, fmt.Errorf("store: snapshot encode %s: %w", record.StorageKey, err)
		}
	}
	if err := compressor.Close(); err != nil {
		return 0, fmt.Errorf("store: snapshot flush: %w", err)
	}
	return len(records), nil
}

// ImportSnapshot reads a stream produced by ExportSnapshot and
// upserts every record in one batch. Existing keys are overwritten;
// keys absent from the snapshot are left alone.
func (s *Store) ImportSnapshot(ctx context.Context, r io.Reader) (int, error) {
	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("store: snapshot decompressor: %w", err)
	}
	defer decompressor.Close()

	batch := s.NewWriteBatch()
	decoder := codec.NewDecoder(decompressor)
	for {
		var item snapshotRecord
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("store: snapshot decode: %w", err)
		}
		var collaboration ref.CollaborationID
		if item.Collaboration != "" {
			collaboration, err = ref.ParseCollaborationID(item.Collaboration)
			if err != nil {
				return 0, fmt.Errorf("store: snapshot record %s: %w", item.StorageKey, err)
			}
		}
		batch.Put(item.StorageKey, item.Data, collaboration)
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return batch.Len(), nil
}
