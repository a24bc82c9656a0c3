// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the engine's standard CBOR encoding
// configuration.
//
// Every durable artifact shares one codec: wire entities persisted to
// the local store, snapshot export streams, and the debugging dumps
// the inspect CLI prints. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical entity always produces
// identical bytes, which is what makes "re-apply the same remote
// snapshot" a byte-level no-op and keeps storage writes idempotent.
//
// For buffer-oriented operations (store rows):
//
//	data, err := codec.Marshal(entity)
//	err = codec.Unmarshal(data, &entity)
//
// For stream-oriented operations (snapshot files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Identifier types from lib/ref implement encoding.TextMarshaler and
// serialize as CBOR text strings; the codec is configured to honor
// that on both paths so identity survives the round trip.
package codec
