// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package sequence provides the engine's scheduling model: one owning
// sequence per registry instance.
//
// Registry, bridges, and service never lock — instead, every event
// source (UI calls, remote change batches, store I/O completions)
// posts closures onto one Runner, which executes them one at a time
// in FIFO order. Concurrency exists only as interleaving of distinct
// sources onto that single queue, never as parallel mutation.
//
// Loop is the production runner (one background goroutine).
// Synchronous executes tasks inline and exists for tests, where it
// makes every interleaving explicit and deterministic.
package sequence
