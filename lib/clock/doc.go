// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads for testability.
//
// Every update timestamp in the sync engine — the values that decide
// last-write-wins merges — flows through an injected Clock. Production
// code injects Real(); tests inject Fake() and control time explicitly,
// which makes merge-ordering tests fully deterministic.
package clock
