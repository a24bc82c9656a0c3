// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides small helpers shared by tests: channel
// receive/close assertions with timeouts so a broken test hangs for a
// bounded time instead of forever.
package testutil
