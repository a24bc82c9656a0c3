// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the engine's façade: the one surface UI code
// talks to.
//
// The service wraps the registry behind intent-level operations
// (create a group, share a group, move a tab), stamps local mutations
// with this device's attribution, and shields the UI from engine
// internals: observers hear nothing until the durable stores have
// loaded, a remote group with no tabs yet stays invisible until its
// first tab arrives, and group listings never contain empty groups.
//
// Everything here runs on the engine sequence. Mutations take effect
// synchronously; the sync bridges behind the registry handle
// persistence and upload as a side effect of the same call.
package service
