// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the authoritative in-memory model of all tab
// groups known to this device, private and shared alike.
//
// Every mutation enters through a method that carries an Origin tag:
// Local for caller-initiated edits, Remote for changes delivered by a
// sync bridge. The tag is replayed verbatim on every observer
// notification, which is what lets the bridges subscribe to registry
// events without echoing remote changes back to the transport — the
// critical no-feedback-loop invariant of the whole engine.
//
// Remote merges are last-write-wins by update timestamp: an incoming
// write that is not strictly newer than the stored version is
// discarded. Applying the same remote snapshot twice, or applying two
// updates in either order, converges to the same state.
//
// The registry is owned by a single sequence (see lib/sequence) and is
// not safe for concurrent use.
package registry
