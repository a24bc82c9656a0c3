// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier value types for the sync
// engine: group and tab GUIDs, collaboration identifiers, device cache
// GUIDs, and in-process local handles.
//
// All identifier types are immutable value types. The zero value is
// "unset" and reports true from IsZero. Types that travel over the
// wire implement encoding.TextMarshaler and encoding.TextUnmarshaler
// so they serialize as plain strings in CBOR and JSON.
//
// Local handles (LocalGroupID, LocalTabID) never travel over the wire:
// they correlate registry entities to live tab-strip objects in the
// current process only.
package ref
