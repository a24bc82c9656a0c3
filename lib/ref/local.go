// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "strconv"

// LocalGroupID is an in-process handle correlating a registry group to
// a live tab-strip group. It is present only while the group is open
// in some window, assigned by exactly one of local tab-strip creation
// or explicit open reconciliation, and is never synced or inferred
// from remote data.
//
// The zero value means "not open in this process".
type LocalGroupID int64

// IsZero reports whether the handle is unset.
func (l LocalGroupID) IsZero() bool { return l == 0 }

// String returns the decimal handle value, or "" when unset.
func (l LocalGroupID) String() string {
	if l == 0 {
		return ""
	}
	return strconv.FormatInt(int64(l), 10)
}

// LocalTabID is an in-process handle correlating a registry tab to an
// open tab in the current tab-strip. Same lifetime rules as
// LocalGroupID: set while open, cleared on close, never synced.
//
// The zero value means "not open in this process".
type LocalTabID int64

// IsZero reports whether the handle is unset.
func (l LocalTabID) IsZero() bool { return l == 0 }

// String returns the decimal handle value, or "" when unset.
func (l LocalTabID) String() string {
	if l == 0 {
		return ""
	}
	return strconv.FormatInt(int64(l), 10)
}
