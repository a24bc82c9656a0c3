// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"

	"github.com/google/uuid"
)

// GroupID is the globally unique identity of a tab group. It is stable
// across devices, renames, and open/close cycles — the same group on
// two devices carries the same GroupID.
//
// GroupID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type GroupID struct {
	id uuid.UUID
}

// NewGroupID mints a fresh random GroupID. Used when a group is first
// persisted on this device.
func NewGroupID() GroupID {
	return GroupID{id: uuid.New()}
}

// ParseGroupID validates and wraps a raw UUID string.
func ParseGroupID(raw string) (GroupID, error) {
	if raw == "" {
		return GroupID{}, fmt.Errorf("empty group ID")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return GroupID{}, fmt.Errorf("group ID %q: %w", raw, err)
	}
	if parsed == uuid.Nil {
		return GroupID{}, fmt.Errorf("group ID is the nil UUID")
	}
	return GroupID{id: parsed}, nil
}

// MustParseGroupID is like ParseGroupID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseGroupID(raw string) GroupID {
	g, err := ParseGroupID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseGroupID(%q): %v", raw, err))
	}
	return g
}

// String returns the canonical lowercase UUID string.
func (g GroupID) String() string {
	if g.IsZero() {
		return ""
	}
	return g.id.String()
}

// IsZero reports whether the GroupID is the zero value (unset).
func (g GroupID) IsZero() bool { return g.id == uuid.Nil }

// MarshalText implements encoding.TextMarshaler.
func (g GroupID) MarshalText() ([]byte, error) {
	if g.IsZero() {
		return nil, nil
	}
	return []byte(g.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset group ID).
func (g *GroupID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = GroupID{}
		return nil
	}
	parsed, err := ParseGroupID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
