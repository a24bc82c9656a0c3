// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// CollaborationID identifies a multi-user sharing session. Its
// presence on a group is the sole discriminator between a private
// "saved" group and a multi-party "shared" group. The value is opaque
// to the engine — the only validation is non-emptiness.
//
// A group's CollaborationID never changes once set: a saved group
// becomes shared only by deleting the saved entity and creating a new
// shared one under a fresh identity.
type CollaborationID struct {
	id string
}

// ParseCollaborationID validates and wraps a raw collaboration ID.
// Returns an error if the string is empty.
func ParseCollaborationID(raw string) (CollaborationID, error) {
	if raw == "" {
		return CollaborationID{}, fmt.Errorf("empty collaboration ID")
	}
	return CollaborationID{id: raw}, nil
}

// MustParseCollaborationID is like ParseCollaborationID but panics on
// error. Use in tests where the input is known-valid.
func MustParseCollaborationID(raw string) CollaborationID {
	c, err := ParseCollaborationID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseCollaborationID(%q): %v", raw, err))
	}
	return c
}

// String returns the raw collaboration ID string.
func (c CollaborationID) String() string { return c.id }

// IsZero reports whether the CollaborationID is the zero value. A zero
// collaboration ID on a group means the group is private ("saved").
func (c CollaborationID) IsZero() bool { return c.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (c CollaborationID) MarshalText() ([]byte, error) {
	if c.id == "" {
		return nil, nil
	}
	return []byte(c.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (private group).
func (c *CollaborationID) UnmarshalText(data []byte) error {
	*c = CollaborationID{id: string(data)}
	return nil
}
