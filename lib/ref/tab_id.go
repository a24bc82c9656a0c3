// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"

	"github.com/google/uuid"
)

// TabID is the globally unique identity of a tab. Tab IDs are unique
// across the whole registry, not just within their owning group, so a
// tab entity can be looked up without knowing its group first.
//
// TabID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type TabID struct {
	id uuid.UUID
}

// NewTabID mints a fresh random TabID.
func NewTabID() TabID {
	return TabID{id: uuid.New()}
}

// ParseTabID validates and wraps a raw UUID string.
func ParseTabID(raw string) (TabID, error) {
	if raw == "" {
		return TabID{}, fmt.Errorf("empty tab ID")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return TabID{}, fmt.Errorf("tab ID %q: %w", raw, err)
	}
	if parsed == uuid.Nil {
		return TabID{}, fmt.Errorf("tab ID is the nil UUID")
	}
	return TabID{id: parsed}, nil
}

// MustParseTabID is like ParseTabID but panics on error. Use in tests
// and static initialization where the input is known-valid.
func MustParseTabID(raw string) TabID {
	t, err := ParseTabID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseTabID(%q): %v", raw, err))
	}
	return t
}

// String returns the canonical lowercase UUID string.
func (t TabID) String() string {
	if t.IsZero() {
		return ""
	}
	return t.id.String()
}

// IsZero reports whether the TabID is the zero value (unset).
func (t TabID) IsZero() bool { return t.id == uuid.Nil }

// MarshalText implements encoding.TextMarshaler.
func (t TabID) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return nil, nil
	}
	return []byte(t.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset tab ID).
func (t *TabID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*t = TabID{}
		return nil
	}
	parsed, err := ParseTabID(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
