// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// CacheGUID is the opaque identifier of a sync client (one browser
// install on one device). Groups and tabs record the cache GUID of the
// device that created them and the device that last updated them.
//
// Cache GUIDs are provenance only: they feed attribution and let a
// bridge tell local-origin changes from remote ones. They are never
// consulted for conflict resolution — that is decided purely by update
// timestamps.
type CacheGUID struct {
	id string
}

// NewCacheGUID wraps a raw device identifier string. Empty input
// yields the zero value (unknown device).
func NewCacheGUID(raw string) CacheGUID {
	return CacheGUID{id: raw}
}

// String returns the raw cache GUID string.
func (c CacheGUID) String() string { return c.id }

// IsZero reports whether the CacheGUID is the zero value.
func (c CacheGUID) IsZero() bool { return c.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (c CacheGUID) MarshalText() ([]byte, error) {
	if c.id == "" {
		return nil, nil
	}
	return []byte(c.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CacheGUID) UnmarshalText(data []byte) error {
	*c = CacheGUID{id: string(data)}
	return nil
}
