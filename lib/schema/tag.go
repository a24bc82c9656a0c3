// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ClientTagHash derives the sync transport's client tag for an entity
// GUID: the lowercase hex of a BLAKE3 digest over the GUID string.
// The tag is what lets two devices recognize independently committed
// records for the same logical entity, so it must be a pure, stable
// function of identity and nothing else.
func ClientTagHash(guid string) string {
	digest := blake3.Sum256([]byte(guid))
	return hex.EncodeToString(digest[:])
}
