// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package tabgroup

import (
	"strings"
	"unicode"
)

// SanitizeTitle prepares a remote-supplied title for display: control
// characters are stripped, surrounding whitespace is trimmed, and
// interior runs of whitespace collapse to a single space. Remote peers
// in a shared collaboration are not trusted to send well-formed text.
func SanitizeTitle(title string) string {
	var builder strings.Builder
	builder.Grow(len(title))
	previousSpace := false
	for _, r := range title {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !previousSpace {
				builder.WriteRune(' ')
			}
			previousSpace = true
			continue
		}
		previousSpace = false
		builder.WriteRune(r)
	}
	return strings.TrimSpace(builder.String())
}
