// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package tabgroup

import "fmt"

// Color is a tab group's display color, one of a fixed palette of nine
// values shared by every device. The numeric values are part of the
// wire format and must never be reordered.
type Color uint8

const (
	ColorGrey Color = iota
	ColorBlue
	ColorRed
	ColorYellow
	ColorGreen
	ColorPink
	ColorPurple
	ColorCyan
	ColorOrange
)

// colorNames maps palette values to their lowercase names.
var colorNames = [...]string{
	ColorGrey:   "grey",
	ColorBlue:   "blue",
	ColorRed:    "red",
	ColorYellow: "yellow",
	ColorGreen:  "green",
	ColorPink:   "pink",
	ColorPurple: "purple",
	ColorCyan:   "cyan",
	ColorOrange: "orange",
}

// Valid reports whether c is inside the palette.
func (c Color) Valid() bool {
	return int(c) < len(colorNames)
}

// String returns the color's lowercase name, or a decimal fallback for
// out-of-palette values.
func (c Color) String() string {
	if c.Valid() {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// ClampColor maps an out-of-palette value (for example from a newer
// client with a larger palette) to ColorGrey. In-palette values pass
// through unchanged.
func ClampColor(c Color) Color {
	if c.Valid() {
		return c
	}
	return ColorGrey
}
