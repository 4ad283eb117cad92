// Package styles computes the appearance of chart nodes: fill and stroke
// colors by depth, label sizes and text, and the geometry of the badges and
// controls drawn on each node card.
//
// The package only produces values. Sinks turn an [Appearance] into SVG
// elements, terminal cells or JSON.
package styles

import (
	"fmt"
	"strconv"
	"strings"
)

// FallbackColor fills nodes deeper than the palette.
const FallbackColor = "#F0F0F0"

// Levels is the number of depth colors in a palette.
const Levels = 8

// StrokeDarken is how much the stroke is darker than the fill.
const StrokeDarken = 50

// DefaultNodeColors are the built-in depth colors keyed level0..level7.
var DefaultNodeColors = map[string]string{
	"level0": "#90EE90",
	"level1": "#FFFFE0",
	"level2": "#E0F2FF",
	"level3": "#FFE4E1",
	"level4": "#E8DFF5",
	"level5": "#FFEAA7",
	"level6": "#FAD7FF",
	"level7": "#D7F8FF",
}

// LevelKey returns the palette key of depth.
func LevelKey(depth int) string { return "level" + strconv.Itoa(depth) }

// Palette maps level keys to colors. Missing or empty entries fall back to
// [DefaultNodeColors].
type Palette map[string]string

// Fill returns the fill color for a node at depth.
func (p Palette) Fill(depth int) string {
	if depth < 0 || depth >= Levels {
		return FallbackColor
	}
	key := LevelKey(depth)
	if c := strings.TrimSpace(p[key]); c != "" {
		return c
	}
	return DefaultNodeColors[key]
}

// Stroke returns the border color for a node at depth.
func (p Palette) Stroke(depth int) string {
	return Adjust(p.Fill(depth), -StrokeDarken)
}

// Adjust adds amount to each RGB channel of a #rrggbb color, clamping to
// [0,255]. Colors that do not parse are returned unchanged.
func Adjust(color string, amount int) string {
	hex := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color
	}
	r := clamp(int(v>>16)+amount, 0, 255)
	g := clamp(int(v>>8&0xff)+amount, 0, 255)
	b := clamp(int(v&0xff)+amount, 0, 255)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
