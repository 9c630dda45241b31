// Package hexcolor converts "#RGB" and "#RRGGBB" strings to 8-bit colors.
package hexcolor

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// White is returned for any string that is not a valid hex color.
var White = color.RGBA{255, 255, 255, 255}

// Parse converts a hex color with or without leading '#'. The second result
// is false when the string is not 3 or 6 hex digits.
func Parse(s string) (color.RGBA, bool) {
	digits := strings.TrimLeft(s, "#")
	if (len(digits) != 3 && len(digits) != 6) || !isHex(digits) {
		return White, false
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return White, false
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, true
}

// ToRGB is Parse without the validity flag.
func ToRGB(s string) color.RGBA {
	c, _ := Parse(s)
	return c
}

// WithAlpha returns c as a non-premultiplied color with the given opacity in [0,1].
func WithAlpha(c color.RGBA, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{c.R, c.G, c.B, uint8(alpha * 255)}
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
