package utils

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor converts a hex color string (#rgb, #rrggbb or #rrggbbaa,
// the leading hash is optional) into a color.NRGBA value.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// HexToRGBA converts a color expressed as hexadecimal string to RGBA color.
// Invalid inputs are returned as opaque black.
func HexToRGBA(s string) color.NRGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return c
}

// Tint mixes the color with white by the given amount in the [0, 1] range.
func Tint(c color.NRGBA, amount float64) color.NRGBA {
	amount = Clamp(amount, 0, 1)
	mix := func(v uint8) uint8 {
		return uint8(float64(v) + (255-float64(v))*amount + 0.5)
	}
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}
