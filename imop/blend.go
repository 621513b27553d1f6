// Package imop implements the separable blend modes and the Porter-Duff
// composition operations used for mixing a graphic element with its backdrop.
// The image/draw core package implements only the source-over-destination and source
// operators and does not know anything about blending, which is what the
// cosmetic overlays rely on to keep the texture of the skin visible.
package imop

import (
	"fmt"
	"math"

	"github.com/Juan-Cwq/aura/utils"
)

// The supported blend modes. The formulas follow W3C Compositing and Blending Level 1.
const (
	Normal    = "normal"
	Darken    = "darken"
	Lighten   = "lighten"
	Multiply  = "multiply"
	Screen    = "screen"
	Overlay   = "overlay"
	HardLight = "hard_light"
	SoftLight = "soft_light"
)

var blendModes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay, HardLight, SoftLight}

// Blend holds the currently active blend mode.
type Blend struct {
	Mode string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(mode string) error {
	if !utils.Contains(blendModes, mode) {
		return fmt.Errorf("unsupported blend mode: %q", mode)
	}
	o.Mode = mode
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.Mode
}

// Apply mixes the source channel cs with the backdrop channel cb.
// Both values are expected in the [0, 1] range.
func (o *Blend) Apply(cs, cb float64) float64 {
	switch o.Mode {
	case Darken:
		return math.Min(cs, cb)
	case Lighten:
		return math.Max(cs, cb)
	case Multiply:
		return cs * cb
	case Screen:
		return screen(cs, cb)
	case Overlay:
		return hardLight(cb, cs)
	case HardLight:
		return hardLight(cs, cb)
	case SoftLight:
		return softLight(cs, cb)
	}
	return cs
}

func screen(cs, cb float64) float64 {
	return cb + cs - cb*cs
}

func hardLight(cs, cb float64) float64 {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	return screen(2*cs-1, cb)
}

func softLight(cs, cb float64) float64 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float64
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}
