package aura

import (
	"image"
	"image/color"
)

// MaskKind tags a Mask with the pixel category it was built from.
type MaskKind int

// The supported mask kinds.
const (
	SkinMask MaskKind = iota
	LipMask
	EyeMask
	DarkMask
	HairMask
	ReflectionMask
)

func (k MaskKind) String() string {
	switch k {
	case SkinMask:
		return "skin"
	case LipMask:
		return "lip"
	case EyeMask:
		return "eye"
	case DarkMask:
		return "dark"
	case HairMask:
		return "hair"
	case ReflectionMask:
		return "reflection"
	}
	return "unknown"
}

func (k MaskKind) class() Class {
	switch k {
	case SkinMask:
		return ClassSkin
	case LipMask:
		return ClassLip
	case EyeMask:
		return ClassEyeDark
	case DarkMask:
		return ClassFrameDark
	case HairMask:
		return ClassHair
	case ReflectionMask:
		return ClassReflection
	}
	return 0
}

// Mask is a boolean grid over a rectangle of the frame.
// Pixels outside the rectangle are always false.
type Mask struct {
	Kind MaskKind
	Rect image.Rectangle
	bits []bool
}

// NewMask allocates an empty mask covering rect.
func NewMask(kind MaskKind, rect image.Rectangle) *Mask {
	return &Mask{
		Kind: kind,
		Rect: rect,
		bits: make([]bool, rect.Dx()*rect.Dy()),
	}
}

// Mask classifies every pixel of img inside rect. The rectangle is clipped to the image bounds.
func (t Thresholds) Mask(img *image.NRGBA, kind MaskKind, rect image.Rectangle) *Mask {
	rect = rect.Intersect(img.Bounds())
	m := NewMask(kind, rect)
	want := kind.class()

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := img.PixOffset(rect.Min.X, y)
		row := (y - rect.Min.Y) * rect.Dx()
		for x := 0; x < rect.Dx(); x++ {
			r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			m.bits[row+x] = t.Classify(r, g, b).Has(want)
			i += 4
		}
	}
	return m
}

// At reports whether the pixel at (x, y) is set.
func (m *Mask) At(x, y int) bool {
	if !(image.Point{x, y}).In(m.Rect) {
		return false
	}
	return m.bits[(y-m.Rect.Min.Y)*m.Rect.Dx()+x-m.Rect.Min.X]
}

// Set marks the pixel at (x, y). Points outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if !(image.Point{x, y}).In(m.Rect) {
		return
	}
	m.bits[(y-m.Rect.Min.Y)*m.Rect.Dx()+x-m.Rect.Min.X] = v
}

// Count returns the number of set pixels inside rect.
func (m *Mask) Count(rect image.Rectangle) int {
	rect = rect.Intersect(m.Rect)
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if m.bits[(y-m.Rect.Min.Y)*m.Rect.Dx()+x-m.Rect.Min.X] {
				n++
			}
		}
	}
	return n
}

// Ratio returns the fraction of set pixels over the whole mask.
func (m *Mask) Ratio() float64 {
	area := m.Rect.Dx() * m.Rect.Dy()
	if area == 0 {
		return 0
	}
	return float64(m.Count(m.Rect)) / float64(area)
}

// Image converts the mask into an alpha image, opaque white where the mask is set.
// The returned image has the same bounds as the mask.
func (m *Mask) Image() *image.NRGBA {
	dst := image.NewNRGBA(m.Rect)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			if m.At(x, y) {
				dst.SetNRGBA(x, y, white)
			}
		}
	}
	return dst
}
