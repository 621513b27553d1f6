package imop

import (
	"image"

	"github.com/Juan-Cwq/aura/utils"
)

// The Porter-Duff composition operators.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// NewBitmap allocates a transparent bitmap of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// Composite holds the currently active composition operator.
type Composite struct {
	current string
	ops     []string
}

// InitOp initializes a new composition operation, using SrcOver as default.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear, Copy, Dst,
			SrcOver, DstOver,
			SrcIn, DstIn,
			SrcOut, DstOut,
			SrcAtop, DstAtop,
			Xor,
		},
	}
}

// Set changes the active operator. Unsupported operators are ignored.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// Get returns the active operator.
func (op *Composite) Get() string {
	return op.current
}

// factors returns the Fa and Fb coefficients of the active operator.
func (op *Composite) factors(as, ab float64) (float64, float64) {
	switch op.current {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// mix composes a single non-premultiplied source pixel over a backdrop pixel.
// When blend is not nil the source color is first mixed with the backdrop.
func (op *Composite) mix(s, b []uint8, blend *Blend, opacity float64) [4]uint8 {
	as := float64(s[3]) / 255 * opacity
	ab := float64(b[3]) / 255
	fa, fb := op.factors(as, ab)

	ao := as*fa + ab*fb
	if ao <= 0 {
		return [4]uint8{}
	}

	var out [4]uint8
	for i := 0; i < 3; i++ {
		cs := float64(s[i]) / 255
		cb := float64(b[i]) / 255
		if blend != nil {
			cs = (1-ab)*cs + ab*blend.Apply(cs, cb)
		}
		co := (as*fa*cs + ab*fb*cb) / ao
		out[i] = uint8(utils.Clamp(co, 0, 1)*255 + 0.5)
	}
	out[3] = uint8(utils.Clamp(ao, 0, 1)*255 + 0.5)

	return out
}

// Draw composes the src image over the dst image and writes the result into bitmap.
// All three images are expected to share the same bounds. The dst image is left untouched.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) *Bitmap {
	if bitmap == nil {
		bitmap = NewBitmap(dst.Bounds())
	}
	rect := src.Bounds().Intersect(dst.Bounds()).Intersect(bitmap.Img.Bounds())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			si := src.PixOffset(x, y)
			di := dst.PixOffset(x, y)
			px := op.mix(src.Pix[si:si+4], dst.Pix[di:di+4], blend, 1)

			bi := bitmap.Img.PixOffset(x, y)
			copy(bitmap.Img.Pix[bi:bi+4], px[:])
		}
	}
	return bitmap
}

// DrawAt composes the src layer in place over dst, with the layer origin placed at pt.
// The layer alpha is scaled by opacity, which is expected in the [0, 1] range.
// Only the overlapping area is touched, which keeps small overlays cheap on large frames.
func (op *Composite) DrawAt(dst, src *image.NRGBA, pt image.Point, blend *Blend, opacity float64) {
	opacity = utils.Clamp(opacity, 0, 1)
	if opacity == 0 && op.current == SrcOver {
		return
	}
	sb := src.Bounds()
	rect := sb.Sub(sb.Min).Add(pt).Intersect(dst.Bounds())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			si := src.PixOffset(sb.Min.X+x-pt.X, sb.Min.Y+y-pt.Y)
			if src.Pix[si+3] == 0 && op.current == SrcOver {
				continue
			}
			di := dst.PixOffset(x, y)
			px := op.mix(src.Pix[si:si+4], dst.Pix[di:di+4], blend, opacity)
			copy(dst.Pix[di:di+4], px[:])
		}
	}
}
