package aura

import (
	"image"
	"image/color"
	"math"

	"github.com/Juan-Cwq/aura/imop"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// OverlayKind selects the overlay rendered on top of the frame.
type OverlayKind string

// The supported overlays.
const (
	NoOverlay OverlayKind = ""
	Lipstick  OverlayKind = "lipstick"
	Blush     OverlayKind = "blush"
	Eyeshadow OverlayKind = "eyeshadow"
	Eyewear   OverlayKind = "glasses"
	Garment   OverlayKind = "garment"
	FreeDraw  OverlayKind = "draw"
)

// DefaultColor is the makeup color used when none is selected.
const DefaultColor = "#E8A89A"

// Style is the currently selected try-on product.
type Style struct {
	Kind OverlayKind
	// Color is a hex color string used by the cosmetic overlays.
	Color string
	// Intensity ranges from 0 to 100.
	Intensity int

	// Accessory is the eyewear image, Scale its per-style size adjustment.
	Accessory image.Image
	Scale     float64

	Garment *GarmentResult
}

func (s Style) opacity() float64 {
	return utils.Clamp(float64(s.Intensity), 0, 100) / 100
}

func (s Style) color() color.NRGBA {
	if s.Color == "" {
		return utils.HexToRGBA(DefaultColor)
	}
	return utils.HexToRGBA(s.Color)
}

// CompositorOptions holds the rendering constants of the compositor.
type CompositorOptions struct {
	// EyewearMultiplier converts the interpupillary distance into the frame width.
	EyewearMultiplier float64
	// BrowOffset moves the eyewear anchor from the eyebrows towards the eyes,
	// as a fraction of the eyebrow to eye distance.
	BrowOffset float64

	LipstickOpacity  float64
	EyeshadowOpacity float64
	BlushOpacity     float64
	// GlossOpacity is the gloss pass opacity relative to the base pass.
	GlossOpacity float64

	StrokeOpacity    float64
	HighlightWidth   float64
	HighlightOpacity float64

	// ClipSoftness is the blur applied to color masks before clipping.
	ClipSoftness float64
	// MinClipRatio is the minimum mask coverage required to clip a cosmetic layer.
	MinClipRatio float64
	Thresholds   Thresholds
}

// DefaultCompositorOptions returns the options used by the try-on pipeline.
func DefaultCompositorOptions() CompositorOptions {
	return CompositorOptions{
		EyewearMultiplier: 3.0,
		BrowOffset:        0.5,
		LipstickOpacity:   0.6,
		EyeshadowOpacity:  0.4,
		BlushOpacity:      0.35,
		GlossOpacity:      0.3,
		StrokeOpacity:     0.7,
		HighlightWidth:    0.4,
		HighlightOpacity:  0.3,
		ClipSoftness:      1.5,
		MinClipRatio:      0.05,
		Thresholds:        DefaultThresholds,
	}
}

// Compositor renders the overlays onto the frames. The canvas is fully redrawn on
// every call, so the same inputs always produce the same output.
type Compositor struct {
	opts CompositorOptions

	op        *imop.Composite
	clip      *imop.Composite
	multiply  *imop.Blend
	softLight *imop.Blend
	overlay   *imop.Blend
}

// NewCompositor creates a compositor.
func NewCompositor(opts CompositorOptions) *Compositor {
	c := &Compositor{
		opts:      opts,
		op:        imop.InitOp(),
		clip:      imop.InitOp(),
		multiply:  &imop.Blend{Mode: imop.Multiply},
		softLight: &imop.Blend{Mode: imop.SoftLight},
		overlay:   &imop.Blend{Mode: imop.Overlay},
	}
	c.clip.Set(imop.SrcIn)
	return c
}

// Composite returns a new image with the overlays of style and the strokes drawn over backdrop.
// The backdrop is never modified.
func (c *Compositor) Composite(backdrop *image.NRGBA, geo Geometry, strokes []Stroke, style Style) *image.NRGBA {
	canvas := imaging.Clone(backdrop)

	switch style.Kind {
	case Garment:
		if style.Garment != nil && style.Garment.Image != nil {
			canvas = c.drawGarment(canvas, style.Garment)
		}
	case Lipstick:
		c.drawLipstick(canvas, geo, style)
	case Blush:
		c.drawBlush(canvas, geo, style)
	case Eyeshadow:
		c.drawEyeshadow(canvas, geo, style)
	case Eyewear:
		c.drawEyewear(canvas, geo, style)
	}

	for _, s := range strokes {
		c.drawStroke(canvas, s)
	}
	return canvas
}

// radialLayer renders an elliptical gradient fading from col at the center
// to fully transparent at the border. The layer is 2rx x 2ry pixels large.
func radialLayer(rx, ry float64, col color.NRGBA) *image.NRGBA {
	w, h := int(math.Ceil(2*rx)), int(math.Ceil(2*ry))
	if w < 1 || h < 1 {
		return nil
	}
	size := utils.Max(w, h)
	r := float64(size) / 2

	dc := gg.NewContext(size, size)
	grad := gg.NewRadialGradient(r, r, 0, r, r, r)
	grad.AddColorStop(0, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 255})
	grad.AddColorStop(0.6, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 153})
	grad.AddColorStop(1, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 0})
	dc.SetFillStyle(grad)
	dc.DrawCircle(r, r, r)
	dc.Fill()

	return imaging.Resize(dc.Image(), w, h, imaging.Linear)
}

// cosmetic blends a gradient centered on center with a multiply base pass and a soft-light gloss pass.
// When mask is not nil, the base layer is clipped to the pixels of that kind.
func (c *Compositor) cosmetic(canvas *image.NRGBA, center Point, rx, ry float64, col color.NRGBA, opacity float64, mask *MaskKind) {
	layer := radialLayer(rx, ry, col)
	if layer == nil {
		return
	}
	pt := image.Pt(int(math.Round(center.X-rx)), int(math.Round(center.Y-ry)))

	if mask != nil {
		layer = c.clipTo(canvas, layer, pt, *mask)
	}
	c.op.DrawAt(canvas, layer, pt, c.multiply, opacity)

	gloss := radialLayer(rx*0.5, ry*0.5, utils.Tint(col, 0.5))
	if gloss == nil {
		return
	}
	gpt := image.Pt(int(math.Round(center.X-rx*0.5)), int(math.Round(center.Y-ry*0.6)))
	c.op.DrawAt(canvas, gloss, gpt, c.softLight, opacity*c.opts.GlossOpacity)
}

// clipTo keeps only the part of the layer covering pixels of the given kind.
// The layer is returned unchanged when the mask coverage is too low to be trusted.
func (c *Compositor) clipTo(canvas, layer *image.NRGBA, pt image.Point, kind MaskKind) *image.NRGBA {
	rect := layer.Bounds().Add(pt)
	m := c.opts.Thresholds.Mask(canvas, kind, rect)
	if m.Rect.Empty() || m.Ratio() < c.opts.MinClipRatio {
		return layer
	}

	// Align the mask with the layer origin; parts of the layer outside the canvas stay transparent.
	alpha := image.NewNRGBA(layer.Bounds())
	src := m.Image()
	if c.opts.ClipSoftness > 0 {
		src = imaging.Blur(src, c.opts.ClipSoftness)
	}
	off := m.Rect.Min.Sub(pt)
	for y := 0; y < src.Bounds().Dy(); y++ {
		si := src.PixOffset(src.Bounds().Min.X, src.Bounds().Min.Y+y)
		di := alpha.PixOffset(off.X, off.Y+y)
		copy(alpha.Pix[di:di+src.Bounds().Dx()*4], src.Pix[si:si+src.Bounds().Dx()*4])
	}

	return c.clip.Draw(nil, layer, alpha, nil).Img
}

func (c *Compositor) drawLipstick(canvas *image.NRGBA, geo Geometry, style Style) {
	if !geo.HasLips {
		return
	}
	col := style.color()
	opacity := style.opacity() * c.opts.LipstickOpacity

	if len(geo.LipContour) >= 3 {
		c.drawContour(canvas, geo.LipContour, geo.Lips, col, opacity)
		return
	}
	kind := LipMask
	c.cosmetic(canvas, geo.Lips.Center(), float64(geo.Lips.Width)/2, float64(geo.Lips.Height)/2, col, opacity, &kind)
}

// drawContour fills a landmark polygon with a radial gradient.
func (c *Compositor) drawContour(canvas *image.NRGBA, contour []Point, box Rect, col color.NRGBA, opacity float64) {
	const pad = 2
	w, h := box.Width+2*pad, box.Height+2*pad
	if w <= 2*pad || h <= 2*pad {
		return
	}
	origin := image.Pt(box.X-pad, box.Y-pad)
	cx, cy := float64(w)/2, float64(h)/2
	r := math.Max(cx, cy)

	dc := gg.NewContext(w, h)
	grad := gg.NewRadialGradient(cx, cy, 0, cx, cy, r)
	grad.AddColorStop(0, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 255})
	grad.AddColorStop(1, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 140})
	dc.SetFillStyle(grad)
	for i, p := range contour {
		x, y := p.X-float64(origin.X), p.Y-float64(origin.Y)
		if i == 0 {
			dc.MoveTo(x, y)
			continue
		}
		dc.LineTo(x, y)
	}
	dc.ClosePath()
	dc.Fill()

	layer := imaging.Clone(dc.Image())
	c.op.DrawAt(canvas, layer, origin, c.multiply, opacity)
	c.op.DrawAt(canvas, imaging.Blur(layer, 2), origin, c.softLight, opacity*c.opts.GlossOpacity)
}

func (c *Compositor) drawBlush(canvas *image.NRGBA, geo Geometry, style Style) {
	if !geo.HasFace || geo.CheekRadius <= 0 {
		return
	}
	kind := SkinMask
	opacity := style.opacity() * c.opts.BlushOpacity
	for _, cheek := range geo.Cheeks {
		c.cosmetic(canvas, cheek, geo.CheekRadius*1.2, geo.CheekRadius, style.color(), opacity, &kind)
	}
}

func (c *Compositor) drawEyeshadow(canvas *image.NRGBA, geo Geometry, style Style) {
	if !geo.HasEyes {
		return
	}
	w := geo.EyeWidth
	if w <= 0 {
		w = geo.IPD() / 3
	}
	opacity := style.opacity() * c.opts.EyeshadowOpacity
	for _, eye := range []Point{geo.LeftEye, geo.RightEye} {
		lid := Point{X: eye.X, Y: eye.Y - w*0.35}
		c.cosmetic(canvas, lid, w*0.8, w*0.4, style.color(), opacity, nil)
	}
}

// eyewearAnchor returns the point the center of the eyewear is attached to.
func (c *Compositor) eyewearAnchor(geo Geometry) Point {
	eyes := geo.LeftEye.Mid(geo.RightEye)
	if !geo.HasBrows {
		return eyes
	}
	return Point{
		X: geo.BrowMid.X + (eyes.X-geo.BrowMid.X)*c.opts.BrowOffset,
		Y: geo.BrowMid.Y + (eyes.Y-geo.BrowMid.Y)*c.opts.BrowOffset,
	}
}

// EyewearWidth returns the rendered eyewear width for the geometry and per-style scale.
func (c *Compositor) EyewearWidth(geo Geometry, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return geo.IPD() * c.opts.EyewearMultiplier * scale
}

func (c *Compositor) drawEyewear(canvas *image.NRGBA, geo Geometry, style Style) {
	if !geo.HasEyes || style.Accessory == nil {
		return
	}
	width := int(math.Round(c.EyewearWidth(geo, style.Scale)))
	if width < 1 {
		return
	}
	glasses := imaging.Resize(style.Accessory, width, 0, imaging.Lanczos)
	gw, gh := glasses.Bounds().Dx(), glasses.Bounds().Dy()

	// The layer is large enough to hold the rotated eyewear.
	size := int(math.Ceil(math.Hypot(float64(gw), float64(gh))))
	half := float64(size) / 2

	dc := gg.NewContext(size, size)
	dc.RotateAbout(geo.Roll(), half, half)
	dc.DrawImageAnchored(glasses, size/2, size/2, 0.5, 0.5)

	anchor := c.eyewearAnchor(geo)
	pt := image.Pt(int(math.Round(anchor.X-half)), int(math.Round(anchor.Y-half)))
	c.op.DrawAt(canvas, imaging.Clone(dc.Image()), pt, nil, 1)
}

func (c *Compositor) drawStroke(canvas *image.NRGBA, s Stroke) {
	if len(s.Points) == 0 || s.BrushSize <= 0 {
		return
	}
	col := utils.HexToRGBA(s.Color)

	// Strokes loaded from files may omit the pressure.
	samples := make([]StrokePoint, len(s.Points))
	pts := make([]Point, len(s.Points))
	for i, p := range s.Points {
		samples[i] = normalizePressure(p)
		pts[i] = Point{X: p.X, Y: p.Y}
	}
	box := Bounds(pts)
	pad := int(math.Ceil(s.BrushSize)) + 1
	origin := image.Pt(box.X-pad, box.Y-pad)
	w, h := box.Width+2*pad, box.Height+2*pad

	render := func(widthFactor float64, paint color.NRGBA) *image.NRGBA {
		dc := gg.NewContext(w, h)
		dc.SetColor(paint)
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
		if len(samples) == 1 {
			p := samples[0]
			dc.DrawCircle(p.X-float64(origin.X), p.Y-float64(origin.Y), s.BrushSize*widthFactor*p.Pressure/2)
			dc.Fill()
			return imaging.Clone(dc.Image())
		}
		for i := 1; i < len(samples); i++ {
			a, b := samples[i-1], samples[i]
			dc.SetLineWidth(s.BrushSize * widthFactor * (a.Pressure + b.Pressure) / 2)
			dc.DrawLine(a.X-float64(origin.X), a.Y-float64(origin.Y), b.X-float64(origin.X), b.Y-float64(origin.Y))
			dc.Stroke()
		}
		return imaging.Clone(dc.Image())
	}

	c.op.DrawAt(canvas, render(1, col), origin, c.multiply, c.opts.StrokeOpacity)
	c.op.DrawAt(canvas, render(c.opts.HighlightWidth, utils.Tint(col, 0.6)), origin, c.overlay, c.opts.HighlightOpacity)
}

// drawGarment replaces the canvas with the garment try-on result, scaled to cover the canvas.
// Fallback results are labelled as a demo preview.
func (c *Compositor) drawGarment(canvas *image.NRGBA, res *GarmentResult) *image.NRGBA {
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	img := imaging.Fill(res.Image, w, h, imaging.Center, imaging.Lanczos)
	if !res.Fallback {
		return img
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRectangle(0, float64(h)-24, float64(w), 24)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("DEMO PREVIEW", float64(w)/2, float64(h)-12, 0.5, 0.5)

	return imaging.Clone(dc.Image())
}
