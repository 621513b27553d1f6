package aura

import (
	"image"
	"math"
)

// Detector finds facial features in a frame.
type Detector interface {
	Detect(img *image.NRGBA) []Feature
}

// FaceLocator finds the face box the sub-feature search is anchored to.
type FaceLocator interface {
	LocateFace(img *image.NRGBA) (Region, bool)
}

// FeatureOptions holds the acceptance parameters of a face relative feature.
// Areas are expressed as fractions of the face box area.
type FeatureOptions struct {
	Threshold    float64
	MinArea      float64
	ExpectedArea float64
	MinAspect    float64
	MaxAspect    float64
}

func (o FeatureOptions) locate(face Rect, stride int, sel Selection) LocateOptions {
	area := float64(face.Area())
	return LocateOptions{
		Stride:         stride,
		MinPixels:      int(math.Max(1, area*o.MinArea)),
		ExpectedPixels: int(math.Max(1, area*o.ExpectedArea)),
		MinAspect:      o.MinAspect,
		MaxAspect:      o.MaxAspect,
		Select:         sel,
	}
}

// DetectorOptions configures the heuristic detector.
// The confidence divisors are calibration parameters, not derived quantities.
type DetectorOptions struct {
	Thresholds Thresholds
	Stride     int

	// FaceMargin is the fraction of the frame excluded on every side of the face search window.
	FaceMargin float64
	// Face areas are fractions of the frame area.
	Face FeatureOptions

	Eyes FeatureOptions
	Lips FeatureOptions
	Hair FeatureOptions

	NoseConfidence float64
	NoseThreshold  float64

	GlassesDarkRatio   float64
	GlassesBrightRatio float64
	GlassesThreshold   float64
}

// DefaultDetectorOptions returns the options used by the try-on pipeline.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		Thresholds: DefaultThresholds,
		Stride:     2,
		FaceMargin: 0.1,
		Face: FeatureOptions{
			Threshold:    0.3,
			MinArea:      0.005,
			ExpectedArea: 0.04,
			MinAspect:    0.5,
			MaxAspect:    1.5,
		},
		Eyes: FeatureOptions{
			Threshold:    0.3,
			MinArea:      0.002,
			ExpectedArea: 0.006,
			MinAspect:    1,
			MaxAspect:    5,
		},
		Lips: FeatureOptions{
			Threshold:    0.3,
			MinArea:      0.004,
			ExpectedArea: 0.015,
			MinAspect:    1.5,
			MaxAspect:    8,
		},
		Hair: FeatureOptions{
			Threshold:    0.35,
			MinArea:      0.05,
			ExpectedArea: 0.25,
			MinAspect:    0.8,
			MaxAspect:    6,
		},
		NoseConfidence:     0.6,
		NoseThreshold:      0.5,
		GlassesDarkRatio:   0.08,
		GlassesBrightRatio: 0.01,
		GlassesThreshold:   0.5,
	}
}

// SkinLocator finds the face as the largest skin colored region inside a centered window.
type SkinLocator struct {
	opts DetectorOptions
}

// NewSkinLocator creates a skin based face locator.
func NewSkinLocator(opts DetectorOptions) *SkinLocator {
	return &SkinLocator{opts: opts}
}

// LocateFace implements FaceLocator.
func (l *SkinLocator) LocateFace(img *image.NRGBA) (Region, bool) {
	b := img.Bounds()
	mx := int(float64(b.Dx()) * l.opts.FaceMargin)
	my := int(float64(b.Dy()) * l.opts.FaceMargin)
	window := image.Rect(b.Min.X+mx, b.Min.Y+my, b.Max.X-mx, b.Max.Y-my)

	area := float64(b.Dx() * b.Dy())
	mask := l.opts.Thresholds.Mask(img, SkinMask, window)

	return Locate(mask, window, LocateOptions{
		Stride:         l.opts.Stride,
		MinPixels:      int(area * l.opts.Face.MinArea),
		ExpectedPixels: int(area * l.opts.Face.ExpectedArea),
		MinAspect:      l.opts.Face.MinAspect,
		MaxAspect:      l.opts.Face.MaxAspect,
		Select:         Largest,
	})
}

// FeatureDetector is the heuristic Detector. The face is located first and every other
// feature is searched only inside windows relative to an accepted face box.
type FeatureDetector struct {
	Options DetectorOptions
	Locator FaceLocator
}

// NewFeatureDetector creates a detector using the skin locator for the face.
func NewFeatureDetector(opts DetectorOptions) *FeatureDetector {
	return &FeatureDetector{
		Options: opts,
		Locator: NewSkinLocator(opts),
	}
}

// Detect implements Detector. The result is empty when no face clears its threshold.
func (d *FeatureDetector) Detect(img *image.NRGBA) []Feature {
	region, ok := d.Locator.LocateFace(img)
	if !ok || region.Confidence < d.Options.Face.Threshold {
		return nil
	}

	bounds := img.Bounds()
	face := RectFrom(region.Box()).Clamp(bounds)
	features := []Feature{{Kind: Face, Box: face, Confidence: region.Confidence}}

	if f, ok := d.detectEyes(img, face); ok {
		features = append(features, f)
	}
	if f, ok := d.detectNose(face); ok {
		features = append(features, f)
	}
	if f, ok := d.detectLips(img, face); ok {
		features = append(features, f)
	}
	if f, ok := d.detectHair(img, face); ok {
		features = append(features, f)
	}
	if f, ok := d.detectGlasses(img, face); ok {
		features = append(features, f)
	}
	return features
}

// eyeBand returns the horizontal band of the face where the eyes are searched.
func eyeBand(face Rect) Rect {
	return face.Sub(0.1, 0.2, 0.9, 0.45)
}

func (d *FeatureDetector) detectEyes(img *image.NRGBA, face Rect) (Feature, bool) {
	opts := d.Options.Eyes
	band := eyeBand(face).Clamp(img.Bounds())
	if band.Area() == 0 {
		return Feature{}, false
	}

	mask := d.Options.Thresholds.Mask(img, EyeMask, band.Rectangle())
	lo := opts.locate(face, d.Options.Stride, Largest)

	left, okL := Locate(mask, band.Sub(0, 0, 0.5, 1).Rectangle(), lo)
	right, okR := Locate(mask, band.Sub(0.5, 0, 1, 1).Rectangle(), lo)
	if !okL || !okR {
		return Feature{}, false
	}

	// Both eyes sit on roughly the same row.
	lc, rc := RectFrom(left.Box()).Center(), RectFrom(right.Box()).Center()
	if math.Abs(lc.Y-rc.Y) > float64(band.Height)/2 {
		return Feature{}, false
	}

	conf := (left.Confidence + right.Confidence) / 2
	if conf < opts.Threshold {
		return Feature{}, false
	}
	box := left.Box().Union(right.Box())

	return Feature{
		Kind:       Eyes,
		Box:        RectFrom(box),
		Confidence: conf,
		Parts:      []Rect{RectFrom(left.Box()), RectFrom(right.Box())},
	}, true
}

// detectNose estimates the nose from the face proportions.
func (d *FeatureDetector) detectNose(face Rect) (Feature, bool) {
	if d.Options.NoseConfidence < d.Options.NoseThreshold {
		return Feature{}, false
	}
	return Feature{
		Kind:       Nose,
		Box:        face.Sub(1.0/3, 0.4, 2.0/3, 0.65),
		Confidence: d.Options.NoseConfidence,
	}, true
}

func (d *FeatureDetector) detectLips(img *image.NRGBA, face Rect) (Feature, bool) {
	opts := d.Options.Lips
	window := face.Sub(0.2, 0.6, 0.8, 0.85).Clamp(img.Bounds())
	if window.Area() == 0 {
		return Feature{}, false
	}

	mask := d.Options.Thresholds.Mask(img, LipMask, window.Rectangle())
	r, ok := Locate(mask, window.Rectangle(), opts.locate(face, d.Options.Stride, Elongated))
	if !ok || r.Confidence < opts.Threshold {
		return Feature{}, false
	}
	return Feature{Kind: Lips, Box: RectFrom(r.Box()), Confidence: r.Confidence}, true
}

func (d *FeatureDetector) detectHair(img *image.NRGBA, face Rect) (Feature, bool) {
	opts := d.Options.Hair
	window := face.Sub(-0.1, -0.3, 1.1, 0.2).Clamp(img.Bounds())
	if window.Area() == 0 {
		return Feature{}, false
	}

	mask := d.Options.Thresholds.Mask(img, HairMask, window.Rectangle())
	r, ok := Locate(mask, window.Rectangle(), opts.locate(face, d.Options.Stride, Largest))
	if !ok || r.Confidence < opts.Threshold {
		return Feature{}, false
	}
	return Feature{Kind: Hair, Box: RectFrom(r.Box()), Confidence: r.Confidence}, true
}

// detectGlasses reports eyewear only when dark frame pixels and bright lens
// reflections co-occur in the eye band.
func (d *FeatureDetector) detectGlasses(img *image.NRGBA, face Rect) (Feature, bool) {
	band := eyeBand(face).Clamp(img.Bounds())
	if band.Area() == 0 {
		return Feature{}, false
	}
	t := d.Options.Thresholds
	dark := t.Mask(img, DarkMask, band.Rectangle()).Ratio()
	bright := t.Mask(img, ReflectionMask, band.Rectangle()).Ratio()

	if dark < d.Options.GlassesDarkRatio || bright < d.Options.GlassesBrightRatio {
		return Feature{}, false
	}
	conf := (math.Min(dark/(2*d.Options.GlassesDarkRatio), 1) +
		math.Min(bright/(2*d.Options.GlassesBrightRatio), 1)) / 2
	if conf < d.Options.GlassesThreshold {
		return Feature{}, false
	}
	return Feature{Kind: Glasses, Box: band, Confidence: conf}, true
}
