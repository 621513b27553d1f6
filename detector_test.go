package aura

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	grayBg     = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	skinTone   = color.NRGBA{R: 224, G: 172, B: 138, A: 255}
	irisTone   = color.NRGBA{R: 40, G: 30, B: 30, A: 255}
	lipTone    = color.NRGBA{R: 190, G: 60, B: 70, A: 255}
	frameTone  = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
	reflection = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
)

func newFrame(w, h int, bg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	return img
}

func fillEllipse(img *image.NRGBA, cx, cy, rx, ry float64, c color.NRGBA) {
	for y := int(cy - ry); y <= int(cy+ry); y++ {
		for x := int(cx - rx); x <= int(cx+rx); x++ {
			dx, dy := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			if dx*dx+dy*dy <= 1 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func strokeRect(img *image.NRGBA, r image.Rectangle, width int, c color.NRGBA) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// faceFrame draws a 120x150 skin ellipse centered in a 640x480 gray frame.
func faceFrame() *image.NRGBA {
	img := newFrame(640, 480, grayBg)
	fillEllipse(img, 320, 240, 60, 75, skinTone)
	return img
}

func withEyes(img *image.NRGBA) *image.NRGBA {
	fillEllipse(img, 295, 212, 10, 5, irisTone)
	fillEllipse(img, 345, 212, 10, 5, irisTone)
	return img
}

func withLips(img *image.NRGBA) *image.NRGBA {
	fillEllipse(img, 320, 270, 20, 7, lipTone)
	return img
}

func kinds(features []Feature) []FeatureKind {
	out := make([]FeatureKind, 0, len(features))
	for _, f := range features {
		out = append(out, f.Kind)
	}
	return out
}

func TestDetector_SkinEllipse(t *testing.T) {
	assert := assert.New(t)

	features := NewFeatureDetector(DefaultDetectorOptions()).Detect(faceFrame())
	face, ok := Find(features, Face)
	require.True(t, ok)

	assert.Greater(face.Confidence, 0.5)
	assert.InDelta(260, face.Box.X, 3)
	assert.InDelta(165, face.Box.Y, 3)
	assert.InDelta(121, face.Box.Width, 3)
	assert.InDelta(151, face.Box.Height, 3)

	assert.NotContains(kinds(features), Eyes)
	assert.NotContains(kinds(features), Lips)
	assert.NotContains(kinds(features), Hair)
	assert.NotContains(kinds(features), Glasses)
}

func TestDetector_EyesAndLips(t *testing.T) {
	assert := assert.New(t)

	img := withLips(withEyes(faceFrame()))
	features := NewFeatureDetector(DefaultDetectorOptions()).Detect(img)
	assert.Equal([]FeatureKind{Face, Eyes, Nose, Lips}, kinds(features))

	eyes, _ := Find(features, Eyes)
	require.Len(t, eyes.Parts, 2)
	assert.InDelta(295, eyes.Parts[0].Center().X, 2)
	assert.InDelta(345, eyes.Parts[1].Center().X, 2)
	assert.InDelta(212, eyes.Parts[0].Center().Y, 2)

	lips, _ := Find(features, Lips)
	assert.InDelta(320, lips.Box.Center().X, 2)
	assert.InDelta(270, lips.Box.Center().Y, 2)
	assert.Greater(lips.Box.Width, lips.Box.Height)

	for _, f := range features {
		assert.GreaterOrEqual(f.Confidence, 0.0)
		assert.LessOrEqual(f.Confidence, 1.0)
		assert.True(f.Box.Rectangle().In(img.Bounds()))
	}

	geo := GeometryFromFeatures(features)
	assert.True(geo.HasEyes)
	assert.True(geo.HasLips)
	// On the mirrored canvas the subject's right eye is the one on the left.
	assert.Less(geo.RightEye.X, geo.LeftEye.X)
	assert.InDelta(50, geo.IPD(), 3)
	assert.InDelta(0, geo.Roll(), 0.05)
}

func TestDetector_NoFaceNoFeatures(t *testing.T) {
	img := newFrame(640, 480, grayBg)
	// Features without the surrounding skin must not be reported.
	withLips(withEyes(img))
	fillRect(img, image.Rect(250, 80, 390, 150), irisTone)

	features := NewFeatureDetector(DefaultDetectorOptions()).Detect(img)
	assert.Empty(t, features)
}

func TestDetector_Hair(t *testing.T) {
	img := faceFrame()
	fillRect(img, image.Rect(250, 120, 390, 175), color.NRGBA{R: 60, G: 40, B: 30, A: 255})
	fillEllipse(img, 320, 240, 60, 75, skinTone)

	features := NewFeatureDetector(DefaultDetectorOptions()).Detect(img)
	assert.Contains(t, kinds(features), Hair)
}

func TestDetector_GlassesNeedBothCues(t *testing.T) {
	lenses := []image.Rectangle{image.Rect(280, 202, 311, 224), image.Rect(330, 202, 361, 224)}
	frames := func(img *image.NRGBA) *image.NRGBA {
		for _, r := range lenses {
			strokeRect(img, r, 3, frameTone)
		}
		return img
	}
	glints := func(img *image.NRGBA) *image.NRGBA {
		for _, r := range lenses {
			fillRect(img, image.Rect(r.Min.X+5, r.Min.Y+5, r.Min.X+13, r.Min.Y+9), reflection)
		}
		return img
	}

	testCases := []struct {
		name    string
		img     *image.NRGBA
		glasses bool
	}{
		{"frames and reflections", glints(frames(faceFrame())), true},
		{"frames only", frames(faceFrame()), false},
		{"reflections only", glints(faceFrame()), false},
		{"dark eyes only", withEyes(faceFrame()), false},
		{"no face", glints(frames(newFrame(640, 480, grayBg))), false},
	}

	det := NewFeatureDetector(DefaultDetectorOptions())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			features := det.Detect(tc.img)
			_, ok := Find(features, Glasses)
			assert.Equal(t, tc.glasses, ok)
			if ok {
				assert.True(t, GeometryFromFeatures(features).Glasses)
			}
		})
	}
}

type fixedLocator struct {
	region Region
	ok     bool
}

func (l fixedLocator) LocateFace(*image.NRGBA) (Region, bool) { return l.region, l.ok }

func TestDetector_FaceThreshold(t *testing.T) {
	det := NewFeatureDetector(DefaultDetectorOptions())
	img := withEyes(faceFrame())

	det.Locator = fixedLocator{region: Region{MinX: 260, MinY: 165, MaxX: 380, MaxY: 315, Confidence: 0.1}, ok: true}
	assert.Empty(t, det.Detect(img))

	det.Locator = fixedLocator{region: Region{MinX: 260, MinY: 165, MaxX: 380, MaxY: 315, Confidence: 0.9}, ok: true}
	assert.Contains(t, kinds(det.Detect(img)), Eyes)

	det.Locator = fixedLocator{}
	assert.Empty(t, det.Detect(img))
}
