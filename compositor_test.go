package aura

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eyeGeometry() Geometry {
	var g Geometry
	g.setFace(Rect{X: 60, Y: 40, Width: 140, Height: 170})
	g.LeftEye = Point{X: 160, Y: 100}
	g.RightEye = Point{X: 100, Y: 100}
	g.EyeWidth = 20
	g.HasEyes = true
	return g
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	return newFrame(w, h, c)
}

func changed(a, b *image.NRGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestCompositor_EyewearWidth(t *testing.T) {
	assert := assert.New(t)
	c := NewCompositor(DefaultCompositorOptions())
	geo := eyeGeometry()

	assert.InDelta(60, geo.IPD(), 1e-9)
	assert.InDelta(180, c.EyewearWidth(geo, 1), 1e-9)
	assert.InDelta(216, c.EyewearWidth(geo, 1.2), 1e-9)
	assert.InDelta(180, c.EyewearWidth(geo, 0), 1e-9, "a missing scale means no adjustment")
}

func TestCompositor_EyewearAnchor(t *testing.T) {
	assert := assert.New(t)
	c := NewCompositor(DefaultCompositorOptions())

	geo := eyeGeometry()
	assert.Equal(Point{X: 130, Y: 100}, c.eyewearAnchor(geo))

	geo.BrowMid = Point{X: 130, Y: 80}
	geo.HasBrows = true
	assert.Equal(Point{X: 130, Y: 90}, c.eyewearAnchor(geo))
}

func TestCompositor_Eyewear(t *testing.T) {
	assert := assert.New(t)
	c := NewCompositor(DefaultCompositorOptions())
	backdrop := solidImage(260, 240, skinTone)
	orig := append([]uint8(nil), backdrop.Pix...)
	geo := eyeGeometry()

	t.Run("missing accessory is skipped", func(t *testing.T) {
		out := c.Composite(backdrop, geo, nil, Style{Kind: Eyewear})
		assert.Equal(backdrop.Pix, out.Pix)
	})

	t.Run("no eyes", func(t *testing.T) {
		glasses := solidImage(90, 30, frameTone)
		out := c.Composite(backdrop, Geometry{}, nil, Style{Kind: Eyewear, Accessory: glasses})
		assert.Equal(backdrop.Pix, out.Pix)
	})

	t.Run("drawn around the eyes", func(t *testing.T) {
		glasses := solidImage(90, 30, frameTone)
		out := c.Composite(backdrop, geo, nil, Style{Kind: Eyewear, Accessory: glasses, Scale: 1})

		// The frame is 180px wide and 60px tall, centered on (130, 100).
		assert.Equal(frameTone, out.NRGBAAt(130, 100))
		assert.Equal(frameTone, out.NRGBAAt(50, 100))
		assert.Equal(skinTone, out.NRGBAAt(30, 100))
		assert.Equal(skinTone, out.NRGBAAt(130, 150))
	})

	assert.Equal(orig, backdrop.Pix, "the backdrop is never modified")
}

func TestCompositor_Cosmetics(t *testing.T) {
	c := NewCompositor(DefaultCompositorOptions())

	img := withLips(withEyes(faceFrame()))
	features := NewFeatureDetector(DefaultDetectorOptions()).Detect(img)
	geo := GeometryFromFeatures(features)
	require.True(t, geo.HasLips)

	testCases := []struct {
		kind   OverlayKind
		region image.Rectangle
	}{
		{Lipstick, geo.Lips.Rectangle()},
		{Blush, image.Rect(260, 240, 381, 300)},
		{Eyeshadow, image.Rect(280, 190, 360, 215)},
	}
	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert := assert.New(t)

			out := c.Composite(img, geo, nil, Style{Kind: tc.kind, Color: "#B03050", Intensity: 100})
			assert.Greater(changed(img, out, tc.region), 0)
			assert.Zero(changed(img, out, image.Rect(0, 0, 200, 100)), "far from the face")

			none := c.Composite(img, geo, nil, Style{Kind: tc.kind, Color: "#B03050", Intensity: 0})
			assert.Zero(changed(img, none, img.Bounds()), "zero intensity draws nothing")
		})
	}
}

func TestCompositor_LipstickStaysOnLips(t *testing.T) {
	c := NewCompositor(DefaultCompositorOptions())
	img := withLips(withEyes(faceFrame()))
	geo := GeometryFromFeatures(NewFeatureDetector(DefaultDetectorOptions()).Detect(img))

	out := c.Composite(img, geo, nil, Style{Kind: Lipstick, Color: "#B03050", Intensity: 100})
	base := out.NRGBAAt(320, 270)
	assert.Less(t, base.G, lipTone.G, "multiply darkens the lips")
}

func TestCompositor_StrokeReplay(t *testing.T) {
	assert := assert.New(t)

	rec := NewStrokeRecorder()
	rec.now = func() time.Time { return time.Unix(0, 0) }
	rec.Down(StrokePoint{X: 20, Y: 20, Pressure: 0.5}, "#aa2244", 8)
	for i := 1; i <= 10; i++ {
		rec.Move(StrokePoint{X: 20 + float64(i)*8, Y: 20 + float64(i)*4})
	}
	rec.Up()
	rec.Down(StrokePoint{X: 50, Y: 100}, "", 12)
	rec.Up()
	strokes := rec.Strokes()
	require.Len(t, strokes, 2)

	c := NewCompositor(DefaultCompositorOptions())
	backdrop := solidImage(160, 140, grayBg)

	first := c.Composite(backdrop, Geometry{}, strokes, Style{})
	second := c.Composite(backdrop, Geometry{}, strokes, Style{})
	assert.Equal(first.Pix, second.Pix)
	assert.Greater(changed(backdrop, first, first.Bounds()), 0)
	assert.Equal(grayBg, first.NRGBAAt(150, 5))

	// Strokes are drawn over whatever overlay the style renders.
	withStyle := NewCompositor(DefaultCompositorOptions()).Composite(backdrop, eyeGeometry(), strokes,
		Style{Kind: Eyeshadow, Color: "#6A4C93", Intensity: 100})
	assert.NotEqual(first.Pix, withStyle.Pix)

	// A zero intensity renders no overlay at all.
	noOverlay := c.Composite(backdrop, eyeGeometry(), strokes, Style{Kind: Eyeshadow, Color: "#6A4C93"})
	assert.Equal(first.Pix, noOverlay.Pix)
}

func TestCompositor_StrokeWithoutPressure(t *testing.T) {
	var strokes []Stroke
	err := json.Unmarshal([]byte(`[{"color":"#aa2244","brush_size":10,"points":[{"x":20,"y":20},{"x":60,"y":40}]}]`), &strokes)
	require.NoError(t, err)
	require.Len(t, strokes, 1)

	backdrop := solidImage(100, 80, grayBg)
	out := NewCompositor(DefaultCompositorOptions()).Composite(backdrop, Geometry{}, strokes, Style{})
	assert.Greater(t, changed(backdrop, out, out.Bounds()), 0)

	// A single dot without pressure is drawn too.
	strokes[0].Points = strokes[0].Points[:1]
	out = NewCompositor(DefaultCompositorOptions()).Composite(backdrop, Geometry{}, strokes, Style{})
	assert.Greater(t, changed(backdrop, out, out.Bounds()), 0)
}

func TestCompositor_GarmentFallback(t *testing.T) {
	assert := assert.New(t)
	c := NewCompositor(DefaultCompositorOptions())
	backdrop := solidImage(200, 100, grayBg)
	user := solidImage(100, 50, skinTone)

	res := TryOnGarment(context.Background(), nil, user, user, UpperBody, "jacket")
	assert.True(res.Fallback)
	assert.Contains(res.Notice, ErrNoClothingService.Error())

	out := c.Composite(backdrop, Geometry{}, nil, Style{Kind: Garment, Garment: &res})
	assert.Equal(backdrop.Bounds(), out.Bounds())
	assert.Equal(skinTone, out.NRGBAAt(100, 30), "the user photo is shown")
	assert.NotEqual(skinTone, out.NRGBAAt(100, 95), "labelled as a demo preview")

	result := GarmentResult{Image: solidImage(100, 50, lipTone)}
	out = c.Composite(backdrop, Geometry{}, nil, Style{Kind: Garment, Garment: &result})
	assert.Equal(lipTone, out.NRGBAAt(100, 95))
}
