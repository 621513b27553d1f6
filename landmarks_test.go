package aura

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLandmarks_FlipTwiceIsIdentity(t *testing.T) {
	assert := assert.New(t)

	for _, p := range []Point{{0, 0}, {100, 200}, {639, 479}, {320.5, 12.25}} {
		assert.Equal(p, FlipPoint(FlipPoint(p, 640), 640))
	}

	face := LandmarkFace{
		Box: Rect{X: 100, Y: 50, Width: 200, Height: 240},
		Landmarks: FacialLandmarks{
			LeftEye:  []Point{{150, 150}, {170, 152}},
			OuterLip: []Point{{180, 250}, {200, 240}, {220, 250}},
		},
	}
	assert.Equal(face, face.Mirror(640).Mirror(640))
}

func TestLandmarks_MirrorFlipsBox(t *testing.T) {
	face := LandmarkFace{Box: Rect{X: 100, Y: 50, Width: 200, Height: 240}}
	assert.Equal(t, Rect{X: 340, Y: 50, Width: 200, Height: 240}, face.Mirror(640).Box)
}

func TestLandmarks_RollAfterFlip(t *testing.T) {
	assert := assert.New(t)

	left, right := Point{100, 200}, Point{200, 200}
	fl, fr := FlipPoint(left, 640), FlipPoint(right, 640)
	assert.Equal(Point{540, 200}, fl)
	assert.Equal(Point{440, 200}, fr)
	assert.InDelta(math.Pi, EyeRoll(fl, fr), 1e-9)

	// The swapped eye order describes a level head.
	assert.InDelta(0, Tilt(EyeRoll(fl, fr)), 1e-9)

	face := LandmarkFace{Landmarks: FacialLandmarks{
		LeftEye:  []Point{left},
		RightEye: []Point{right},
	}}
	geo := GeometryFromFace(face.Mirror(640))
	assert.True(geo.HasEyes)
	assert.Equal(fl, geo.LeftEye)
	assert.InDelta(0, geo.Roll(), 1e-9)
	assert.InDelta(100, geo.IPD(), 1e-9)
}

func TestLandmarks_Tilt(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.1, Tilt(0.1), 1e-9)
	assert.InDelta(0.1, Tilt(math.Pi+0.1), 1e-9)
	assert.InDelta(-0.1, Tilt(math.Pi-0.1), 1e-9)
	assert.InDelta(math.Pi/2, Tilt(-math.Pi/2), 1e-9)
}

func TestLandmarks_Centroid(t *testing.T) {
	assert := assert.New(t)

	c, ok := Centroid([]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	assert.True(ok)
	assert.Equal(Point{5, 5}, c)

	_, ok = Centroid(nil)
	assert.False(ok)

	assert.Equal(Rect{X: 1, Y: 2, Width: 9, Height: 8}, Bounds([]Point{{1.5, 2}, {9.2, 10}}))
}

func TestLandmarks_DedupFaces(t *testing.T) {
	assert := assert.New(t)

	faces := []LandmarkFace{
		{Index: 0, Box: Rect{X: 0, Y: 0, Width: 100, Height: 100}, Confidence: 0.7},
		{Index: 1, Box: Rect{X: 10, Y: 10, Width: 100, Height: 100}, Confidence: 0.9},
		{Index: 2, Box: Rect{X: 300, Y: 0, Width: 100, Height: 100}, Confidence: 0.8},
	}
	kept := DedupFaces(faces)
	assert.Len(kept, 2)
	assert.Equal(1, kept[0].Index)
	assert.Equal(2, kept[1].Index)
	assert.Len(faces, 3, "the input is left untouched")
}

func TestGeometry_FromFace(t *testing.T) {
	assert := assert.New(t)

	face := LandmarkFace{
		Box: Rect{X: 100, Y: 100, Width: 200, Height: 240},
		Landmarks: FacialLandmarks{
			FaceOutline:  []Point{{100, 150}, {200, 340}, {300, 150}},
			LeftEye:      []Point{{240, 180}, {260, 180}},
			RightEye:     []Point{{140, 180}, {160, 180}},
			LeftEyebrow:  []Point{{240, 160}, {260, 160}},
			RightEyebrow: []Point{{140, 160}, {160, 160}},
			OuterLip:     []Point{{170, 280}, {200, 270}, {230, 280}, {200, 295}},
		},
	}
	geo := GeometryFromFace(face)

	assert.True(geo.HasFace)
	assert.True(geo.HasBrows)
	assert.Equal(Point{200, 160}, geo.BrowMid)
	assert.True(geo.HasLips)
	assert.Equal(Rect{X: 170, Y: 270, Width: 60, Height: 25}, geo.Lips)
	assert.Less(geo.Cheeks[0].X, geo.Cheeks[1].X)
	assert.Greater(geo.Cheeks[0].Y, 180.0)
	assert.Less(geo.Cheeks[0].Y, 340.0)
}
