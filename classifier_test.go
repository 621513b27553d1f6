package aura

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_LipMargins(t *testing.T) {
	assert := assert.New(t)

	for r := 131; r <= 255; r += 4 {
		for g := 0; g <= r-20; g += 5 {
			for b := 0; b <= r-15; b += 5 {
				assert.True(IsLipColor(uint8(r), uint8(g), uint8(b)), "rgb(%d,%d,%d)", r, g, b)
			}
		}
	}

	assert.False(IsLipColor(130, 40, 40), "the red floor is exclusive")
	assert.False(IsLipColor(200, 181, 100), "red must exceed green by the margin")
	assert.False(IsLipColor(200, 100, 186), "red must exceed blue by the margin")
}

func TestClassifier_NeutralGrayIsNothing(t *testing.T) {
	assert := assert.New(t)

	for v := 0; v < 256; v++ {
		c := uint8(v)
		assert.False(IsSkin(c, c, c), "gray %d", v)
		assert.False(IsLipColor(c, c, c), "gray %d", v)
	}
}

func TestClassifier_SkinTones(t *testing.T) {
	testCases := []struct {
		name    string
		r, g, b uint8
		skin    bool
	}{
		{"light", 224, 172, 138, true},
		{"medium", 198, 134, 66, true},
		{"deep", 110, 70, 45, true},
		{"gray", 128, 128, 128, false},
		{"lip red", 190, 60, 70, false},
		{"blue", 60, 90, 200, false},
		{"near black", 40, 30, 30, false},
		{"white", 250, 250, 250, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.skin, IsSkin(tc.r, tc.g, tc.b))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	assert := assert.New(t)
	th := DefaultThresholds

	// A warm skin tone also passes the lip margins, but skin wins.
	assert.True(th.IsLipColor(224, 172, 138))
	c := th.Classify(224, 172, 138)
	assert.True(c.Has(ClassSkin))
	assert.False(c.Has(ClassLip))

	assert.True(th.Classify(190, 60, 70).Has(ClassLip))

	dark := th.Classify(40, 30, 30)
	assert.True(dark.Has(ClassEyeDark))
	assert.True(dark.Has(ClassFrameDark))
	assert.True(dark.Has(ClassHair))

	assert.Equal(ClassReflection, th.Classify(250, 250, 250))
	assert.Zero(th.Classify(128, 128, 128))
}

func TestClassifier_FrameDark(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsFrameDark(10, 10, 10))
	assert.False(IsFrameDark(70, 10, 10), "every channel must be low")
	assert.False(IsFrameDark(55, 55, 55), "too bright")
}

func TestMask_LipMaskExcludesSkin(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 224, G: 172, B: 138, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 190, G: 60, B: 70, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{R: 190, G: 60, B: 70, A: 255})

	m := DefaultThresholds.Mask(img, LipMask, img.Bounds())
	assert.False(m.At(0, 0))
	assert.True(m.At(1, 0))
	assert.False(m.At(2, 0))
	assert.Equal(2, m.Count(m.Rect))
	assert.InDelta(0.5, m.Ratio(), 1e-9)
	assert.False(m.At(10, 10), "out of bounds")

	alpha := m.Image()
	assert.Equal(uint8(255), alpha.NRGBAAt(1, 0).A)
	assert.Equal(uint8(0), alpha.NRGBAAt(0, 0).A)
}
