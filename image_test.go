package aura

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage_ToNRGBA(t *testing.T) {
	rect := image.Rect(-1, -1, 15, 15)
	colors := palette.Plan9

	testCases := []struct {
		name string
		img  image.Image
	}{
		{name: "NRGBA", img: makeNRGBAImage(rect, colors)},
		{name: "YCbCr-444", img: makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio444)},
		{name: "YCbCr-420", img: makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio420)},
		{name: "Gray", img: makeGrayImage(rect)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			dst := ToNRGBA(tc.img)
			r := tc.img.Bounds()
			assert.Equal(image.Rect(0, 0, r.Dx(), r.Dy()), dst.Bounds())

			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					want := color.NRGBAModel.Convert(tc.img.At(x, y)).(color.NRGBA)
					got := dst.NRGBAAt(x-r.Min.X, y-r.Min.Y)
					assert.InDelta(want.R, got.R, 1)
					assert.InDelta(want.G, got.G, 1)
					assert.InDelta(want.B, got.B, 1)
					assert.Equal(want.A, got.A)
				}
			}
		})
	}
}

func TestImage_ToNRGBAKeepsZeroBasedImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, img, ToNRGBA(img))
}

func TestImage_Mirror(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 10, 2))
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})

	out := Mirror(img)
	assert.Equal(uint8(255), out.NRGBAAt(8, 0).R)
	assert.Equal(uint8(0), out.NRGBAAt(1, 0).R)
	assert.Equal(img.Pix, Mirror(out).Pix)
}

func TestImage_EncodeDecode(t *testing.T) {
	img := makeNRGBAImage(image.Rect(0, 0, 16, 12), palette.Plan9)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	for _, ext := range []string{".png", ".jpg", ".jpeg", ".bmp"} {
		t.Run(ext, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeFormat(&buf, img, ext))

			dec, err := DecodeImage(&buf)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), dec.Bounds())
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		err := EncodeFormat(&buf, img, ".tiff")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestImage_DecodeGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("definitely not an image")))
	assert.Error(t, err)
}

func TestImage_Grayscale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{A: 255})

	gray := Grayscale(img)
	assert.InDelta(t, 255, gray.GrayAt(0, 0).Y, 1)
	assert.Equal(t, uint8(0), gray.GrayAt(1, 0).Y)
}

func makeYCbCrImage(rect image.Rectangle, colors []color.Color, sr image.YCbCrSubsampleRatio) *image.YCbCr {
	img := image.NewYCbCr(rect, sr)
	j := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			iy := img.YOffset(x, y)
			ic := img.COffset(x, y)
			c := color.NRGBAModel.Convert(colors[j%len(colors)]).(color.NRGBA)
			img.Y[iy], img.Cb[ic], img.Cr[ic] = color.RGBToYCbCr(c.R, c.G, c.B)
			j++
		}
	}
	return img
}

func makeNRGBAImage(rect image.Rectangle, colors []color.Color) *image.NRGBA {
	img := image.NewNRGBA(rect)
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := color.NRGBAModel.Convert(colors[i%len(colors)]).(color.NRGBA)
			c.A = uint8(i % 256)
			img.SetNRGBA(x, y, c)
			i++
		}
	}
	return img
}

func makeGrayImage(rect image.Rectangle) *image.Gray {
	img := image.NewGray(rect)
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}
