package aura

import (
	"image"
)

// rgbToGrayscale converts an image to grayscale mode and
// returns the pixel values as an one dimensional array.
func rgbToGrayscale(src *image.NRGBA) []uint8 {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := make([]uint8, width*height)

	for y := 0; y < height; y++ {
		i := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			r, g, b := float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2])
			gray[y*width+x] = uint8(0.299*r + 0.587*g + 0.114*b)
			i += 4
		}
	}

	return gray
}

// Grayscale converts the image to grayscale mode.
func Grayscale(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(dst.Pix, rgbToGrayscale(src))
	return dst
}
