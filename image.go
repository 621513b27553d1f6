package aura

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register the gif decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Juan-Cwq/aura/utils"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp" // register the webp decoder
)

// ErrUnsupportedFormat is returned when encoding to an unknown image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// jpegQuality is used for every JPEG the package produces.
const jpegQuality = 90

// DecodeImage decodes an image of any registered format into *image.NRGBA.
func DecodeImage(r io.Reader) (*image.NRGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image: %w", err)
	}
	return ToNRGBA(src), nil
}

// DecodeFile opens and decodes a local image file.
func DecodeFile(path string) (*image.NRGBA, error) {
	data, err := utils.ReadImageFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the image file: %w", err)
	}
	return DecodeImage(bytes.NewReader(data))
}

// EncodeImage encodes an image to w. The format is derived from the destination
// file extension when w is a file, and defaults to JPEG otherwise.
func EncodeImage(w io.Writer, img image.Image) error {
	ext := ".jpg"
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		ext = strings.ToLower(filepath.Ext(f.Name()))
	}
	return EncodeFormat(w, img, ext)
}

// EncodeFormat encodes an image using the format matching the provided file extension.
func EncodeFormat(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "", ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// EncodeJPEG returns the JPEG encoded image content.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("could not encode the frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Mirror flips the image horizontally, the way a selfie camera preview is shown.
func Mirror(img image.Image) *image.NRGBA {
	return imaging.FlipH(img)
}

// ToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func ToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := srcBounds.Dx() * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
