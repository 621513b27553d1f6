package aura

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// markerColors assigns a distinct color to every feature kind.
var markerColors = map[FeatureKind]color.NRGBA{
	Face:    {R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
	Eyes:    {R: 0x21, G: 0x96, B: 0xf3, A: 0xff},
	Nose:    {R: 0xff, G: 0xc1, B: 0x07, A: 0xff},
	Lips:    {R: 0xe9, G: 0x1e, B: 0x63, A: 0xff},
	Hair:    {R: 0x79, G: 0x55, B: 0x48, A: 0xff},
	Glasses: {R: 0x9c, G: 0x27, B: 0xb0, A: 0xff},
}

// DrawFeatures marks the detected features on a copy of the image, with their name and confidence.
func DrawFeatures(src image.Image, features []Feature) *image.NRGBA {
	dc := gg.NewContextForImage(src)
	dc.SetLineWidth(2)

	for _, f := range features {
		col, ok := markerColors[f.Kind]
		if !ok {
			col = color.NRGBA{R: 0xff, A: 0xff}
		}
		dc.SetStrokeStyle(gg.NewSolidPattern(col))

		boxes := []Rect{f.Box}
		if len(f.Parts) > 0 {
			boxes = f.Parts
		}
		for _, b := range boxes {
			dc.DrawRectangle(float64(b.X), float64(b.Y), float64(b.Width), float64(b.Height))
			dc.Stroke()
		}

		dc.SetColor(col)
		dc.DrawString(fmt.Sprintf("%s %.2f", f.Kind, f.Confidence), float64(f.Box.X), float64(f.Box.Y)-4)
	}

	return imaging.Clone(dc.Image())
}

// DrawLandmarks marks every landmark point of the faces on a copy of the image.
func DrawLandmarks(src image.Image, faces []LandmarkFace) *image.NRGBA {
	dc := gg.NewContextForImage(src)

	for _, f := range faces {
		dc.SetStrokeStyle(gg.NewSolidPattern(markerColors[Face]))
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(f.Box.X), float64(f.Box.Y), float64(f.Box.Width), float64(f.Box.Height))
		dc.Stroke()

		dc.SetColor(color.NRGBA{R: 0xff, G: 0x57, B: 0x22, A: 0xff})
		lm := f.Landmarks
		for _, pts := range lm.regions() {
			for _, p := range *pts {
				dc.DrawCircle(p.X, p.Y, 1.5)
				dc.Fill()
			}
		}
	}

	return imaging.Clone(dc.Image())
}
