package aura

import (
	"image"
	"math"
)

// FeatureKind names a detected facial feature.
type FeatureKind string

// The feature kinds reported by the detector.
const (
	Face    FeatureKind = "face"
	Eyes    FeatureKind = "eyes"
	Nose    FeatureKind = "nose"
	Lips    FeatureKind = "lips"
	Hair    FeatureKind = "hair"
	Glasses FeatureKind = "glasses"
)

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Rect is an axis aligned box expressed by its top-left corner and size.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFrom converts an image.Rectangle into a Rect.
func RectFrom(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rectangle converts the box into an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Center returns the center of the box.
func (r Rect) Center() Point {
	return Point{X: float64(r.X) + float64(r.Width)/2, Y: float64(r.Y) + float64(r.Height)/2}
}

// Area returns the box area in pixels.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Sub returns the box spanning the given fractions of r.
// For example Sub(0.2, 0.6, 0.8, 0.85) selects the lower middle part of a face.
func (r Rect) Sub(x0, y0, x1, y1 float64) Rect {
	w, h := float64(r.Width), float64(r.Height)
	minX := r.X + int(math.Round(w*x0))
	minY := r.Y + int(math.Round(h*y0))
	maxX := r.X + int(math.Round(w*x1))
	maxY := r.Y + int(math.Round(h*y1))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Clamp restricts the box to the canvas bounds.
func (r Rect) Clamp(bounds image.Rectangle) Rect {
	return RectFrom(r.Rectangle().Intersect(bounds))
}

// Feature is a single detection result. A new slice of features replaces
// the previous one on every detection pass.
type Feature struct {
	Kind       FeatureKind `json:"name"`
	Box        Rect        `json:"box"`
	Confidence float64     `json:"confidence"`
	// Parts holds the left and right eye boxes, in canvas order, for the Eyes feature.
	Parts []Rect `json:"parts,omitempty"`
}

// Find returns the first feature of the given kind.
func Find(features []Feature, kind FeatureKind) (Feature, bool) {
	for _, f := range features {
		if f.Kind == kind {
			return f, true
		}
	}
	return Feature{}, false
}
