package aura

import (
	"fmt"
	"image"
	"math"

	pigo "github.com/esimov/pigo/core"
)

// PigoLocator finds the face box with a pigo cascade classifier
// instead of the skin heuristics.
type PigoLocator struct {
	classifier *pigo.Pigo

	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	Angle       float64
	// QThreshold discards weak detections; QScale maps a detection score to full confidence.
	QThreshold float32
	QScale     float32
}

// NewPigoLocator unpacks the cascade file and returns a locator with sensible defaults.
func NewPigoLocator(cascade []byte) (*PigoLocator, error) {
	p := pigo.NewPigo()
	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &PigoLocator{
		classifier:  classifier,
		MinSize:     60,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		QThreshold:  5,
		QScale:      20,
	}, nil
}

// LocateFace implements FaceLocator. The strongest detection wins.
func (l *PigoLocator) LocateFace(img *image.NRGBA) (Region, bool) {
	dets := l.detect(img)

	var (
		best  pigo.Detection
		found bool
	)
	for _, det := range dets {
		if det.Q < l.QThreshold {
			continue
		}
		if !found || det.Q > best.Q {
			best, found = det, true
		}
	}
	if !found {
		return Region{}, false
	}

	half := best.Scale / 2
	box := image.Rect(best.Col-half, best.Row-half, best.Col+half, best.Row+half).Intersect(img.Bounds())
	if box.Empty() {
		return Region{}, false
	}

	return Region{
		MinX:       box.Min.X,
		MinY:       box.Min.Y,
		MaxX:       box.Max.X - 1,
		MaxY:       box.Max.Y - 1,
		Pixels:     box.Dx() * box.Dy(),
		Confidence: math.Min(float64(best.Q/l.QScale), 1),
	}, true
}

func (l *PigoLocator) detect(img *image.NRGBA) []pigo.Detection {
	cols, rows := img.Bounds().Dx(), img.Bounds().Dy()

	cParams := pigo.CascadeParams{
		MinSize:     l.MinSize,
		MaxSize:     l.MaxSize,
		ShiftFactor: l.ShiftFactor,
		ScaleFactor: l.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: rgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := l.classifier.RunCascade(cParams, l.Angle)

	// Calculate the intersection over union (IoU) of two clusters.
	return l.classifier.ClusterDetections(dets, l.IoU)
}
