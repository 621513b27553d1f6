package aura

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
)

// ErrNoFace is returned when the selected style needs a face and none was found.
var ErrNoFace = errors.New("no face detected")

// Processor applies a try-on style to still images.
type Processor struct {
	Detector   Detector
	Landmarks  LandmarkDetector
	Compositor *Compositor
	Style      Style
	Strokes    []Stroke
	// Mirror flips the image horizontally before processing, like the live preview does.
	Mirror bool
	Debug  bool
}

// NewProcessor creates a processor using the heuristic detector.
func NewProcessor(style Style) *Processor {
	return &Processor{
		Detector:   NewFeatureDetector(DefaultDetectorOptions()),
		Compositor: NewCompositor(DefaultCompositorOptions()),
		Style:      style,
	}
}

// needsFace reports whether the style is anchored to facial features.
func (s Style) needsFace() bool {
	switch s.Kind {
	case Lipstick, Blush, Eyeshadow, Eyewear:
		return true
	}
	return false
}

// Analyze detects the features of the image and returns the geometry used for the overlays.
// Images are analyzed in the same space they are composited in.
func (p *Processor) Analyze(ctx context.Context, img *image.NRGBA) (Geometry, []Feature, []LandmarkFace, error) {
	if p.Landmarks != nil {
		src := img
		if p.Mirror {
			// The landmark service always works on the un-mirrored image.
			src = Mirror(img)
		}
		faces, err := p.Landmarks.DetectLandmarks(ctx, src)
		if err != nil {
			return Geometry{}, nil, nil, fmt.Errorf("landmark detection failed: %w", err)
		}
		if p.Mirror {
			for i := range faces {
				faces[i] = faces[i].Mirror(img.Bounds().Dx())
			}
		}
		faces = DedupFaces(faces)
		if len(faces) == 0 {
			return Geometry{}, nil, nil, nil
		}
		return GeometryFromFace(faces[0]), nil, faces, nil
	}

	features := p.Detector.Detect(img)
	return GeometryFromFeatures(features), features, nil, nil
}

// Apply composites the style over the image.
func (p *Processor) Apply(ctx context.Context, src image.Image) (*image.NRGBA, error) {
	img := ToNRGBA(src)
	if p.Mirror {
		img = Mirror(img)
	}

	geo, features, faces, err := p.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	if p.Style.needsFace() && !geo.HasFace {
		return nil, ErrNoFace
	}

	out := p.Compositor.Composite(img, geo, p.Strokes, p.Style)
	if p.Debug {
		if faces != nil {
			out = DrawLandmarks(out, faces)
		} else {
			out = DrawFeatures(out, features)
		}
	}
	return out, nil
}

// Process decodes the image read from r, applies the style and encodes the result into w.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	return p.ProcessContext(context.Background(), r, w)
}

// ProcessContext is like Process with a context bounding the remote calls.
func (p *Processor) ProcessContext(ctx context.Context, r io.Reader, w io.Writer) error {
	img, err := DecodeImage(r)
	if err != nil {
		return err
	}
	out, err := p.Apply(ctx, img)
	if err != nil {
		return err
	}
	return EncodeImage(w, out)
}
