package aura

import (
	"image"
	"math"
	"sort"
)

// FacialLandmarks holds the named point lists returned by the landmark service.
type FacialLandmarks struct {
	FaceOutline  []Point `json:"face_outline"`
	LeftEyebrow  []Point `json:"left_eyebrow"`
	RightEyebrow []Point `json:"right_eyebrow"`
	NoseBridge   []Point `json:"nose_bridge"`
	NoseTip      []Point `json:"nose_tip"`
	LeftEye      []Point `json:"left_eye"`
	RightEye     []Point `json:"right_eye"`
	OuterLip     []Point `json:"outer_lip"`
	InnerLip     []Point `json:"inner_lip"`
}

// regions returns pointers to every point list, so transformations can be applied uniformly.
func (l *FacialLandmarks) regions() []*[]Point {
	return []*[]Point{
		&l.FaceOutline, &l.LeftEyebrow, &l.RightEyebrow,
		&l.NoseBridge, &l.NoseTip, &l.LeftEye, &l.RightEye,
		&l.OuterLip, &l.InnerLip,
	}
}

// LandmarkFace is a face reported by the landmark service.
type LandmarkFace struct {
	Index      int             `json:"index"`
	Box        Rect            `json:"box"`
	Confidence float64         `json:"confidence"`
	Landmarks  FacialLandmarks `json:"landmarks"`
}

// FlipPoint mirrors a point horizontally inside a canvas of the given width.
// Applying it twice returns the original point.
func FlipPoint(p Point, width float64) Point {
	return Point{X: width - p.X, Y: p.Y}
}

// Flip mirrors every landmark point horizontally. The region names are kept, so after
// the flip the left eye of the subject appears on the right side of the canvas.
func (l FacialLandmarks) Flip(width float64) FacialLandmarks {
	out := l
	for _, pts := range out.regions() {
		if *pts == nil {
			continue
		}
		flipped := make([]Point, len(*pts))
		for i, p := range *pts {
			flipped[i] = FlipPoint(p, width)
		}
		*pts = flipped
	}
	return out
}

// Mirror converts a face from the un-mirrored source frame into the mirrored canvas space.
func (f LandmarkFace) Mirror(width int) LandmarkFace {
	out := f
	out.Box.X = width - (f.Box.X + f.Box.Width)
	out.Landmarks = f.Landmarks.Flip(float64(width))
	return out
}

// Centroid returns the mean of the points. The result is false for an empty list.
func Centroid(pts []Point) (Point, bool) {
	if len(pts) == 0 {
		return Point{}, false
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}, true
}

// Bounds returns the bounding box of the points.
func Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return RectFrom(image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))))
}

// EyeRoll returns the angle of the line going from eye a to eye b, in radians.
func EyeRoll(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Tilt folds a line angle into the (-π/2, π/2] range. Eyewear is symmetric,
// so a line pointing right to left describes the same head tilt as its opposite.
func Tilt(angle float64) float64 {
	for angle > math.Pi/2 {
		angle -= math.Pi
	}
	for angle <= -math.Pi/2 {
		angle += math.Pi
	}
	return angle
}

// DedupFaces removes the faces overlapping a more confident face by more than
// half of the smaller box area. The result is sorted by decreasing confidence.
func DedupFaces(faces []LandmarkFace) []LandmarkFace {
	sorted := make([]LandmarkFace, len(faces))
	copy(sorted, faces)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]LandmarkFace, 0, len(sorted))
	for _, f := range sorted {
		dup := false
		for _, k := range kept {
			inter := RectFrom(f.Box.Rectangle().Intersect(k.Box.Rectangle())).Area()
			smaller := math.Min(float64(f.Box.Area()), float64(k.Box.Area()))
			if smaller > 0 && float64(inter) > 0.5*smaller {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, f)
		}
	}
	return kept
}
