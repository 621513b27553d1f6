package aura

import (
	"image"
	"math"
)

// Selection picks the winning component among the accepted candidates.
type Selection int

const (
	// Largest keeps the component with the highest pixel count.
	Largest Selection = iota
	// Elongated keeps the component with the highest width/height ratio.
	Elongated
)

// LocateOptions configures a single region search.
type LocateOptions struct {
	// Stride is the step of the seed scan. Values below 1 are treated as 1.
	Stride    int
	MinPixels int
	// ExpectedPixels is the pixel count that maps to full confidence.
	ExpectedPixels int
	// MinAspect and MaxAspect bound the width/height ratio. Zero disables the bound.
	MinAspect, MaxAspect float64
	Select               Selection
}

// Region is a connected component found by Locate.
type Region struct {
	MinX, MinY, MaxX, MaxY int
	Pixels                 int
	Confidence             float64
}

// Box returns the bounding box of the region, with an exclusive Max point.
func (r Region) Box() image.Rectangle {
	return image.Rect(r.MinX, r.MinY, r.MaxX+1, r.MaxY+1)
}

// AspectRatio returns the width/height ratio of the bounding box.
func (r Region) AspectRatio() float64 {
	return float64(r.MaxX-r.MinX+1) / float64(r.MaxY-r.MinY+1)
}

func (o LocateOptions) accept(r Region) bool {
	if r.Pixels < o.MinPixels {
		return false
	}
	ar := r.AspectRatio()
	if o.MinAspect > 0 && ar < o.MinAspect {
		return false
	}
	if o.MaxAspect > 0 && ar > o.MaxAspect {
		return false
	}
	return true
}

func (o LocateOptions) better(a, b Region) bool {
	if o.Select == Elongated {
		ara, arb := a.AspectRatio(), b.AspectRatio()
		if ara != arb {
			return ara > arb
		}
	}
	return a.Pixels > b.Pixels
}

// Locate grows connected regions of set mask pixels inside window and returns the best one.
// Seeds are sampled every Stride pixels; each seed is flood filled over its
// 4-neighbourhood without leaving the window. Components that are too small or whose
// aspect ratio falls outside the configured range are rejected.
func Locate(m *Mask, window image.Rectangle, opts LocateOptions) (Region, bool) {
	window = window.Intersect(m.Rect)
	if window.Empty() {
		return Region{}, false
	}
	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}

	w, h := window.Dx(), window.Dy()
	visited := make([]bool, w*h)
	stack := make([]int, 0, 256)

	var (
		best  Region
		found bool
	)

	for sy := 0; sy < h; sy += stride {
		for sx := 0; sx < w; sx += stride {
			seed := sy*w + sx
			if visited[seed] || !m.At(window.Min.X+sx, window.Min.Y+sy) {
				continue
			}

			r := Region{MinX: sx, MinY: sy, MaxX: sx, MaxY: sy}
			visited[seed] = true
			stack = append(stack[:0], seed)

			for len(stack) > 0 {
				idx := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				x, y := idx%w, idx/w
				r.Pixels++

				if x < r.MinX {
					r.MinX = x
				}
				if x > r.MaxX {
					r.MaxX = x
				}
				if y < r.MinY {
					r.MinY = y
				}
				if y > r.MaxY {
					r.MaxY = y
				}

				for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
					nx, ny := n[0], n[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if visited[ni] || !m.At(window.Min.X+nx, window.Min.Y+ny) {
						continue
					}
					visited[ni] = true
					stack = append(stack, ni)
				}
			}

			if !opts.accept(r) {
				continue
			}
			if !found || opts.better(r, best) {
				best, found = r, true
			}
		}
	}

	if !found {
		return Region{}, false
	}

	best.MinX += window.Min.X
	best.MaxX += window.Min.X
	best.MinY += window.Min.Y
	best.MaxY += window.Min.Y
	best.Confidence = confidence(best.Pixels, opts.ExpectedPixels)

	return best, true
}

// confidence maps a pixel count to the [0, 1] range.
func confidence(pixels, expected int) float64 {
	if expected <= 0 {
		expected = 1
	}
	return math.Min(float64(pixels)/float64(expected), 1)
}
