package aura

import "math"

// Geometry is the normalized feature geometry consumed by the compositor.
// Every coordinate is expressed in the mirrored canvas space.
type Geometry struct {
	Face    Rect
	HasFace bool

	// LeftEye and RightEye keep the subject's naming, which is why on a
	// mirrored canvas LeftEye is usually the one with the larger x.
	LeftEye, RightEye Point
	EyeWidth          float64
	HasEyes           bool

	BrowMid  Point
	HasBrows bool

	Lips       Rect
	LipContour []Point
	HasLips    bool

	Cheeks      [2]Point
	CheekRadius float64

	// Glasses is true when the wearer already has eyewear on.
	Glasses bool
}

// IPD returns the interpupillary distance.
func (g Geometry) IPD() float64 {
	return g.LeftEye.Dist(g.RightEye)
}

// Roll returns the in-plane head tilt measured on the eye line.
func (g Geometry) Roll() float64 {
	return Tilt(EyeRoll(g.LeftEye, g.RightEye))
}

func (g *Geometry) setFace(face Rect) {
	g.Face = face
	g.HasFace = true
	g.Cheeks = [2]Point{
		face.Sub(0.18, 0.55, 0.38, 0.7).Center(),
		face.Sub(0.62, 0.55, 0.82, 0.7).Center(),
	}
	g.CheekRadius = float64(face.Width) * 0.12
}

// GeometryFromFeatures builds the geometry out of the heuristic detection result.
func GeometryFromFeatures(features []Feature) Geometry {
	var g Geometry

	face, ok := Find(features, Face)
	if !ok {
		return g
	}
	g.setFace(face.Box)

	if eyes, ok := Find(features, Eyes); ok && len(eyes.Parts) == 2 {
		// Parts are in canvas order. On the mirrored canvas the subject's
		// right eye is the one on the left side.
		g.RightEye = eyes.Parts[0].Center()
		g.LeftEye = eyes.Parts[1].Center()
		g.EyeWidth = float64(eyes.Parts[0].Width+eyes.Parts[1].Width) / 2
		g.HasEyes = true
	}
	if lips, ok := Find(features, Lips); ok {
		g.Lips = lips.Box
		g.HasLips = true
	}
	_, g.Glasses = Find(features, Glasses)

	return g
}

// GeometryFromFace builds the geometry out of a landmark face already mirrored to canvas space.
func GeometryFromFace(f LandmarkFace) Geometry {
	var g Geometry
	g.setFace(f.Box)

	lm := f.Landmarks
	le, okL := Centroid(lm.LeftEye)
	re, okR := Centroid(lm.RightEye)
	if okL && okR {
		g.LeftEye, g.RightEye = le, re
		g.EyeWidth = float64(Bounds(lm.LeftEye).Width+Bounds(lm.RightEye).Width) / 2
		g.HasEyes = true
	}

	lb, okL := Centroid(lm.LeftEyebrow)
	rb, okR := Centroid(lm.RightEyebrow)
	if okL && okR {
		g.BrowMid = lb.Mid(rb)
		g.HasBrows = true
	}

	if len(lm.OuterLip) >= 3 {
		g.LipContour = lm.OuterLip
		g.Lips = Bounds(lm.OuterLip)
		g.HasLips = true
	}

	if len(lm.FaceOutline) > 0 && g.HasEyes {
		// Cheeks sit halfway between the eyes and the jaw line.
		jaw := Bounds(lm.FaceOutline)
		eyeY := (le.Y + re.Y) / 2
		y := eyeY + (float64(jaw.Y+jaw.Height)-eyeY)*0.35
		left, right := math.Min(le.X, re.X), math.Max(le.X, re.X)
		g.Cheeks = [2]Point{{X: left, Y: y}, {X: right, Y: y}}
		g.CheekRadius = math.Max(g.EyeWidth, float64(jaw.Width)*0.1)
	}

	return g
}
