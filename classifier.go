package aura

// SkinBand describes one tone band of the skin classifier.
// Every field is a lower bound except MaxR.
type SkinBand struct {
	MinR, MinG, MinB int
	// MaxR bounds the red channel from above. Zero means no bound.
	MaxR int
	// MinRG and MinRB are the margins by which red must dominate green and blue.
	MinRG, MinRB int
	// MinGreenRatio is the minimum green/red ratio in percent.
	MinGreenRatio int
	MinBrightness int
}

func (s SkinBand) match(r, g, b int) bool {
	if r < s.MinR || g < s.MinG || b < s.MinB {
		return false
	}
	if s.MaxR > 0 && r > s.MaxR {
		return false
	}
	if r-g < s.MinRG || r-b < s.MinRB || g < b {
		return false
	}
	return g*100 >= r*s.MinGreenRatio && r+g+b >= 3*s.MinBrightness
}

// Thresholds holds the integer limits used by the color classifier.
type Thresholds struct {
	SkinBands []SkinBand

	// Lip color margins: red must exceed green and blue by these amounts.
	LipRG, LipRB int
	LipMinR      int

	// Frame-dark pixels have a brightness below FrameDarkBrightness
	// and every channel below FrameDarkChannel.
	FrameDarkBrightness int
	FrameDarkChannel    int

	EyeDarkBrightness int

	HairBrightness int
	HairSpread     int

	ReflectionBrightness int
	ReflectionSpread     int
}

// DefaultThresholds are calibrated for webcam frames under indoor lighting.
var DefaultThresholds = Thresholds{
	SkinBands: []SkinBand{
		// light
		{MinR: 170, MinG: 110, MinB: 80, MinRG: 15, MinRB: 25, MinGreenRatio: 58},
		// medium
		{MinR: 110, MinG: 65, MinB: 35, MinRG: 15, MinRB: 30, MinGreenRatio: 58},
		// deep
		{MinR: 60, MinG: 35, MinB: 20, MaxR: 140, MinRG: 10, MinRB: 15, MinGreenRatio: 55, MinBrightness: 60},
	},
	LipRG:                20,
	LipRB:                15,
	LipMinR:              130,
	FrameDarkBrightness:  40,
	FrameDarkChannel:     60,
	EyeDarkBrightness:    80,
	HairBrightness:       90,
	HairSpread:           90,
	ReflectionBrightness: 215,
	ReflectionSpread:     30,
}

// brightness returns the mean of the three channels.
func brightness(r, g, b uint8) int {
	return (int(r) + int(g) + int(b)) / 3
}

func spread(r, g, b uint8) int {
	hi, lo := int(r), int(r)
	for _, c := range []int{int(g), int(b)} {
		if c > hi {
			hi = c
		}
		if c < lo {
			lo = c
		}
	}
	return hi - lo
}

// IsSkin reports whether the pixel falls inside one of the skin tone bands.
func (t Thresholds) IsSkin(r, g, b uint8) bool {
	for _, band := range t.SkinBands {
		if band.match(int(r), int(g), int(b)) {
			return true
		}
	}
	return false
}

// IsLipColor reports whether red dominates green and blue by the lip margins.
// It does not exclude skin; use Classify or a LipMask for that.
func (t Thresholds) IsLipColor(r, g, b uint8) bool {
	ri, gi, bi := int(r), int(g), int(b)
	return ri >= gi+t.LipRG && ri >= bi+t.LipRB && ri > t.LipMinR
}

// IsFrameDark reports whether the pixel is dark enough to belong to an eyewear frame.
func (t Thresholds) IsFrameDark(r, g, b uint8) bool {
	c := t.FrameDarkChannel
	return brightness(r, g, b) < t.FrameDarkBrightness && int(r) < c && int(g) < c && int(b) < c
}

// IsEyeDark reports whether the pixel is a dark, non-skin pixel such as the iris or lashes.
func (t Thresholds) IsEyeDark(r, g, b uint8) bool {
	return brightness(r, g, b) < t.EyeDarkBrightness && !t.IsSkin(r, g, b)
}

// IsHairColor reports whether the pixel looks like dark or brown hair.
func (t Thresholds) IsHairColor(r, g, b uint8) bool {
	return brightness(r, g, b) < t.HairBrightness && spread(r, g, b) < t.HairSpread && !t.IsSkin(r, g, b)
}

// IsBrightReflection reports whether the pixel is a near-white specular highlight.
func (t Thresholds) IsBrightReflection(r, g, b uint8) bool {
	return brightness(r, g, b) > t.ReflectionBrightness && spread(r, g, b) < t.ReflectionSpread
}

// Class is the bit set of the categories a pixel belongs to.
type Class uint8

// The pixel categories.
const (
	ClassSkin Class = 1 << iota
	ClassLip
	ClassEyeDark
	ClassFrameDark
	ClassHair
	ClassReflection
)

// Has reports whether c contains all the bits of o.
func (c Class) Has(o Class) bool {
	return c&o == o
}

// Classify returns every category the pixel belongs to.
// A pixel already classified as skin is never classified as lip.
func (t Thresholds) Classify(r, g, b uint8) Class {
	var c Class
	skin := t.IsSkin(r, g, b)
	if skin {
		c |= ClassSkin
	} else if t.IsLipColor(r, g, b) {
		c |= ClassLip
	}
	if t.IsEyeDark(r, g, b) {
		c |= ClassEyeDark
	}
	if t.IsFrameDark(r, g, b) {
		c |= ClassFrameDark
	}
	if t.IsHairColor(r, g, b) {
		c |= ClassHair
	}
	if t.IsBrightReflection(r, g, b) {
		c |= ClassReflection
	}
	return c
}

// IsSkin classifies the pixel with the default thresholds.
func IsSkin(r, g, b uint8) bool { return DefaultThresholds.IsSkin(r, g, b) }

// IsLipColor classifies the pixel with the default thresholds.
func IsLipColor(r, g, b uint8) bool { return DefaultThresholds.IsLipColor(r, g, b) }

// IsFrameDark classifies the pixel with the default thresholds.
func IsFrameDark(r, g, b uint8) bool { return DefaultThresholds.IsFrameDark(r, g, b) }
