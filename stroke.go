package aura

import (
	"time"
)

// StrokePoint is a single sample of a free-hand stroke.
type StrokePoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// Stroke is a free-hand makeup stroke drawn by the user.
type Stroke struct {
	ID        int           `json:"id"`
	Points    []StrokePoint `json:"points"`
	Color     string        `json:"color"`
	BrushSize float64       `json:"brush_size"`
	Timestamp time.Time     `json:"timestamp"`
}

// StrokeRecorder turns pointer events into strokes. It is not safe for
// concurrent use; the Driver owns it from its event loop.
type StrokeRecorder struct {
	strokes []Stroke
	active  *Stroke
	nextID  int
	now     func() time.Time
}

// NewStrokeRecorder creates an empty recorder.
func NewStrokeRecorder() *StrokeRecorder {
	return &StrokeRecorder{nextID: 1, now: time.Now}
}

// Down starts a new stroke. An unfinished stroke is finalized first.
func (r *StrokeRecorder) Down(p StrokePoint, color string, brushSize float64) {
	if r.active != nil {
		r.Up()
	}
	if color == "" {
		color = DefaultColor
	}
	r.active = &Stroke{
		ID:        r.nextID,
		Points:    []StrokePoint{normalizePressure(p)},
		Color:     color,
		BrushSize: brushSize,
		Timestamp: r.now(),
	}
	r.nextID++
}

// Move appends a point to the active stroke. It is a no-op when no stroke is active.
func (r *StrokeRecorder) Move(p StrokePoint) {
	if r.active == nil {
		return
	}
	r.active.Points = append(r.active.Points, normalizePressure(p))
}

// Up finalizes the active stroke.
func (r *StrokeRecorder) Up() {
	if r.active == nil {
		return
	}
	r.strokes = append(r.strokes, *r.active)
	r.active = nil
}

// Clear removes every stroke, including the active one.
func (r *StrokeRecorder) Clear() {
	r.strokes = nil
	r.active = nil
}

// Strokes returns a copy of the finalized strokes followed by the active one, if any.
func (r *StrokeRecorder) Strokes() []Stroke {
	out := make([]Stroke, 0, len(r.strokes)+1)
	out = append(out, r.strokes...)
	if r.active != nil {
		active := *r.active
		active.Points = append([]StrokePoint(nil), r.active.Points...)
		out = append(out, active)
	}
	return out
}

// normalizePressure maps a missing pressure reading to full pressure.
func normalizePressure(p StrokePoint) StrokePoint {
	if p.Pressure <= 0 {
		p.Pressure = 1
	}
	if p.Pressure > 1 {
		p.Pressure = 1
	}
	return p
}
