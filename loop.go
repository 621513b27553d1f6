package aura

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Juan-Cwq/aura/utils"
)

var (
	// ErrBusy is returned by a landmark detector when a request is already in flight.
	ErrBusy = errors.New("landmark detection already in flight")
	// ErrUnavailable is returned by a landmark detector that is not connected.
	ErrUnavailable = errors.New("landmark service unavailable")
	// ErrDriverStarted is returned when Run is called more than once.
	ErrDriverStarted = errors.New("driver already started")
)

// Detection cadence limits.
const (
	MinDetectInterval = 100 * time.Millisecond
	MaxDetectInterval = 300 * time.Millisecond
)

// FrameSource provides the most recent camera frame. It must not block.
type FrameSource interface {
	Frame() (image.Image, bool)
}

// FrameSink presents the composited frames.
type FrameSink interface {
	Present(frame *image.NRGBA) error
}

// LandmarkDetector detects faces and their landmarks in an un-mirrored frame.
type LandmarkDetector interface {
	DetectLandmarks(ctx context.Context, frame image.Image) ([]LandmarkFace, error)
}

// Retrier re-establishes a lost connection.
type Retrier interface {
	Retry(ctx context.Context) error
}

// State is the lifecycle state of the Driver.
type State int32

// The driver states.
const (
	StateIdle State = iota
	StateCapturing
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Event is a message consumed by the driver loop.
type Event interface {
	event()
}

// PointerPhase tells where a pointer event sits in a stroke.
type PointerPhase int

// The pointer phases.
const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
)

// PointerEvent carries a pointer sample in canvas coordinates.
type PointerEvent struct {
	Phase     PointerPhase
	Point     StrokePoint
	Color     string
	BrushSize float64
}

// ClearStrokes removes every recorded stroke.
type ClearStrokes struct{}

// SetStyle selects a new try-on style.
type SetStyle struct {
	Style Style
}

// RetryConnection asks the landmark service adapter to probe the service again.
type RetryConnection struct{}

func (PointerEvent) event()    {}
func (ClearStrokes) event()    {}
func (SetStyle) event()        {}
func (RetryConnection) event() {}

// DriverOptions configures the frame loop cadence.
type DriverOptions struct {
	RenderInterval time.Duration
	// DetectInterval is clamped to the [MinDetectInterval, MaxDetectInterval] range.
	DetectInterval time.Duration
	Mirror         bool
	Debug          bool
}

// DefaultDriverOptions renders at about 60 frames per second and detects five times per second.
func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		RenderInterval: 16 * time.Millisecond,
		DetectInterval: 200 * time.Millisecond,
		Mirror:         true,
	}
}

// DriverConfig holds the collaborators of a Driver.
// When Landmarks is set it is used instead of Detector.
type DriverConfig struct {
	Source     FrameSource
	Sink       FrameSink
	Detector   Detector
	Landmarks  LandmarkDetector
	Compositor *Compositor
	Style      Style
	Options    DriverOptions
	Logger     *slog.Logger
}

// Status is a snapshot of the driver state.
type Status struct {
	State      State          `json:"-"`
	StateName  string         `json:"state"`
	Frames     int64          `json:"frames"`
	Detections int64          `json:"detections"`
	Skipped    int64          `json:"skipped"`
	Features   []Feature      `json:"features"`
	Faces      []LandmarkFace `json:"faces"`
	Notice     string         `json:"notice,omitempty"`
}

type detection struct {
	faces []LandmarkFace
	err   error
	width int
}

// Driver runs the capture, detection and composition loop. A single goroutine owns
// every piece of mutable state; other goroutines talk to it through events.
type Driver struct {
	cfg    DriverConfig
	logger *slog.Logger

	state  atomic.Int32
	events chan Event
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	frames     atomic.Int64
	detections atomic.Int64
	skipped    atomic.Int64

	mu       sync.Mutex
	snapshot Status

	// Owned by the loop goroutine.
	recorder *StrokeRecorder
	style    Style
	features []Feature
	faces    []LandmarkFace
	raw      image.Image
	frame    *image.NRGBA
	inFlight bool
	notice   string
}

// NewDriver creates a driver. Missing collaborators are replaced by defaults,
// except for the source and the sink.
func NewDriver(cfg DriverConfig) *Driver {
	if cfg.Options.RenderInterval <= 0 {
		cfg.Options.RenderInterval = DefaultDriverOptions().RenderInterval
	}
	cfg.Options.DetectInterval = utils.Clamp(cfg.Options.DetectInterval, MinDetectInterval, MaxDetectInterval)
	if cfg.Detector == nil {
		cfg.Detector = NewFeatureDetector(DefaultDetectorOptions())
	}
	if cfg.Compositor == nil {
		cfg.Compositor = NewCompositor(DefaultCompositorOptions())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		cfg:      cfg,
		logger:   logger.With("component", "driver"),
		events:   make(chan Event, 256),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		recorder: NewStrokeRecorder(),
		style:    cfg.Style,
	}
	d.snapshot.StateName = StateIdle.String()
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Send delivers an event to the loop. It returns false once the loop has exited.
func (d *Driver) Send(ev Event) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}

// Stop asks the loop to exit. It is safe to call more than once.
func (d *Driver) Stop() {
	d.once.Do(func() { close(d.stop) })
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Status returns a snapshot of the driver state and of the latest detection.
func (d *Driver) Status() Status {
	d.mu.Lock()
	s := d.snapshot
	d.mu.Unlock()

	s.State = d.State()
	s.StateName = s.State.String()
	s.Frames = d.frames.Load()
	s.Detections = d.detections.Load()
	s.Skipped = d.skipped.Load()
	return s
}

// Run executes the loop until the context is cancelled or Stop is called.
// Every ticker and every goroutine started by Run is released before it returns.
func (d *Driver) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateCapturing)) {
		return ErrDriverStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		d.state.Store(int32(StateStopped))
		close(d.done)
		d.logger.Info("frame loop stopped",
			"frames", d.frames.Load(), "detections", d.detections.Load(), "skipped", d.skipped.Load())
	}()

	render := time.NewTicker(d.cfg.Options.RenderInterval)
	defer render.Stop()
	detect := time.NewTicker(d.cfg.Options.DetectInterval)
	defer detect.Stop()

	results := make(chan detection, 1)

	d.logger.Info("frame loop started",
		"render", d.cfg.Options.RenderInterval, "detect", d.cfg.Options.DetectInterval,
		"remote", d.cfg.Landmarks != nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.stop:
			return nil
		case ev := <-d.events:
			d.handle(ctx, ev, &wg)
		case res := <-results:
			d.inFlight = false
			d.applyRemote(res)
		case <-detect.C:
			d.detect(ctx, results, &wg)
		case <-render.C:
			d.render()
		}
	}
}

func (d *Driver) handle(ctx context.Context, ev Event, wg *sync.WaitGroup) {
	switch ev := ev.(type) {
	case PointerEvent:
		switch ev.Phase {
		case PointerDown:
			d.recorder.Down(ev.Point, ev.Color, ev.BrushSize)
		case PointerMove:
			d.recorder.Move(ev.Point)
		case PointerUp:
			d.recorder.Up()
		}
	case ClearStrokes:
		d.recorder.Clear()
	case SetStyle:
		d.style = ev.Style
		d.notice = ""
		if g := ev.Style.Garment; g != nil && g.Fallback {
			d.notice = g.Notice
		}
		d.publish()
	case RetryConnection:
		r, ok := d.cfg.Landmarks.(Retrier)
		if !ok {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Retry(ctx); err != nil {
				d.logger.Warn("landmark service still unavailable", "error", err)
				return
			}
			d.logger.Info("landmark service connected")
		}()
	}
}

// capture pulls the latest frame and mirrors it, unless it was already processed.
func (d *Driver) capture() bool {
	raw, ok := d.cfg.Source.Frame()
	if !ok || raw == nil {
		return d.frame != nil
	}
	if raw == d.raw && d.frame != nil {
		return true
	}
	d.raw = raw
	if d.cfg.Options.Mirror {
		d.frame = Mirror(raw)
	} else {
		d.frame = ToNRGBA(raw)
	}
	if d.State() == StateCapturing {
		d.state.Store(int32(StateRunning))
	}
	return true
}

func (d *Driver) geometry() Geometry {
	if d.cfg.Landmarks != nil {
		if len(d.faces) == 0 {
			return Geometry{}
		}
		return GeometryFromFace(d.faces[0])
	}
	return GeometryFromFeatures(d.features)
}

func (d *Driver) render() {
	if !d.capture() {
		return
	}
	out := d.cfg.Compositor.Composite(d.frame, d.geometry(), d.recorder.Strokes(), d.style)
	if d.cfg.Options.Debug {
		if d.cfg.Landmarks != nil {
			out = DrawLandmarks(out, d.faces)
		} else {
			out = DrawFeatures(out, d.features)
		}
	}
	if err := d.cfg.Sink.Present(out); err != nil {
		d.logger.Warn("could not present frame", "error", err)
		return
	}
	d.frames.Add(1)
}

func (d *Driver) detect(ctx context.Context, results chan<- detection, wg *sync.WaitGroup) {
	if d.frame == nil {
		return
	}
	if d.cfg.Landmarks == nil {
		d.features = d.cfg.Detector.Detect(d.frame)
		d.detections.Add(1)
		d.publish()
		return
	}

	if d.inFlight {
		d.skipped.Add(1)
		return
	}
	d.inFlight = true

	raw, width := d.raw, d.frame.Bounds().Dx()
	wg.Add(1)
	go func() {
		defer wg.Done()
		faces, err := d.cfg.Landmarks.DetectLandmarks(ctx, raw)
		select {
		case results <- detection{faces: faces, err: err, width: width}:
		case <-ctx.Done():
		}
	}()
}

func (d *Driver) applyRemote(res detection) {
	switch {
	case errors.Is(res.err, ErrBusy):
		d.skipped.Add(1)
		return
	case res.err != nil:
		d.logger.Debug("landmark detection failed", "error", res.err)
		d.faces = nil
	default:
		faces := make([]LandmarkFace, 0, len(res.faces))
		for _, f := range res.faces {
			if d.cfg.Options.Mirror {
				f = f.Mirror(res.width)
			}
			faces = append(faces, f)
		}
		d.faces = DedupFaces(faces)
		d.detections.Add(1)
	}
	d.publish()
}

// publish copies the latest detection results into the snapshot read by Status.
func (d *Driver) publish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot.Features = d.features
	d.snapshot.Faces = d.faces
	d.snapshot.Notice = d.notice
}
