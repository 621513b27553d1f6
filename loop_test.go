package aura

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	img image.Image
}

func (s staticSource) Frame() (image.Image, bool) { return s.img, s.img != nil }

type recordingSink struct {
	mu     sync.Mutex
	frames int
	last   *image.NRGBA
}

func (s *recordingSink) Present(frame *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = frame
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// blockingLandmarks answers only after release is closed.
type blockingLandmarks struct {
	calls   atomic.Int32
	release chan struct{}
	faces   []LandmarkFace
}

func (b *blockingLandmarks) DetectLandmarks(ctx context.Context, _ image.Image) ([]LandmarkFace, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return b.faces, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastOptions() DriverOptions {
	return DriverOptions{
		RenderInterval: 5 * time.Millisecond,
		DetectInterval: MinDetectInterval,
		Mirror:         true,
	}
}

func runDriver(t *testing.T, d *Driver) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- d.Run(context.Background()) }()
	return errc
}

func stopDriver(t *testing.T, d *Driver, errc <-chan error) {
	t.Helper()
	d.Stop()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the driver did not stop")
	}
	assert.Equal(t, StateStopped, d.State())
}

func TestDriver_DetectIntervalIsClamped(t *testing.T) {
	d := NewDriver(DriverConfig{Options: DriverOptions{DetectInterval: time.Millisecond}})
	assert.Equal(t, MinDetectInterval, d.cfg.Options.DetectInterval)

	d = NewDriver(DriverConfig{Options: DriverOptions{DetectInterval: time.Second}})
	assert.Equal(t, MaxDetectInterval, d.cfg.Options.DetectInterval)
}

func TestDriver_HeuristicLoop(t *testing.T) {
	assert := assert.New(t)

	sink := &recordingSink{}
	d := NewDriver(DriverConfig{
		Source:  staticSource{img: faceFrame()},
		Sink:    sink,
		Options: fastOptions(),
		Logger:  discardLogger(),
	})
	assert.Equal(StateIdle, d.State())

	errc := runDriver(t, d)
	require.Eventually(t, func() bool {
		return d.Status().Detections > 0 && sink.count() > 0
	}, 5*time.Second, 10*time.Millisecond)

	st := d.Status()
	assert.Equal(StateRunning, st.State)
	assert.Equal("running", st.StateName)
	_, ok := Find(st.Features, Face)
	assert.True(ok)

	assert.ErrorIs(d.Run(context.Background()), ErrDriverStarted)

	stopDriver(t, d, errc)
	n := sink.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(n, sink.count(), "no frame is presented after the loop stopped")
	assert.False(d.Send(ClearStrokes{}))
}

func TestDriver_ContextCancellation(t *testing.T) {
	d := NewDriver(DriverConfig{
		Source:  staticSource{},
		Sink:    &recordingSink{},
		Options: fastOptions(),
		Logger:  discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateCapturing, d.State(), "no frame has been captured yet")
	cancel()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("the driver did not stop")
	}
	assert.NoError(t, <-errc)
}

func TestDriver_RemoteInFlightSkipsTicks(t *testing.T) {
	assert := assert.New(t)

	remote := &blockingLandmarks{
		release: make(chan struct{}),
		faces: []LandmarkFace{{
			Box:        Rect{X: 10, Y: 10, Width: 100, Height: 120},
			Confidence: 0.9,
			Landmarks: FacialLandmarks{
				LeftEye:  []Point{{X: 80, Y: 50}},
				RightEye: []Point{{X: 40, Y: 50}},
			},
		}},
	}
	sink := &recordingSink{}
	d := NewDriver(DriverConfig{
		Source:    staticSource{img: newFrame(320, 240, grayBg)},
		Sink:      sink,
		Landmarks: remote,
		Options:   fastOptions(),
		Logger:    discardLogger(),
	})
	errc := runDriver(t, d)

	require.Eventually(t, func() bool { return d.Status().Skipped >= 2 }, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(1, remote.calls.Load(), "ticks are dropped while a request is in flight")
	assert.Greater(sink.count(), 0, "rendering goes on while detection waits")

	close(remote.release)
	require.Eventually(t, func() bool { return len(d.Status().Faces) == 1 }, 5*time.Second, 10*time.Millisecond)

	face := d.Status().Faces[0]
	assert.Equal(Rect{X: 210, Y: 10, Width: 100, Height: 120}, face.Box, "faces are mirrored into canvas space")
	assert.Equal(Point{X: 240, Y: 50}, face.Landmarks.LeftEye[0])

	stopDriver(t, d, errc)
}

func TestDriver_StopCancelsPendingRequest(t *testing.T) {
	remote := &blockingLandmarks{release: make(chan struct{})}
	d := NewDriver(DriverConfig{
		Source:    staticSource{img: newFrame(64, 48, grayBg)},
		Sink:      &recordingSink{},
		Landmarks: remote,
		Options:   fastOptions(),
		Logger:    discardLogger(),
	})
	errc := runDriver(t, d)

	require.Eventually(t, func() bool { return remote.calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	stopDriver(t, d, errc)
}

func TestDriver_Events(t *testing.T) {
	assert := assert.New(t)

	sink := &recordingSink{}
	d := NewDriver(DriverConfig{
		Source:  staticSource{img: newFrame(120, 80, grayBg)},
		Sink:    sink,
		Options: fastOptions(),
		Logger:  discardLogger(),
	})
	errc := runDriver(t, d)

	assert.True(d.Send(PointerEvent{Phase: PointerDown, Point: StrokePoint{X: 10, Y: 10}, Color: "#202020", BrushSize: 6}))
	d.Send(PointerEvent{Phase: PointerMove, Point: StrokePoint{X: 60, Y: 40}})
	d.Send(PointerEvent{Phase: PointerUp})

	// The mirrored backdrop is uniform, so any pixel change comes from the stroke.
	drawn := func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.last != nil && sink.last.NRGBAAt(35, 25) != grayBg
	}
	require.Eventually(t, drawn, 5*time.Second, 10*time.Millisecond)

	d.Send(ClearStrokes{})
	require.Eventually(t, func() bool { return !drawn() }, 5*time.Second, 10*time.Millisecond)

	fallback := GarmentResult{Image: newFrame(10, 10, skinTone), Fallback: true, Notice: "showing the original photo"}
	d.Send(SetStyle{Style: Style{Kind: Garment, Garment: &fallback}})
	require.Eventually(t, func() bool { return d.Status().Notice != "" }, 5*time.Second, 10*time.Millisecond)

	d.Send(SetStyle{Style: Style{Kind: Lipstick}})
	require.Eventually(t, func() bool { return d.Status().Notice == "" }, 5*time.Second, 10*time.Millisecond)

	// Without a landmark adapter a retry request is ignored.
	assert.True(d.Send(RetryConnection{}))

	stopDriver(t, d, errc)
}
