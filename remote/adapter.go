package remote

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/Juan-Cwq/aura"
)

// State is the connectivity state of the Adapter.
type State int32

const (
	Connecting State = iota
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "error"
	}
	return "unknown"
}

// MaxFailures is the number of consecutive failed requests after which
// a connected adapter is considered lost.
const MaxFailures = 3

// Adapter wraps a Client with connectivity tracking. At most one detection
// request is in flight at any time.
type Adapter struct {
	Client *Client
	Logger *slog.Logger

	state    atomic.Int32
	inFlight atomic.Bool
	failures atomic.Int32
}

// NewAdapter returns an adapter in the connecting state.
// Call Connect before the first detection.
func NewAdapter(client *Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{Client: client, Logger: logger}
}

// State returns the current connectivity state.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

// Connect probes the service health and updates the state accordingly.
func (a *Adapter) Connect(ctx context.Context) error {
	a.state.Store(int32(Connecting))
	if err := a.Client.Health(ctx); err != nil {
		a.state.Store(int32(Failed))
		a.Logger.Warn("landmark service unreachable", "url", a.Client.BaseURL, "error", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	a.failures.Store(0)
	a.state.Store(int32(Connected))
	a.Logger.Info("landmark service connected", "url", a.Client.BaseURL)
	return nil
}

// Retry re-probes the service. It is the same operation as Connect.
func (a *Adapter) Retry(ctx context.Context) error {
	return a.Connect(ctx)
}

// DetectLandmarks submits the frame to the service. It returns aura.ErrUnavailable
// without issuing a request unless the adapter is connected, and aura.ErrBusy while
// another request is in flight.
func (a *Adapter) DetectLandmarks(ctx context.Context, frame image.Image) ([]aura.LandmarkFace, error) {
	if a.State() != Connected {
		return nil, aura.ErrUnavailable
	}
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, aura.ErrBusy
	}
	defer a.inFlight.Store(false)

	data, err := aura.EncodeJPEG(frame)
	if err != nil {
		return nil, err
	}
	faces, err := a.Client.DetectLandmarks(ctx, data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		n := a.failures.Add(1)
		a.Logger.Debug("landmark request failed", "failures", n, "error", err)
		if n >= MaxFailures && a.state.CompareAndSwap(int32(Connected), int32(Failed)) {
			a.Logger.Warn("landmark service lost", "failures", n, "error", err)
		}
		return nil, err
	}
	a.failures.Store(0)
	return faces, nil
}
