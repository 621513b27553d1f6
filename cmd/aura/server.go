package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/catalog"
	"github.com/Juan-Cwq/aura/remote"
	"github.com/Juan-Cwq/aura/stream"
)

// pointerRequest is the JSON body of the /pointer endpoint.
type pointerRequest struct {
	Phase     string  `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure"`
	Color     string  `json:"color"`
	BrushSize float64 `json:"brush_size"`
}

// styleRequest is the JSON body of the /style endpoint. Zero values keep the current settings.
type styleRequest struct {
	Style     string `json:"style"`
	Color     string `json:"color"`
	Intensity *int   `json:"intensity"`
	Eyewear   string `json:"eyewear"`
}

type garmentRequest struct {
	ID string `json:"id"`
}

type statusResponse struct {
	aura.Status
	Connection string `json:"connection,omitempty"`
	Clients    int    `json:"clients"`
	Assets     int    `json:"assets"`
}

// server exposes the live driver over HTTP.
type server struct {
	driver   *aura.Driver
	sink     *stream.Sink
	adapter  *remote.Adapter
	clothing aura.ClothingService
	source   aura.FrameSource
	cache    *catalog.Cache
	logger   *slog.Logger

	mu    sync.Mutex
	style styleOptions
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/stream", s.sink)
	mux.HandleFunc("/pointer", s.post(s.handlePointer))
	mux.HandleFunc("/style", s.post(s.handleStyle))
	mux.HandleFunc("/garment", s.post(s.handleGarment))
	mux.HandleFunc("/clear", s.post(func(w http.ResponseWriter, r *http.Request) error {
		return s.send(aura.ClearStrokes{})
	}))
	mux.HandleFunc("/retry", s.post(func(w http.ResponseWriter, r *http.Request) error {
		return s.send(aura.RetryConnection{})
	}))
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// httpError carries the status code reported to the client.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }

func badRequest(format string, args ...any) error {
	return &httpError{code: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

// post wraps a handler accepting only POST requests and reporting errors as plain text.
func (s *server) post(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := h(w, r); err != nil {
			code := http.StatusInternalServerError
			var he *httpError
			if errors.As(err, &he) {
				code = he.code
			}
			s.logger.Debug("request failed", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), code)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) send(ev aura.Event) error {
	if !s.driver.Send(ev) {
		return &httpError{code: http.StatusServiceUnavailable, err: errors.New("frame loop stopped")}
	}
	return nil
}

func (s *server) handlePointer(w http.ResponseWriter, r *http.Request) error {
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("invalid pointer event: %v", err)
	}
	ev := aura.PointerEvent{
		Point:     aura.StrokePoint{X: req.X, Y: req.Y, Pressure: req.Pressure},
		Color:     req.Color,
		BrushSize: req.BrushSize,
	}
	switch req.Phase {
	case "down":
		ev.Phase = aura.PointerDown
	case "move":
		ev.Phase = aura.PointerMove
	case "up":
		ev.Phase = aura.PointerUp
	default:
		return badRequest("unknown pointer phase %q", req.Phase)
	}
	return s.send(ev)
}

func (s *server) handleStyle(w http.ResponseWriter, r *http.Request) error {
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("invalid style: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.style
	if req.Style != "" {
		opts.Kind = req.Style
	}
	if req.Color != "" {
		opts.Color = req.Color
	}
	if req.Intensity != nil {
		opts.Intensity = *req.Intensity
	}
	if req.Eyewear != "" {
		opts.Eyewear = req.Eyewear
	}

	style, err := opts.build(r.Context(), s.cache)
	if err != nil {
		return badRequest("%v", err)
	}
	if err := s.send(aura.SetStyle{Style: style}); err != nil {
		return err
	}
	s.style = opts
	return nil
}

// handleGarment dresses the current frame with a catalog garment. When the try-on
// service fails the original frame is shown together with a notice.
func (s *server) handleGarment(w http.ResponseWriter, r *http.Request) error {
	var req garmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("invalid garment request: %v", err)
	}
	s.mu.Lock()
	cat, err := s.style.loadCatalog()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	item, ok := cat.FindGarment(req.ID)
	if !ok {
		return badRequest("garment %q not found in the catalog", req.ID)
	}
	garment, ok := s.cache.Get(item.ID)
	if !ok {
		return &httpError{code: http.StatusServiceUnavailable, err: fmt.Errorf("garment %q image not loaded", item.ID)}
	}
	frame, ok := s.source.Frame()
	if !ok {
		return &httpError{code: http.StatusServiceUnavailable, err: errors.New("no camera frame yet")}
	}

	ctx, cancel := context.WithTimeout(r.Context(), remote.ClothingTimeout)
	defer cancel()

	res := aura.TryOnGarment(ctx, s.clothing, aura.Mirror(frame), garment, item.Category, item.Type)
	if res.Fallback {
		s.logger.Warn("garment try-on fell back to the original frame", "garment", item.ID, "notice", res.Notice)
	}
	return s.send(aura.SetStyle{Style: aura.Style{Kind: aura.Garment, Garment: &res}})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:  s.driver.Status(),
		Clients: s.sink.Clients(),
		Assets:  s.cache.Len(),
	}
	if s.adapter != nil {
		resp.Connection = s.adapter.State().String()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
