package stream

import (
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Juan-Cwq/aura"
)

// Boundary separates the parts of the MJPEG response.
const Boundary = "aurafrm"

// Sink encodes the composited frames and serves them as a multipart/x-mixed-replace stream.
// Slow clients skip frames rather than queue them.
type Sink struct {
	Logger *slog.Logger

	mu      sync.Mutex
	latest  []byte
	clients map[chan []byte]struct{}
}

// NewSink creates a sink without any connected client.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		Logger:  logger,
		clients: make(map[chan []byte]struct{}),
	}
}

// Present implements aura.FrameSink.
func (s *Sink) Present(frame *image.NRGBA) error {
	data, err := aura.EncodeJPEG(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = data
	for ch := range s.clients {
		// Replace a frame the client has not picked up yet.
		select {
		case <-ch:
		default:
		}
		ch <- data
	}
	return nil
}

// Latest returns the last encoded frame.
func (s *Sink) Latest() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Clients returns the number of connected viewers.
func (s *Sink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Sink) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil {
		ch <- s.latest
	}
	s.clients[ch] = struct{}{}
	return ch
}

func (s *Sink) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, ch)
}

// ServeHTTP streams the frames until the client goes away.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+Boundary)
	w.Header().Set("Cache-Control", "no-cache")

	ch := s.subscribe()
	defer s.unsubscribe(ch)
	s.Logger.Debug("viewer connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("viewer disconnected", "remote", r.RemoteAddr)
			return
		case data := <-ch:
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(data)); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := w.Write([]byte("\r\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
