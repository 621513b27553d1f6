// Package stream moves frames in and out of the try-on loop as MJPEG.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// maxFrameSize is the largest JPEG frame accepted from the stream.
const maxFrameSize = 16 << 20

// SplitJpeg is a bufio.SplitFunc returning one complete JPEG image per token.
// Bytes preceding the start of image marker are discarded.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, jpegSOI)
	if start == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep the last byte, it could be the first half of a marker.
		return max(len(data)-1, 0), nil, nil
	}
	end := bytes.Index(data[start+2:], jpegEOI)
	if end == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	end += start + 2 + len(jpegEOI)
	return end, data[start:end], nil
}

// Source decodes a MJPEG byte stream and keeps the most recent frame.
type Source struct {
	Logger *slog.Logger

	mu     sync.RWMutex
	latest image.Image

	frames  atomic.Int64
	dropped atomic.Int64
}

// NewSource creates an empty source.
func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{Logger: logger}
}

// Frame returns the most recent frame. It never blocks on the stream.
func (s *Source) Frame() (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Frames returns the number of frames decoded and the number of frames dropped as undecodable.
func (s *Source) Frames() (decoded, dropped int64) {
	return s.frames.Load(), s.dropped.Load()
}

// ReadFrom consumes the stream until EOF or until the context is cancelled.
func (s *Source) ReadFrom(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxFrameSize)
	scanner.Split(SplitJpeg)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := jpeg.Decode(bytes.NewReader(scanner.Bytes()))
		if err != nil {
			n := s.dropped.Add(1)
			s.Logger.Debug("frame dropped", "dropped", n, "error", err)
			continue
		}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
		s.frames.Add(1)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading the frame stream: %w", err)
	}
	return nil
}

// CaptureOptions configures the ffmpeg capture process.
type CaptureOptions struct {
	// Format is the ffmpeg input format, e.g. v4l2 or avfoundation. Empty means autodetect.
	Format string
	Width  int
	Height int
	FPS    int
}

// NewFFmpegCmd creates an ffmpeg process writing the input as MJPEG frames to stdout.
func NewFFmpegCmd(ctx context.Context, input string, opts CaptureOptions) *exec.Cmd {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(opts.FPS))
	}
	if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height))
	}
	args = append(args, "-i", input, "-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "5", "-")
	return exec.CommandContext(ctx, "ffmpeg", args...)
}

// Capture runs ffmpeg on the input and feeds its output into the source until
// the process exits or the context is cancelled.
func (s *Source) Capture(ctx context.Context, input string, opts CaptureOptions) error {
	cmd := NewFFmpegCmd(ctx, input, opts)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("getting the ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	s.Logger.Info("capture started", "input", input)

	readErr := s.ReadFrom(ctx, stdout)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		return readErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg exited: %w", waitErr)
	}
	return nil
}
