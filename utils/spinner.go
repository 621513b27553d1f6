package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const spinnerFrames = `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`

// Spinner is a terminal progress indicator for operations of unknown length.
type Spinner struct {
	mu         sync.Mutex
	delay      time.Duration
	writer     io.Writer
	message    string
	lastOutput string
	StopMsg    string
	hideCursor bool
	running    bool
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewSpinner instantiates a new progress indicator writing to stderr.
func NewSpinner(msg string, d time.Duration, hideCursor bool) *Spinner {
	return &Spinner{
		delay:      d,
		writer:     os.Stderr,
		message:    msg,
		hideCursor: hideCursor,
	}
}

// SetWriter redirects the spinner output.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start starts the progress indicator. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25l")
	}
	s.mu.Unlock()

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(s.delay)
		defer ticker.Stop()

		for {
			for _, r := range spinnerFrames {
				s.mu.Lock()
				output := fmt.Sprintf("\r%s%s %c%s", s.message, SuccessColor, r, DefaultColor)
				fmt.Fprint(s.writer, output)
				s.lastOutput = output
				s.mu.Unlock()

				select {
				case <-stop:
					return
				case <-ticker.C:
				}
			}
		}
	}(s.stopChan, s.doneChan)
}

// Stop stops the progress indicator and prints the stop message, if any.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	done := s.doneChan
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.restoreCursor()
	if len(s.StopMsg) > 0 {
		fmt.Fprint(s.writer, s.StopMsg)
	}
}

// RestoreCursor restores back the cursor visibility.
func (s *Spinner) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreCursor()
}

func (s *Spinner) restoreCursor() {
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25h")
	}
}

// clear deletes the last line. Caller must hold the locker.
func (s *Spinner) clear() {
	n := utf8.RuneCountInString(s.lastOutput)
	if runtime.GOOS == "windows" {
		fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n)+"\r")
		s.lastOutput = ""
		return
	}
	fmt.Fprint(s.writer, "\r\033[K") // clear line
	s.lastOutput = ""
}
