package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// IsTerminal reports whether w is a character device such as a tty.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Spinner displays an animated progress indicator. It stays silent unless
// its writer is a terminal, so piped output from agents remains clean.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	msg     string
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner on stderr (not yet running).
func NewSpinner() *Spinner {
	return NewSpinnerTo(os.Stderr)
}

func NewSpinnerTo(w io.Writer) *Spinner {
	return &Spinner{out: w, enabled: IsTerminal(w)}
}

// Start begins the spinner animation with the given message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msg = msg
	if !s.enabled || s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.done, s.stopped)
}

// Update changes the spinner message while it's running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// Stop halts the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	done, stopped := s.done, s.stopped
	s.done, s.stopped = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-stopped

	fmt.Fprintf(s.out, "\r\033[K")
}

func (s *Spinner) run(done, stopped chan struct{}) {
	defer close(stopped)

	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r\033[K%c %s", frames[i%len(frames)], msg)
			i++
		}
	}
}
