package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// New constructs the run logger. CI log output is line-oriented plain text,
// so the console writer is used without color.
func New(w io.Writer, debug bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ErrorSink collects failures from fire-and-forget side calls (provisional
// comment updates, reactions, name lookups). The completion path never blocks
// on these calls; their errors land here as warnings instead of propagating.
type ErrorSink struct {
	logger zerolog.Logger

	mu     sync.Mutex
	errors []error
	wg     sync.WaitGroup
}

func NewErrorSink(logger zerolog.Logger) *ErrorSink {
	return &ErrorSink{logger: logger}
}

// Go runs fn detached. A non-nil error is logged and recorded, never returned.
func (s *ErrorSink) Go(name string, fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.logger.Warn().Err(err).Str("task", name).Msg("Background task failed")
			s.mu.Lock()
			s.errors = append(s.errors, err)
			s.mu.Unlock()
		}
	}()
}

// Drain waits for in-flight tasks and returns the errors collected so far.
// Intended for process shutdown and for tests; the main completion path does
// not call it before finishing its own work.
func (s *ErrorSink) Drain() []error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errors))
	copy(out, s.errors)
	return out
}
