// Package stream consumes the agent CLI's newline-delimited JSON output.
// Line buffering and JSON interpretation are kept apart: the Scanner yields
// raw lines lazily off a live pipe, and Interpret classifies each line
// independently, so both are unit-testable alone.
package stream

import (
	"bufio"
	"io"
)

// Scanner is a lazy, non-restartable iterator over the lines of a live
// stream. It ends when the underlying reader does (process exit or pipe
// teardown).
type Scanner struct {
	scanner *bufio.Scanner
	err     error
}

// NewScanner wraps a reader. The buffer is enlarged because agent tool
// results can produce very long single lines.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Scanner{scanner: s}
}

// Next returns the next non-empty line. ok is false at end of stream.
func (s *Scanner) Next() (line []byte, ok bool) {
	for s.scanner.Scan() {
		b := s.scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		// Copy: bufio reuses its buffer on the next Scan.
		out := make([]byte, len(b))
		copy(out, b)
		return out, true
	}
	s.err = s.scanner.Err()
	return nil, false
}

// Err reports a read failure after Next has returned ok=false. A clean EOF
// yields nil.
func (s *Scanner) Err() error {
	return s.err
}
