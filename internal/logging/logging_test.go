package logging

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRespectsDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")

	buf.Reset()
	debugLogger := New(&buf, true)
	debugLogger.Debug().Msg("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestErrorSinkCollectsFailures(t *testing.T) {
	sink := NewErrorSink(zerolog.Nop())

	var ran atomic.Int32
	sink.Go("ok", func() error {
		ran.Add(1)
		return nil
	})
	sink.Go("bad", func() error {
		ran.Add(1)
		return fmt.Errorf("boom")
	})

	errs := sink.Drain()
	assert.EqualValues(t, 2, ran.Load())
	assert.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "boom")
}

func TestErrorSinkDrainEmpty(t *testing.T) {
	assert.Empty(t, NewErrorSink(zerolog.Nop()).Drain())
}
