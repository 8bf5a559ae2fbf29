package runner

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/letta-ai/letta-github-action/internal/stream"
)

// Identity holds the fields captured opportunistically from the event
// stream. They must be collected mid-stream: the process may crash or hang
// before exit, and whatever was seen by then is all there is.
type Identity struct {
	AgentID        string
	ConversationID string
	Model          string
}

// Result is what a completed (or failed) supervision yields.
type Result struct {
	Identity
	Success   bool
	ExitCode  int
	SawResult bool          // a terminal result event arrived before EOF
	Duration  time.Duration // from the result event when present, else wall clock
	NumTurns  int
}

// Supervisor launches the agent CLI, feeds it the prompt, and consumes its
// NDJSON output.
type Supervisor struct {
	Binary         string
	ExtraEnv       []string
	ShowFullOutput bool
	Transcript     io.Writer // each stream line is appended here, nil to skip
	Logger         zerolog.Logger

	// OnInit fires once, in its own goroutine, when the first init event
	// carrying an agent id arrives. It must not be waited on: stream
	// consumption continues immediately.
	OnInit func(Identity)
}

// Run executes the agent process to completion. The prompt is streamed into
// stdin concurrently with process startup; the process may begin consuming
// partial input immediately. EOF on stdout always triggers exit handling,
// whether or not a result event ever arrived.
func (s *Supervisor) Run(ctx context.Context, args []string, prompt string) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	if len(s.ExtraEnv) > 0 {
		cmd.Env = s.ExtraEnv
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return Result{}, fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return Result{}, fmt.Errorf("starting %s: %w", s.Binary, err)
	}

	// Feed the prompt concurrently with startup. A feeder failure tears down
	// the receiving pipe so the reader loop cannot hang on a dead peer.
	go func() {
		defer stdin.Close()
		if _, err := io.WriteString(stdin, prompt); err != nil {
			s.Logger.Error().Err(err).Msg("Failed to deliver prompt to agent stdin")
			stdout.Close()
		}
	}()

	result := s.consume(stdout)

	waitErr := cmd.Wait()
	result.ExitCode = cmd.ProcessState.ExitCode()
	result.Success = waitErr == nil && result.ExitCode == 0
	if !result.SawResult || result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	if waitErr != nil {
		s.Logger.Error().Err(waitErr).Int("exit_code", result.ExitCode).
			Msg("Agent process exited with failure")
	}
	return result, nil
}

// consume reads the stream until EOF, classifying each line and updating the
// running identity whenever a field appears in any event.
func (s *Supervisor) consume(stdout io.Reader) Result {
	var result Result
	initSeen := false

	sc := stream.NewScanner(stdout)
	for {
		line, ok := sc.Next()
		if !ok {
			break
		}

		if s.Transcript != nil {
			s.Transcript.Write(line)
			s.Transcript.Write([]byte("\n"))
		}

		ev := stream.Interpret(line)

		if ev.AgentID != "" {
			result.AgentID = ev.AgentID
		}
		if ev.ConversationID != "" {
			result.ConversationID = ev.ConversationID
		}
		if ev.Model != "" {
			result.Model = ev.Model
		}

		switch ev.Kind {
		case stream.EventInit:
			s.Logger.Info().
				Str("agent_id", ev.AgentID).
				Str("conversation_id", ev.ConversationID).
				Msg("Agent initialized")
			if !initSeen && ev.AgentID != "" && s.OnInit != nil {
				initSeen = true
				id := result.Identity
				go s.OnInit(id)
			}

		case stream.EventResult:
			result.SawResult = true
			result.Duration = time.Duration(ev.DurationMS) * time.Millisecond
			result.NumTurns = ev.NumTurns
			s.Logger.Info().
				Bool("is_error", ev.IsError).
				Int64("duration_ms", ev.DurationMS).
				Int("turns", ev.NumTurns).
				Msg("Agent reported result")

		case stream.EventRaw:
			if s.ShowFullOutput {
				s.Logger.Info().Msg(string(ev.Raw))
			}

		case stream.EventOther:
			if s.ShowFullOutput {
				s.Logger.Debug().Str("type", ev.Type).Str("subtype", ev.Subtype).
					RawJSON("event", ev.Raw).Msg("Agent event")
			}
		}
	}

	if err := sc.Err(); err != nil {
		s.Logger.Warn().Err(err).Msg("Agent output stream ended with error")
	}
	return result
}
