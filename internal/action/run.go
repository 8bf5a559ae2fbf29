// Package action wires the components of one invocation together: normalize
// the event, parse the trigger, resolve the agent/conversation, run the
// agent process, and drive the tracking comment to its terminal state.
package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/letta-ai/letta-github-action/internal/config"
	"github.com/letta-ai/letta-github-action/internal/ghevent"
	"github.com/letta-ai/letta-github-action/internal/github"
	"github.com/letta-ai/letta-github-action/internal/letta"
	"github.com/letta-ai/letta-github-action/internal/logging"
	"github.com/letta-ai/letta-github-action/internal/outputs"
	"github.com/letta-ai/letta-github-action/internal/resolver"
	"github.com/letta-ai/letta-github-action/internal/runner"
	"github.com/letta-ai/letta-github-action/internal/tracker"
	"github.com/letta-ai/letta-github-action/internal/trigger"
)

// Run executes one full invocation. A nil error means the agent ran to a
// successful conclusion; comment-event bodies without the trigger phrase are
// a silent no-op.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ev, err := ghevent.Load(cfg.GitHub.EventName, cfg.GitHub.EventPath)
	if err != nil {
		return err
	}

	parsed := trigger.Parse(cfg.Trigger.Phrase, ev.TriggerText)
	if isCommentKind(ev.Kind) && !parsed.Matched {
		logger.Info().Str("kind", string(ev.Kind)).Msg("Trigger phrase not present, nothing to do")
		return nil
	}

	gh := github.NewClient(cfg.GitHub.APIBase, cfg.Owner(), cfg.Name(), cfg.GitHub.Token, logger)
	lettaClient := letta.NewClient(cfg.Letta.BaseURL, cfg.Letta.APIKey)
	sink := logging.NewErrorSink(logger)

	// Ack the trigger right away; purely cosmetic.
	if ev.CommentID != 0 {
		commentID, isReview := ev.CommentID, ev.IsReviewCmt
		sink.Go("eyes-reaction", func() error {
			return gh.CreateReaction(ctx, commentID, isReview, "eyes")
		})
	}

	thread := resolver.Thread{Kind: resolver.Issue, Number: ev.ThreadNumber}
	if ev.IsPullRequest {
		thread.Kind = resolver.PullRequest
		thread.LinkedIssues = resolver.ExtractLinkedIssues(ev.PRBody)
	}
	resolved := resolver.New(gh, logger).Resolve(ctx, thread, cfg.Trigger.AgentID)
	logger.Info().
		Int("decision", int(resolved.Decision)).
		Str("agent_id", resolved.AgentID).
		Str("conversation_id", resolved.ConversationID).
		Int("linked_from_issue", resolved.LinkedFromIssue).
		Msg("Resolved run identity")

	var warnings []string
	if parsed.ParseError != "" {
		warnings = append(warnings, parsed.ParseError)
	}
	warnings = append(warnings, parsed.Warnings...)

	track := tracker.New(github.TrackingAPI{Client: gh}, logger)
	if err := track.CreatePending(ctx, ev.ThreadNumber, warnings); err != nil {
		return err
	}

	result, runErr := runAgent(ctx, cfg, ev, parsed, resolved, track, lettaClient, sink, logger)

	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	outcome := buildOutcome(finalizeCtx, cfg, gh, lettaClient, ev, result, runErr, logger)
	if err := track.Finalize(finalizeCtx, outcome); err != nil {
		logger.Error().Err(err).Msg("Failed to finalize tracking comment")
		return err
	}

	// Identity goes to outputs even on failure: partial progress (an agent
	// was created) must stay visible.
	out := outputs.Outputs{
		AgentID:        result.AgentID,
		ConversationID: result.ConversationID,
		Model:          result.Model,
		Conclusion:     "failure",
	}
	if outcome.Success {
		out.Conclusion = "success"
		out.TranscriptPath = result.TranscriptPath
	}
	if err := outputs.Write(cfg.Run.OutputsPath, out); err != nil {
		logger.Warn().Err(err).Msg("Failed to write workflow outputs")
	}

	if runErr != nil {
		return runErr
	}
	if !result.Success {
		return fmt.Errorf("agent process exited with code %d", result.ExitCode)
	}
	return nil
}

// runResult extends the supervisor result with the transcript location.
type runResult struct {
	runner.Result
	TranscriptPath string
}

// runAgent builds the invocation and supervises the process.
func runAgent(
	ctx context.Context,
	cfg *config.Config,
	ev *ghevent.Event,
	parsed trigger.Parsed,
	resolved resolver.Resolved,
	track *tracker.Tracker,
	lettaClient *letta.Client,
	sink *logging.ErrorSink,
	logger zerolog.Logger,
) (runResult, error) {
	// Workflow-level args first, comment-level args after so the person in
	// the thread wins.
	userArgs := append(trigger.SplitArgs(cfg.Trigger.CLIArgs), parsed.CLIArgs...)
	args := runner.BuildArgs(resolved, cfg.Trigger.Model, userArgs)

	if err := os.MkdirAll(cfg.Run.TranscriptDir, 0755); err != nil {
		return runResult{}, fmt.Errorf("failed to create transcript dir: %w", err)
	}
	transcriptPath := filepath.Join(cfg.Run.TranscriptDir, uuid.New().String()+".ndjson")
	transcript, err := os.Create(transcriptPath)
	if err != nil {
		return runResult{}, fmt.Errorf("failed to create transcript: %w", err)
	}
	defer transcript.Close()

	runLogURL := runLogURL(cfg)
	sup := &runner.Supervisor{
		Binary:         cfg.Letta.Binary,
		ShowFullOutput: cfg.Run.ShowFullOutput,
		Transcript:     transcript,
		Logger:         logger,
		OnInit: func(id runner.Identity) {
			sink.Go("running-update", func() error {
				name := friendlyName(ctx, lettaClient, id.AgentID, logger)
				return track.MarkRunning(ctx, id.AgentID, name, runLogURL)
			})
		},
	}

	runCtx := ctx
	if cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
		defer cancel()
	}

	logger.Info().Strs("args", args).Msg("Starting agent process")
	result, err := sup.Run(runCtx, args, parsed.PromptText)
	return runResult{Result: result, TranscriptPath: transcriptPath}, err
}

// buildOutcome assembles the terminal rendering input from whatever the run
// produced. Branch and name lookups are best-effort.
func buildOutcome(
	ctx context.Context,
	cfg *config.Config,
	gh *github.Client,
	lettaClient *letta.Client,
	ev *ghevent.Event,
	result runResult,
	runErr error,
	logger zerolog.Logger,
) tracker.Outcome {
	o := tracker.Outcome{
		Success:        runErr == nil && result.Success,
		Elapsed:        result.Duration,
		TriggerUser:    ev.Actor,
		AgentID:        result.AgentID,
		ConversationID: result.ConversationID,
		Model:          result.Model,
		RunLogURL:      runLogURL(cfg),
	}
	if runErr != nil {
		o.ErrorDetail = runErr.Error()
	} else if !result.Success {
		o.ErrorDetail = fmt.Sprintf("agent process exited with code %d", result.ExitCode)
	}

	if o.AgentID != "" {
		o.AgentName = friendlyName(ctx, lettaClient, o.AgentID, logger)
	}

	branch := workBranchName(ev)
	if base, err := gh.GetDefaultBranch(ctx); err == nil {
		if ok, err := gh.BranchHasCommits(ctx, base, branch); err == nil && ok {
			o.BranchName = branch
			o.BranchURL = fmt.Sprintf("%s/%s/tree/%s", cfg.GitHub.ServerURL, cfg.GitHub.Repo, branch)
		}
	} else {
		logger.Warn().Err(err).Msg("Could not determine default branch, skipping branch link")
	}

	return o
}

// friendlyName resolves the agent's display name, falling back to the raw id.
func friendlyName(ctx context.Context, c *letta.Client, agentID string, logger zerolog.Logger) string {
	name, err := c.GetAgentName(ctx, agentID)
	if err != nil {
		logger.Warn().Err(err).Str("agent_id", agentID).
			Msg("Agent name lookup failed, showing raw id")
		return ""
	}
	return name
}

// workBranchName is the branch convention the agent's git tooling uses for a
// thread.
func workBranchName(ev *ghevent.Event) string {
	kind := "issue"
	if ev.IsPullRequest {
		kind = "pr"
	}
	return fmt.Sprintf("letta/%s-%d", kind, ev.ThreadNumber)
}

func runLogURL(cfg *config.Config) string {
	return fmt.Sprintf("%s/%s/actions/runs/%d",
		strings.TrimRight(cfg.GitHub.ServerURL, "/"), cfg.GitHub.Repo, cfg.GitHub.RunID)
}

func isCommentKind(k ghevent.Kind) bool {
	switch k {
	case ghevent.KindIssueComment, ghevent.KindReview, ghevent.KindReviewComment:
		return true
	}
	return false
}
