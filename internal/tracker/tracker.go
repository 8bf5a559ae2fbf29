// Package tracker owns the single tracking comment a run writes its status
// into. The comment moves through three phases, linear and single-pass:
// Pending (placeholder, posted immediately), Running (optional, once the
// agent's identity is known mid-stream), and Terminal (exactly one final
// rewrite after the process exits).
package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// CommentAPI is the slice of the GitHub client the tracker needs.
type CommentAPI interface {
	CreateComment(ctx context.Context, issueNumber int, body string) (commentID int64, err error)
	UpdateTrackingComment(ctx context.Context, commentID int64, isReviewComment bool, body string) error
	GetTrackingComment(ctx context.Context, commentID int64, isReviewComment bool) (body string, err error)
}

// Phase is the tracking comment's lifecycle position.
type Phase int

const (
	PhaseNone Phase = iota
	PhasePending
	PhaseRunning
	PhaseTerminal
)

// Tracker drives one tracking comment. It is owned by a single invocation;
// the mutex only guards against the fire-and-forget Running update racing
// the Terminal rewrite.
type Tracker struct {
	api    CommentAPI
	logger zerolog.Logger

	mu              sync.Mutex
	phase           Phase
	commentID       int64
	isReviewComment bool
}

func New(api CommentAPI, logger zerolog.Logger) *Tracker {
	return &Tracker{api: api, logger: logger}
}

// CreatePending posts the placeholder comment. Called once, before the agent
// process starts. The placeholder carries no metadata marker. Parse warnings
// (stripped flags, unclosed brackets) are surfaced here as a banner because
// the triggering user may never see the workflow logs.
func (t *Tracker) CreatePending(ctx context.Context, threadNumber int, warnings []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase != PhaseNone {
		return fmt.Errorf("tracking comment already created (phase %d)", t.phase)
	}

	id, err := t.api.CreateComment(ctx, threadNumber, renderPending(warnings))
	if err != nil {
		return fmt.Errorf("failed to create tracking comment: %w", err)
	}

	t.commentID = id
	t.phase = PhasePending
	return nil
}

// Adopt takes over an existing comment (the review-comment reply case) as
// the tracking comment instead of creating one.
func (t *Tracker) Adopt(commentID int64, isReviewComment bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commentID = commentID
	t.isReviewComment = isReviewComment
	t.phase = PhasePending
}

// CommentID returns the tracking comment id, 0 before CreatePending.
func (t *Tracker) CommentID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commentID
}

// MarkRunning rewrites the comment to show the now-known identity and a run
// log link. Invoked fire-and-forget off the stream's init event; it must
// never block stream consumption, and losing the race against Finalize is
// fine — the terminal body wins.
func (t *Tracker) MarkRunning(ctx context.Context, agentID, agentName, runLogURL string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase != PhasePending {
		return nil // terminal already written, or no comment exists
	}

	body := renderRunning(agentID, agentName, runLogURL)
	if err := t.api.UpdateTrackingComment(ctx, t.commentID, t.isReviewComment, body); err != nil {
		return fmt.Errorf("failed to apply running update: %w", err)
	}
	t.phase = PhaseRunning
	return nil
}

// Finalize performs the single terminal rewrite. The comment's current body
// is fetched first because the agent edits its own tracking comment during
// the run; whatever it wrote survives into the final body. Errors here
// propagate: a stale tracking comment is something a human must know about.
func (t *Tracker) Finalize(ctx context.Context, o Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase == PhaseTerminal {
		return fmt.Errorf("tracking comment already finalized")
	}
	if t.phase == PhaseNone {
		return fmt.Errorf("no tracking comment to finalize")
	}

	current, err := t.api.GetTrackingComment(ctx, t.commentID, t.isReviewComment)
	if err != nil {
		t.logger.Warn().Err(err).Int64("comment_id", t.commentID).
			Msg("Could not fetch current comment body, finalizing from scratch")
		current = ""
	}

	body := renderTerminal(current, o)
	if err := t.api.UpdateTrackingComment(ctx, t.commentID, t.isReviewComment, body); err != nil {
		return fmt.Errorf("failed to finalize tracking comment: %w", err)
	}
	t.phase = PhaseTerminal
	return nil
}
