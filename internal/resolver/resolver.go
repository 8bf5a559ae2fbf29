// Package resolver decides which agent and conversation a run should resume.
// It walks the thread's comment history newest-first looking for a resumption
// marker left by a previous run, and for PRs extends the search to linked
// issues.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/letta-ai/letta-github-action/internal/github"
	"github.com/letta-ai/letta-github-action/internal/metadata"
)

// ThreadKind distinguishes issue threads from PR threads.
type ThreadKind int

const (
	Issue ThreadKind = iota
	PullRequest
)

// Thread identifies the GitHub object holding the conversation. Derived per
// run from the event payload, never persisted.
type Thread struct {
	Kind         ThreadKind
	Number       int
	LinkedIssues []int // PR only, closing-keyword refs first, deduped
}

// Decision enumerates the resolver outcomes.
type Decision int

const (
	// CreateNew: no prior record anywhere and no configured agent.
	CreateNew Decision = iota
	// UseConfiguredAgent: run the configured agent with a fresh conversation.
	UseConfiguredAgent
	// ResumeConversation: a record with a conversation id was discovered.
	ResumeConversation
	// ResumeAgent: a record was discovered but carries no conversation id.
	ResumeAgent
)

// Resolved is the resolver's output. Exactly one Decision holds per run.
type Resolved struct {
	Decision        Decision
	AgentID         string
	ConversationID  string
	LinkedFromIssue int // issue number the record came from, 0 for the thread itself
}

// Resolver scans comment history through the narrow CommentLister capability,
// so tests can substitute an in-memory fake.
type Resolver struct {
	lister github.CommentLister
	logger zerolog.Logger

	// Bot identities whose comments may carry resumption markers.
	botUserID int64
	botSlug   string
	ciLogin   string
}

// New constructs a resolver with the product's recognized bot identities.
func New(lister github.CommentLister, logger zerolog.Logger) *Resolver {
	return &Resolver{
		lister:    lister,
		logger:    logger,
		botUserID: 41898282, // github-actions[bot]
		botSlug:   "letta",
		ciLogin:   "github-actions[bot]",
	}
}

// Resolve applies the precedence policy:
//
//  1. A record discovered on the thread (or, for PRs, a linked issue) wins.
//  2. A configured agent id that differs from the discovered agent overrides
//     which agent runs, and the discovered conversation is NOT carried over:
//     a conversation id is scoped to one agent.
//  3. With nothing discovered, the configured agent (if any) starts fresh.
//
// Transport errors on the current thread degrade to CreateNew / configured
// agent rather than failing the run; errors on linked issues are logged and
// the remaining linked issues are still searched.
func (r *Resolver) Resolve(ctx context.Context, thread Thread, configuredAgentID string) Resolved {
	record, linkedFrom, err := r.discover(ctx, thread)
	if err != nil {
		// Never crash the run over a missing-history lookup.
		r.logger.Error().Err(err).Int("thread", thread.Number).
			Msg("Failed to list comments, proceeding without resumption")
		return Resolved{Decision: CreateNew}
	}

	if record == nil {
		if configuredAgentID != "" {
			return Resolved{Decision: UseConfiguredAgent, AgentID: configuredAgentID}
		}
		return Resolved{Decision: CreateNew}
	}

	if configuredAgentID != "" && configuredAgentID != record.AgentID {
		r.logger.Info().
			Str("configured", configuredAgentID).
			Str("discovered", record.AgentID).
			Msg("Configured agent differs from discovered record, starting fresh conversation")
		return Resolved{Decision: UseConfiguredAgent, AgentID: configuredAgentID}
	}

	if record.ConversationID != "" {
		return Resolved{
			Decision:        ResumeConversation,
			AgentID:         record.AgentID,
			ConversationID:  record.ConversationID,
			LinkedFromIssue: linkedFrom,
		}
	}
	return Resolved{Decision: ResumeAgent, AgentID: record.AgentID}
}

// discover returns the most recent record on the thread, or from the first
// linked issue that has one. The second return is the linked issue number, 0
// when the record came from the thread itself. A transport error on the
// current thread aborts discovery; errors on linked issues do not.
func (r *Resolver) discover(ctx context.Context, thread Thread) (*metadata.Record, int, error) {
	record, err := r.scanThread(ctx, thread.Number)
	if err != nil {
		return nil, 0, err
	}
	if record != nil {
		return record, 0, nil
	}

	if thread.Kind != PullRequest {
		return nil, 0, nil
	}

	for _, issue := range thread.LinkedIssues {
		record, err := r.scanThread(ctx, issue)
		if err != nil {
			r.logger.Warn().Err(err).Int("issue", issue).
				Msg("Failed to scan linked issue, continuing with the rest")
			continue
		}
		if record != nil {
			return record, issue, nil
		}
	}
	return nil, 0, nil
}

// scanThread finds the newest bot comment whose body parses to a record.
func (r *Resolver) scanThread(ctx context.Context, number int) (*metadata.Record, error) {
	comments, err := r.lister.ListComments(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("listing comments on #%d: %w", number, err)
	}

	for _, c := range comments {
		if !r.isBotAuthor(c.User) {
			continue
		}
		if record := metadata.Parse(c.Body); record != nil {
			return record, nil
		}
	}
	return nil, nil
}

// isBotAuthor matches the recognized bot identities: the well-known numeric
// id, any Bot-typed account whose login carries the product slug, or the CI
// bot login.
func (r *Resolver) isBotAuthor(u github.User) bool {
	if u.ID == r.botUserID {
		return true
	}
	if u.Type == "Bot" && strings.Contains(strings.ToLower(u.Login), r.botSlug) {
		return true
	}
	return u.Login == r.ciLogin
}
