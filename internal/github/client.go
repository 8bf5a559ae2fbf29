// Package github is the action's narrow GitHub REST surface: list comments,
// create/update the tracking comment, react, and inspect branches. Nothing
// else from the API is needed, and callers that only read comment history
// depend on the CommentLister capability rather than the full client.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/letta-ai/letta-github-action/internal/retry"
)

// ErrNotFound marks a 404 from the API, used for the review-comment update
// fallback.
var ErrNotFound = errors.New("github: not found")

// Comment is the subset of an issue/PR comment the action reads.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user"`
}

// User identifies a comment author.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// CommentLister is the capability the resolver needs: nothing more than
// recency-first comment history for a thread.
type CommentLister interface {
	ListComments(ctx context.Context, issueNumber int) ([]Comment, error)
}

// Client talks to the GitHub REST API for one repository.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	retryCfg   retry.Config
}

// NewClient constructs a client with sensible defaults. The limiter keeps
// bursts of comment mutations under GitHub's secondary rate limits.
func NewClient(baseURL, owner, repo, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		owner:      owner,
		repo:       repo,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		logger:     logger,
		retryCfg:   retry.DefaultConfig(),
	}
}

// ListComments returns all comments on an issue or PR thread, newest first.
// The per-issue endpoint has no descending sort, so the full set is fetched
// and sorted locally.
func (c *Client) ListComments(ctx context.Context, issueNumber int) ([]Comment, error) {
	var all []Comment
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=100&page=%d",
			c.owner, c.repo, issueNumber, page)

		var batch []Comment
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, fmt.Errorf("failed to list comments on #%d: %w", issueNumber, err)
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			break
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// CreateComment posts a new comment on an issue or PR thread.
func (c *Client) CreateComment(ctx context.Context, issueNumber int, body string) (*Comment, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, issueNumber)

	var created Comment
	err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"body": body}, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment on #%d: %w", issueNumber, err)
	}
	return &created, nil
}

// UpdateComment rewrites an existing issue/PR comment body.
func (c *Client) UpdateComment(ctx context.Context, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", c.owner, c.repo, commentID)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("failed to update comment %d: %w", commentID, err)
	}
	return nil
}

// UpdateReviewComment rewrites an inline review comment. Callers should fall
// back to UpdateComment when this returns ErrNotFound: the id may belong to a
// plain issue comment after all.
func (c *Client) UpdateReviewComment(ctx context.Context, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/comments/%d", c.owner, c.repo, commentID)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("failed to update review comment %d: %w", commentID, err)
	}
	return nil
}

// UpdateTrackingComment updates the tracking comment through the right
// endpoint, falling back from the review-comment path to the general path on
// a not-found.
func (c *Client) UpdateTrackingComment(ctx context.Context, commentID int64, isReviewComment bool, body string) error {
	if isReviewComment {
		err := c.UpdateReviewComment(ctx, commentID, body)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		c.logger.Debug().Int64("comment_id", commentID).
			Msg("Review comment endpoint returned 404, falling back to issue comment update")
	}
	return c.UpdateComment(ctx, commentID, body)
}

// CreateReaction adds an emoji reaction to the triggering comment. Best
// effort ack that the trigger was seen.
func (c *Client) CreateReaction(ctx context.Context, commentID int64, isReviewComment bool, content string) error {
	kind := "issues"
	if isReviewComment {
		kind = "pulls"
	}
	path := fmt.Sprintf("/repos/%s/%s/%s/comments/%d/reactions", c.owner, c.repo, kind, commentID)
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"content": content}, nil); err != nil {
		return fmt.Errorf("failed to react to comment %d: %w", commentID, err)
	}
	return nil
}

// GetDefaultBranch returns the repository's default branch name.
func (c *Client) GetDefaultBranch(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s", c.owner, c.repo)
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &repo); err != nil {
		return "", fmt.Errorf("failed to fetch repository: %w", err)
	}
	return repo.DefaultBranch, nil
}

// BranchHasCommits reports whether branch exists and is ahead of base. The
// terminal comment only links a branch that actually carries work.
func (c *Client) BranchHasCommits(ctx context.Context, base, branch string) (bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", c.owner, c.repo, base, branch)

	var cmp struct {
		AheadBy int `json:"ahead_by"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &cmp)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare %s...%s: %w", base, branch, err)
	}
	return cmp.AheadBy > 0, nil
}

// doJSON performs one API call with rate limiting and retry. Mutations are
// retried because GitHub's secondary limits surface as transient 403/429s.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	return retry.Do(ctx, c.retryCfg, c.logger, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create HTTP request: %w", err)
		}
		req.Header.Set("Authorization", "token "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("User-Agent", "letta-github-action")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("GitHub API %s %s failed with status %d: %s",
				method, path, resp.StatusCode, string(body))
		}

		if respBody != nil {
			if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}
