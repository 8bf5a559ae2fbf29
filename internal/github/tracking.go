package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// GetComment fetches an issue/PR comment body.
func (c *Client) GetComment(ctx context.Context, commentID int64) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", c.owner, c.repo, commentID)
	var out Comment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", fmt.Errorf("failed to fetch comment %d: %w", commentID, err)
	}
	return out.Body, nil
}

// GetReviewComment fetches an inline review comment body.
func (c *Client) GetReviewComment(ctx context.Context, commentID int64) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/comments/%d", c.owner, c.repo, commentID)
	var out Comment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", fmt.Errorf("failed to fetch review comment %d: %w", commentID, err)
	}
	return out.Body, nil
}

// GetTrackingComment reads the tracking comment through the right endpoint,
// with the same not-found fallback as UpdateTrackingComment.
func (c *Client) GetTrackingComment(ctx context.Context, commentID int64, isReviewComment bool) (string, error) {
	if isReviewComment {
		body, err := c.GetReviewComment(ctx, commentID)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return c.GetComment(ctx, commentID)
}

// TrackingAPI adapts Client to the tracker's capability interface.
type TrackingAPI struct {
	*Client
}

// CreateComment narrows the client's create to the id the tracker keeps.
func (t TrackingAPI) CreateComment(ctx context.Context, issueNumber int, body string) (int64, error) {
	created, err := t.Client.CreateComment(ctx, issueNumber, body)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}
