package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letta-ai/letta-github-action/internal/retry"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(server.URL, "octo", "repo", "tok", zerolog.Nop())
	c.retryCfg = retry.Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return c
}

func TestListCommentsSortsNewestFirst(t *testing.T) {
	comments := []Comment{
		{ID: 1, Body: "oldest", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Body: "newest", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Body: "middle", CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/repo/issues/7/comments", r.URL.Path)
		assert.Equal(t, "token tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(comments)
	})

	got, err := newTestClient(t, handler).ListComments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].Body)
	assert.Equal(t, "middle", got[1].Body)
	assert.Equal(t, "oldest", got[2].Body)
}

func TestCreateComment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "hello", body["body"])
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Comment{ID: 55, Body: "hello"})
	})

	created, err := newTestClient(t, handler).CreateComment(context.Background(), 7, "hello")
	require.NoError(t, err)
	assert.EqualValues(t, 55, created.ID)
}

func TestUpdateTrackingCommentReviewFallback(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/repos/octo/repo/pulls/comments/9" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "{}")
	})

	err := newTestClient(t, handler).UpdateTrackingComment(context.Background(), 9, true, "body")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/repos/octo/repo/pulls/comments/9",
		"/repos/octo/repo/issues/comments/9",
	}, paths)
}

func TestUpdateTrackingCommentNonNotFoundPropagates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := newTestClient(t, handler).UpdateTrackingComment(context.Background(), 9, true, "body")
	assert.Error(t, err)
}

func TestBranchHasCommits(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/repo/compare/main...work":
			fmt.Fprint(w, `{"ahead_by": 2}`)
		case "/repos/octo/repo/compare/main...empty":
			fmt.Fprint(w, `{"ahead_by": 0}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, handler)

	ok, err := c.BranchHasCommits(context.Background(), "main", "work")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.BranchHasCommits(context.Background(), "main", "empty")
	require.NoError(t, err)
	assert.False(t, ok)

	// Missing branch is not an error, just no link.
	ok, err = c.BranchHasCommits(context.Background(), "main", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetryOnTransientFailure(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	c := newTestClient(t, handler)
	c.retryCfg = retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	_, err := c.ListComments(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestTrackingAPICreateComment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Comment{ID: 77})
	})
	api := TrackingAPI{Client: newTestClient(t, handler)}

	id, err := api.CreateComment(context.Background(), 7, "body")
	require.NoError(t, err)
	assert.EqualValues(t, 77, id)
}
