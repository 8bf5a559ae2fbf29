package ghevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIssueComment(t *testing.T) {
	payload := []byte(`{
		"action": "created",
		"issue": {"number": 7, "title": "Bug", "body": "desc"},
		"comment": {"id": 42, "body": "@letta-agent fix this"},
		"sender": {"login": "alice"}
	}`)

	ev, err := Normalize("issue_comment", payload)
	require.NoError(t, err)
	assert.Equal(t, KindIssueComment, ev.Kind)
	assert.Equal(t, 7, ev.ThreadNumber)
	assert.Equal(t, "@letta-agent fix this", ev.TriggerText)
	assert.EqualValues(t, 42, ev.CommentID)
	assert.Equal(t, "alice", ev.Actor)
	assert.False(t, ev.IsPullRequest)
	assert.Empty(t, ev.PRBody)
}

func TestNormalizeIssueCommentOnPR(t *testing.T) {
	payload := []byte(`{
		"action": "created",
		"issue": {"number": 12, "body": "Fixes #42", "pull_request": {"url": "x"}},
		"comment": {"id": 9, "body": "@letta-agent continue"},
		"sender": {"login": "bob"}
	}`)

	ev, err := Normalize("issue_comment", payload)
	require.NoError(t, err)
	assert.True(t, ev.IsPullRequest)
	assert.Equal(t, "Fixes #42", ev.PRBody)
}

func TestNormalizeReviewComment(t *testing.T) {
	payload := []byte(`{
		"action": "created",
		"pull_request": {"number": 3, "body": "pr body"},
		"comment": {"id": 8, "body": "@letta-agent check this line"},
		"sender": {"login": "carol"}
	}`)

	ev, err := Normalize("pull_request_review_comment", payload)
	require.NoError(t, err)
	assert.Equal(t, KindReviewComment, ev.Kind)
	assert.True(t, ev.IsReviewCmt)
	assert.True(t, ev.IsPullRequest)
	assert.Equal(t, 3, ev.ThreadNumber)
}

func TestNormalizeIssuesActions(t *testing.T) {
	for action, want := range map[string]Kind{
		"opened":   KindIssueOpened,
		"assigned": KindIssueAssigned,
		"labeled":  KindIssueLabeled,
	} {
		payload := []byte(`{"action": "` + action + `", "issue": {"number": 5, "title": "T", "body": "B"}, "sender": {"login": "d"}}`)
		ev, err := Normalize("issues", payload)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Kind, action)
		assert.Equal(t, "T\n\nB", ev.TriggerText)
	}
}

func TestNormalizePullRequest(t *testing.T) {
	payload := []byte(`{"action": "opened", "pull_request": {"number": 4, "body": "Closes #1"}, "sender": {"login": "e"}}`)
	ev, err := Normalize("pull_request", payload)
	require.NoError(t, err)
	assert.Equal(t, KindPullRequest, ev.Kind)
	assert.Equal(t, "Closes #1", ev.PRBody)
}

func TestNormalizeUnsupportedEvent(t *testing.T) {
	_, err := Normalize("workflow_dispatch", []byte(`{}`))
	assert.Error(t, err)
}

func TestNormalizeMissingFields(t *testing.T) {
	_, err := Normalize("issue_comment", []byte(`{"issue": {"number": 1}}`))
	assert.Error(t, err)
}
