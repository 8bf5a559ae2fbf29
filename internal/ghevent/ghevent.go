// Package ghevent normalizes the GitHub Actions event payload into the small
// record the rest of the action consumes: what kind of thread triggered us,
// its number, the text to match the trigger phrase against, and (for PR
// contexts) the PR body for linked-issue extraction.
package ghevent

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies the triggering event.
type Kind string

const (
	KindIssueComment  Kind = "issue_comment"  // comment on an issue or PR
	KindReview        Kind = "pr_review"      // review submitted
	KindReviewComment Kind = "review_comment" // inline review comment
	KindIssueOpened   Kind = "issue_opened"
	KindIssueAssigned Kind = "issue_assigned"
	KindIssueLabeled  Kind = "issue_labeled"
	KindPullRequest   Kind = "pull_request" // opened or any other PR action
)

// Event is the normalized inbound record.
type Event struct {
	Kind          Kind
	ThreadNumber  int
	IsPullRequest bool
	TriggerText   string // raw body used for trigger matching
	PRBody        string // PR description, set for PR-context events
	Actor         string // login of the user who triggered the event
	CommentID     int64  // triggering comment, 0 when the event is not a comment
	IsReviewCmt   bool   // triggering comment is an inline review comment
}

type rawPayload struct {
	Action string `json:"action"`
	Issue  *struct {
		Number      int             `json:"number"`
		Title       string          `json:"title"`
		Body        string          `json:"body"`
		PullRequest json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	PullRequest *struct {
		Number int    `json:"number"`
		Body   string `json:"body"`
	} `json:"pull_request"`
	Comment *struct {
		ID   int64  `json:"id"`
		Body string `json:"body"`
	} `json:"comment"`
	Review *struct {
		Body string `json:"body"`
	} `json:"review"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// Load reads the runner's event payload file and normalizes it.
func Load(eventName, path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	return Normalize(eventName, data)
}

// Normalize converts a raw payload for the named workflow event.
func Normalize(eventName string, data []byte) (*Event, error) {
	var p rawPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}

	ev := &Event{Actor: p.Sender.Login}

	switch eventName {
	case "issue_comment":
		if p.Issue == nil || p.Comment == nil {
			return nil, fmt.Errorf("issue_comment payload missing issue or comment")
		}
		ev.Kind = KindIssueComment
		ev.ThreadNumber = p.Issue.Number
		ev.TriggerText = p.Comment.Body
		ev.CommentID = p.Comment.ID
		ev.IsPullRequest = len(p.Issue.PullRequest) > 0
		if ev.IsPullRequest {
			ev.PRBody = p.Issue.Body
		}

	case "pull_request_review":
		if p.PullRequest == nil || p.Review == nil {
			return nil, fmt.Errorf("pull_request_review payload missing pull_request or review")
		}
		ev.Kind = KindReview
		ev.ThreadNumber = p.PullRequest.Number
		ev.TriggerText = p.Review.Body
		ev.IsPullRequest = true
		ev.PRBody = p.PullRequest.Body

	case "pull_request_review_comment":
		if p.PullRequest == nil || p.Comment == nil {
			return nil, fmt.Errorf("pull_request_review_comment payload missing pull_request or comment")
		}
		ev.Kind = KindReviewComment
		ev.ThreadNumber = p.PullRequest.Number
		ev.TriggerText = p.Comment.Body
		ev.CommentID = p.Comment.ID
		ev.IsReviewCmt = true
		ev.IsPullRequest = true
		ev.PRBody = p.PullRequest.Body

	case "issues":
		if p.Issue == nil {
			return nil, fmt.Errorf("issues payload missing issue")
		}
		switch p.Action {
		case "assigned":
			ev.Kind = KindIssueAssigned
		case "labeled":
			ev.Kind = KindIssueLabeled
		default:
			ev.Kind = KindIssueOpened
		}
		ev.ThreadNumber = p.Issue.Number
		ev.TriggerText = p.Issue.Title + "\n\n" + p.Issue.Body

	case "pull_request":
		if p.PullRequest == nil {
			return nil, fmt.Errorf("pull_request payload missing pull_request")
		}
		ev.Kind = KindPullRequest
		ev.ThreadNumber = p.PullRequest.Number
		ev.TriggerText = p.PullRequest.Body
		ev.IsPullRequest = true
		ev.PRBody = p.PullRequest.Body

	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventName)
	}

	return ev, nil
}
