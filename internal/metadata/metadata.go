// Package metadata embeds resumption records in comment bodies as hidden
// HTML-comment markers, so a later invocation can find which agent and
// conversation a thread belongs to.
package metadata

import (
	"fmt"
	"strings"
	"time"
)

const (
	markerStart = "<!-- letta-metadata"
	markerEnd   = "-->"
)

// Record is the durable unit of cross-invocation state. AgentID is the only
// required field; a marker without it does not parse as a record.
type Record struct {
	AgentID        string
	ConversationID string
	Model          string
	CreatedAt      time.Time
}

// Format renders a record as a marker block. CreatedAt defaults to the
// current time when unset. Field order is fixed on write.
func Format(r Record) string {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString(markerStart)
	b.WriteString("\n")
	fmt.Fprintf(&b, "agent_id: %s\n", r.AgentID)
	if r.ConversationID != "" {
		fmt.Fprintf(&b, "conversation_id: %s\n", r.ConversationID)
	}
	if r.Model != "" {
		fmt.Fprintf(&b, "model: %s\n", r.Model)
	}
	fmt.Fprintf(&b, "created: %s\n", created.Format(time.RFC3339))
	b.WriteString(markerEnd)
	return b.String()
}

// Parse extracts a record from text. Returns nil when no marker exists, the
// marker is unterminated, or agent_id is missing. Key order inside the marker
// does not matter; unknown keys are ignored.
func Parse(text string) *Record {
	start := strings.Index(text, markerStart)
	if start < 0 {
		return nil
	}
	rest := text[start+len(markerStart):]
	end := strings.Index(rest, markerEnd)
	if end < 0 {
		return nil
	}

	var r Record
	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "agent_id":
			r.AgentID = value
		case "conversation_id":
			r.ConversationID = value
		case "model":
			r.Model = value
		case "created":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				r.CreatedAt = t
			}
		}
	}

	if r.AgentID == "" {
		return nil
	}
	return &r
}

// HasMarker reports whether text contains a complete marker block.
func HasMarker(text string) bool {
	start := strings.Index(text, markerStart)
	if start < 0 {
		return false
	}
	return strings.Contains(text[start+len(markerStart):], markerEnd)
}

// Upsert replaces an existing marker in body with the formatted record, or
// appends one after two newlines when absent. The result always contains
// exactly one marker: any extra marker blocks beyond the first are removed
// before the replacement so repeated updates cannot accumulate markers.
func Upsert(body string, r Record) string {
	body = dropExtraMarkers(body)

	formatted := Format(r)
	start := strings.Index(body, markerStart)
	if start < 0 {
		if body == "" {
			return formatted
		}
		return strings.TrimRight(body, "\n") + "\n\n" + formatted
	}

	rest := body[start+len(markerStart):]
	end := strings.Index(rest, markerEnd)
	if end < 0 {
		// Unterminated marker: cut from the start token to the end of body.
		return strings.TrimRight(body[:start], "\n") + "\n\n" + formatted
	}

	after := rest[end+len(markerEnd):]
	return body[:start] + formatted + after
}

// Strip removes every marker block from body.
func Strip(body string) string {
	for {
		start := strings.Index(body, markerStart)
		if start < 0 {
			return body
		}
		rest := body[start+len(markerStart):]
		end := strings.Index(rest, markerEnd)
		if end < 0 {
			return body[:start]
		}
		body = body[:start] + rest[end+len(markerEnd):]
	}
}

// dropExtraMarkers keeps the first marker block and removes any later ones.
func dropExtraMarkers(body string) string {
	first := strings.Index(body, markerStart)
	if first < 0 {
		return body
	}
	rest := body[first+len(markerStart):]
	end := strings.Index(rest, markerEnd)
	if end < 0 {
		return body
	}
	head := body[:first+len(markerStart)+end+len(markerEnd)]
	tail := Strip(body[len(head):])
	return head + tail
}
