// Package outputs writes the values the surrounding workflow consumes into
// the GITHUB_OUTPUT key=value file.
package outputs

import (
	"fmt"
	"os"
	"strings"
)

// Outputs is everything the action exports for later workflow steps.
type Outputs struct {
	AgentID        string
	ConversationID string
	Model          string
	Conclusion     string // "success" or "failure"
	TranscriptPath string // set on success only
}

// Write appends the outputs to the file at path. Identity fields are written
// even when the run failed: partial progress (an agent was created) must not
// become invisible to the user.
func Write(path string, o Outputs) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open outputs file: %w", err)
	}
	defer f.Close()

	pairs := []struct{ key, value string }{
		{"agent_id", o.AgentID},
		{"conversation_id", o.ConversationID},
		{"model", o.Model},
		{"conclusion", o.Conclusion},
		{"transcript_path", o.TranscriptPath},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		if strings.ContainsAny(p.value, "\n\r") {
			return fmt.Errorf("output %s contains newlines", p.key)
		}
		if _, err := fmt.Fprintf(f, "%s=%s\n", p.key, p.value); err != nil {
			return fmt.Errorf("failed to write output %s: %w", p.key, err)
		}
	}
	return nil
}
