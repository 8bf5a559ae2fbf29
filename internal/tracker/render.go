package tracker

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/letta-ai/letta-github-action/internal/metadata"
)

const (
	pendingBody = "🤖 Letta agent is getting to work…"

	defaultSuccessBody = "The agent completed its run but did not leave a summary."
	defaultFailureBody = "The agent run failed before any output was produced."

	// footerRule separates agent-authored content from the injected footer.
	// Stripped wholesale before every rewrite so footers never stack.
	footerRule = "\n\n---\n🤖"
)

// prCreateLinkPattern matches a markdown link to a GitHub compare/quick-pull
// page inside agent-authored content. The URL part deliberately admits
// spaces: agents paste unencoded titles, and RepairURL fixes them up.
var prCreateLinkPattern = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)]*?/compare/[^)]*)\)`)

// Outcome carries everything the terminal rewrite needs.
type Outcome struct {
	Success     bool
	ErrorDetail string
	Elapsed     time.Duration // 0 means unknown
	TriggerUser string

	AgentID        string
	AgentName      string // friendly name, optional
	ConversationID string
	Model          string

	RunLogURL      string
	BranchName     string
	BranchURL      string // set only when the branch carries commits
	ResumptionTime time.Time
}

// renderPending produces the placeholder body, with an optional warning
// banner above it.
func renderPending(warnings []string) string {
	if len(warnings) == 0 {
		return pendingBody
	}
	var b strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&b, "> ⚠️ %s\n", w)
	}
	b.WriteString("\n")
	b.WriteString(pendingBody)
	return b.String()
}

// renderRunning produces the mid-run body shown once identity is known.
func renderRunning(agentID, agentName, runLogURL string) string {
	name := agentName
	if name == "" {
		name = agentID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Letta agent **%s** is working on this… [view run](%s)\n", name, runLogURL)
	// Provisional marker for human visibility; overwritten at terminal time.
	b.WriteString("\n")
	b.WriteString(metadata.Format(metadata.Record{AgentID: agentID}))
	return b.String()
}

// renderTerminal produces the final body from the comment's current content
// (which the agent may have edited during its run) and the run outcome.
func renderTerminal(currentBody string, o Outcome) string {
	content := stripInjected(currentBody)

	var b strings.Builder
	b.WriteString(headline(o))
	b.WriteString("\n\n")
	b.WriteString(linksLine(content, o))
	b.WriteString("\n\n")

	if content == "" {
		if o.Success {
			content = defaultSuccessBody
		} else {
			content = defaultFailureBody
		}
	}
	b.WriteString(content)

	if !o.Success && o.ErrorDetail != "" {
		b.WriteString("\n\n```\n")
		b.WriteString(strings.TrimRight(o.ErrorDetail, "\n"))
		b.WriteString("\n```")
	}

	body := b.String()
	if o.AgentID == "" {
		return body
	}

	body += footer(o)
	return metadata.Upsert(body, metadata.Record{
		AgentID:        o.AgentID,
		ConversationID: o.ConversationID,
		Model:          o.Model,
		CreatedAt:      o.ResumptionTime,
	})
}

// stripInjected removes everything this action wrote into the comment —
// placeholder, progress line, provisional footer, markers — leaving only
// agent-authored content.
func stripInjected(body string) string {
	body = metadata.Strip(body)
	if i := strings.Index(body, footerRule); i >= 0 {
		body = body[:i]
	}

	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == pendingBody {
			continue
		}
		if strings.HasPrefix(trimmed, "> ⚠️") {
			continue
		}
		if strings.HasPrefix(trimmed, "🤖 Letta agent") && strings.Contains(trimmed, "[view run](") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func headline(o Outcome) string {
	elapsed := ""
	if o.Elapsed > 0 {
		elapsed = fmt.Sprintf(" in %s", o.Elapsed.Round(time.Second))
	}
	if !o.Success {
		if elapsed == "" {
			return "### ❌ Letta agent run failed"
		}
		return fmt.Sprintf("### ❌ Letta agent run failed%s", elapsed)
	}
	user := o.TriggerUser
	if user != "" {
		user = "@" + user + " "
	}
	return fmt.Sprintf("### ✅ %sLetta agent finished%s", user, elapsed)
}

// linksLine always carries the run log; the branch link when the branch has
// commits; and a PR-creation link when the agent's own content included one
// (re-validated through RepairURL, dropped when unsalvageable).
func linksLine(agentContent string, o Outcome) string {
	links := []string{fmt.Sprintf("[Run log](%s)", o.RunLogURL)}

	if o.BranchURL != "" {
		links = append(links, fmt.Sprintf("[`%s`](%s)", o.BranchName, o.BranchURL))
	}

	if m := prCreateLinkPattern.FindStringSubmatch(agentContent); m != nil {
		if repaired := RepairURL(m[1]); repaired != "" {
			links = append(links, fmt.Sprintf("[Create a PR](%s)", repaired))
		}
	}

	return strings.Join(links, " • ")
}

// footer renders the human-readable identity block appended before the
// machine marker.
func footer(o Outcome) string {
	name := o.AgentName
	if name == "" {
		name = o.AgentID
	}

	var b strings.Builder
	b.WriteString(footerRule)
	fmt.Fprintf(&b, " Agent [%s](https://app.letta.com/agents/%s)", name, o.AgentID)
	if o.ConversationID != "" {
		fmt.Fprintf(&b, " · conversation `%s`", o.ConversationID)
	}
	if o.Model != "" {
		fmt.Fprintf(&b, " · model `%s`", o.Model)
	}
	fmt.Fprintf(&b, " · [run log](%s)\n", o.RunLogURL)

	resume := fmt.Sprintf("letta --agent %s", o.AgentID)
	if o.ConversationID != "" {
		resume += fmt.Sprintf(" --conversation %s", o.ConversationID)
	}
	fmt.Fprintf(&b, "\nResume locally: `%s`\n", resume)
	return b.String()
}
