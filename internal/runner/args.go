// Package runner builds the agent CLI invocation from the resolved identity
// and user arguments, then supervises the process and its event stream.
package runner

import (
	"strings"

	"github.com/letta-ai/letta-github-action/internal/resolver"
	"github.com/letta-ai/letta-github-action/internal/trigger"
)

// Agent CLI flag surface. Exact names live here and nowhere else.
const (
	flagAgent           = "--agent"
	flagAgentShort      = "-a"
	flagConversation    = "--conversation"
	flagNewConversation = "--new-conversation"
	flagModel           = "--model"
	flagAutoApprove     = "--yolo"
	flagPromptStdin     = "--prompt-stdin"
	flagOutputFormat    = "--output-format"
	outputFormatValue   = "json-lines"
)

// BuildArgs translates the resolved identity plus user-supplied arguments
// into the exact argv for the agent CLI. Precedence, highest first:
//
//  1. A user-supplied --agent/-a overrides any resolved identity, and forces
//     --new-conversation unless the user passed one themselves — a stored
//     conversation id is scoped to the agent it was created under.
//  2. Otherwise the resolved identity translates directly.
//  3. The model flag is independent of identity.
//  4. --yolo is always present: nobody is around to approve actions.
//  5. --prompt-stdin is enforced here even though the trigger layer already
//     blocks prompt flags.
//  6. The output-format pair goes last, after user arguments, so the
//     structured-output contract cannot be overridden.
func BuildArgs(resolved resolver.Resolved, model string, userArgs []string) []string {
	// The builder does not trust upstream filtering.
	userArgs, _ = trigger.FilterBlocked(userArgs)

	var args []string

	if userSelectsAgent(userArgs) {
		if !hasFlag(userArgs, flagNewConversation) {
			args = append(args, flagNewConversation)
		}
	} else {
		switch resolved.Decision {
		case resolver.ResumeConversation:
			args = append(args, flagConversation, resolved.ConversationID)
		case resolver.ResumeAgent:
			args = append(args, flagAgent, resolved.AgentID)
		case resolver.UseConfiguredAgent:
			args = append(args, flagAgent, resolved.AgentID, flagNewConversation)
		case resolver.CreateNew:
			// no identity flags
		}
	}

	if model != "" {
		args = append(args, flagModel, model)
	}

	args = append(args, flagAutoApprove)
	args = append(args, flagPromptStdin)
	args = append(args, userArgs...)
	args = append(args, flagOutputFormat, outputFormatValue)

	return args
}

// userSelectsAgent reports whether the user explicitly picked an agent, in
// long, short, or --flag=value form.
func userSelectsAgent(args []string) bool {
	return hasFlag(args, flagAgent) || hasFlag(args, flagAgentShort)
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}
