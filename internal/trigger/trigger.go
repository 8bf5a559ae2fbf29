// Package trigger extracts CLI-style bracketed arguments and the user-facing
// prompt from the text that summoned the agent, e.g.
//
//	@letta-agent [--model gpt-4o --temperature 0.2] please fix the flaky test
package trigger

import (
	"fmt"
	"strings"
)

// Parsed is the result of parsing one triggering comment body.
type Parsed struct {
	Matched    bool // the trigger phrase occurred in the text
	CLIArgs    []string
	PromptText string
	Warnings   []string
	ParseError string
}

// Flags the action must keep control of. Users supplying these inside the
// bracket would break prompt delivery, the structured-output contract, or
// approval safety, so they are stripped and reported.
var blockedFlags = map[string]bool{
	"-p":              true,
	"--prompt":        true,
	"--prompt-stdin":  true,
	"--prompt-file":   true,
	"--output-format": true,
	"--yolo":          true,
	"--auto-approve":  true,
}

// Blocked flags that consume the following token as their value.
var valueConsuming = map[string]bool{
	"-p":              true,
	"--prompt":        true,
	"--prompt-file":   true,
	"--output-format": true,
}

// Parse locates the first case-insensitive occurrence of phrase in text and
// splits what follows into bracketed CLI arguments and prompt text. When the
// phrase is absent the whole text is the prompt.
func Parse(phrase, text string) Parsed {
	idx := indexFold(text, phrase)
	if idx < 0 {
		return Parsed{PromptText: strings.TrimSpace(text)}
	}

	after := text[idx+len(phrase):]
	trimmed := strings.TrimLeft(after, " \t")

	if !strings.HasPrefix(trimmed, "[") {
		return Parsed{Matched: true, PromptText: strings.TrimSpace(after)}
	}

	close := strings.Index(trimmed, "]")
	if close < 0 {
		return Parsed{
			Matched:    true,
			PromptText: strings.TrimSpace(after),
			ParseError: fmt.Sprintf("unclosed '[' after trigger phrase %q; treating the full text as prompt", phrase),
		}
	}

	inner := trimmed[1:close]
	prompt := strings.TrimSpace(trimmed[close+1:])

	tokens := lex(inner)
	args, warnings := FilterBlocked(tokens)

	return Parsed{
		Matched:    true,
		CLIArgs:    args,
		PromptText: prompt,
		Warnings:   warnings,
	}
}

// SplitArgs tokenizes a raw argument string with the same shell-like lexer
// used for bracket interiors. Used for argument strings arriving through
// workflow inputs rather than comment text.
func SplitArgs(s string) []string {
	return lex(s)
}

// FilterBlocked removes blocked flags (and their value token, when the flag
// takes one) from the token list, recording each removal. The run
// configuration builder applies it again to everything user-supplied, so a
// controlled flag can never reach the agent CLI through any path.
func FilterBlocked(tokens []string) (args, warnings []string) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		name := tok
		if eq := strings.Index(tok, "="); eq > 0 && strings.HasPrefix(tok, "-") {
			name = tok[:eq]
		}
		if blockedFlags[name] {
			warnings = append(warnings, fmt.Sprintf("ignored controlled flag %s", name))
			if valueConsuming[name] && name == tok && i+1 < len(tokens) {
				i++ // swallow the value token too
			}
			continue
		}
		args = append(args, tok)
	}
	return args, warnings
}

// lex tokenizes the bracket interior: whitespace-separated tokens, single or
// double quotes group a token and are stripped. No escape handling beyond
// quote delimiting.
func lex(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
