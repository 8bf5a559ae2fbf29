package resolver

import (
	"regexp"
	"strconv"
)

// Closing-keyword references get priority: "Fixes #42" signals a stronger
// relationship than a plain "#42" mention.
var (
	closingRefPattern = regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s*:?\s+#(\d+)`)
	plainRefPattern   = regexp.MustCompile(`#(\d+)`)
)

// ExtractLinkedIssues pulls issue numbers out of a PR body. Closing-keyword
// references come first in their order of appearance, then plain mentions in
// theirs; duplicates keep their earliest (highest-priority) occurrence.
func ExtractLinkedIssues(prBody string) []int {
	var out []int
	seen := map[int]bool{}

	for _, m := range closingRefPattern.FindAllStringSubmatch(prBody, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}

	for _, m := range plainRefPattern.FindAllStringSubmatch(prBody, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}

	return out
}
