package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinkedIssues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []int
	}{
		{"single closing", "Fixes #42", []int{42}},
		{"closing before mention", "Fixes #100. See also #200 for context.", []int{100, 200}},
		{"dedup", "Fixes #123, also fixes #123 again", []int{123}},
		{"no refs", "no issue references here", nil},
		{"closing keyword variants", "Closes #1, resolved #2, fix #3", []int{1, 2, 3}},
		{"mention priority kept for closing dup", "See #5. Fixes #5 and #6.", []int{5, 6}},
		{"colon form", "Fixes: #77", []int{77}},
		{"case insensitive", "FIXES #9", []int{9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractLinkedIssues(tc.body))
		})
	}
}
