// Package normalizer canonicalizes raw address text before matching.
package normalizer

import (
	"strings"
)

// punctuation removed from queries; everything else is kept verbatim
var punctuationReplacer = strings.NewReplacer(",", " ", ".", " ")

// Normalize lowercases the input, strips commas and periods and collapses
// whitespace runs, Unicode spaces such as NBSP included. Blank input yields "".
// The result is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(input string) (normalized string) {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			normalized = strings.ToLower(strings.TrimSpace(input))
		}
	}()

	s := strings.ToLower(input)
	s = punctuationReplacer.Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits a normalized query into its words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
