package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeSpace trims the string and collapses inner whitespace runs
// to single spaces.
func NormalizeSpace(s string) string {
	s = strings.Trim(s, " \n\t")
	return whitespaceRegex.ReplaceAllString(s, " ")
}

func normalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.Trim(s, " \n\t")
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// ContainsAny reports whether the normalized form of s contains any of
// the given keywords. Keywords are expected to be lowercase.
func ContainsAny(s string, keywords []string) bool {
	s = normalizeKey(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// TitleFromSlug turns a hyphenated url slug like
// "407-n-madison-st-bloomington-il-61701" into "407 N Madison St
// Bloomington Il 61701".
func TitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
