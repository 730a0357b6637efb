package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxKeywords caps the size of an extraction result.
	MaxKeywords = 20

	minTokenLength = 3
)

// ExtractKeywords returns the most frequent non-stopword tokens of a job
// description, most frequent first. Tokens with equal counts keep the order in
// which they first appeared.
func ExtractKeywords(jobDescription string) []string {
	counts := make(map[string]int)
	keywords := []string{}

	for _, token := range tokenize(jobDescription) {
		if counts[token] == 0 {
			keywords = append(keywords, token)
		}
		counts[token]++
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return counts[keywords[i]] > counts[keywords[j]]
	})

	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}

// tokenize lowercases text, blanks out punctuation and returns the tokens that
// survive the length and stopword filters, in source order.
func tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	var tokens []string
	for _, field := range strings.Fields(normalized) {
		if utf8.RuneCountInString(field) < minTokenLength || IsStopword(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// Normalize lowercases, trims and de-duplicates a caller supplied keyword list.
// Order of first appearance is kept and blank entries are dropped.
func Normalize(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
