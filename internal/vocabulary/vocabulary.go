// Package vocabulary derives the shared keyword set that keeps the story,
// prototype and symbol agents speaking the same language as the insight.
package vocabulary

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// MaxKeywords caps the keyword set. Keyword count feeds several physics
// dimensions, so changing it changes SSIC magnitudes.
const MaxKeywords = 8

const minTokenLength = 3

var (
	nonWord = regexp.MustCompile(`[^\w\s-]`)
	numeric = regexp.MustCompile(`^\d+$`)
)

var stopwords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"from", "as", "is", "was", "are", "were", "been", "be", "have", "has", "had", "do", "does",
	"did", "will", "would", "could", "should", "may", "might", "must", "can", "this", "that",
	"these", "those", "i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us",
	"them", "my", "your", "his", "its", "our", "their",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize lowercases text, strips punctuation other than hyphens and
// returns the tokens that survive the length, stopword and numeric filters.
func Tokenize(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")

	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) < minTokenLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if numeric.MatchString(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// ExtractKeywords builds the keyword set from an insight: every archetype
// token, the first three wound and desire tokens and the first two summary
// tokens, deduplicated, longest first with alphabetical ties.
func ExtractKeywords(insight domain.InsightOutput) []string {
	var candidates []string
	candidates = append(candidates, Tokenize(insight.ArchetypeGuess)...)
	candidates = append(candidates, head(Tokenize(insight.CoreWound), 3)...)
	candidates = append(candidates, head(Tokenize(insight.CoreDesire), 3)...)
	candidates = append(candidates, head(Tokenize(insight.EmotionalSummary), 2)...)

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		keywords = append(keywords, c)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keywords[i]), utf8.RuneCountInString(keywords[j])
		if li != lj {
			return li > lj
		}
		return keywords[i] < keywords[j]
	})

	return head(keywords, MaxKeywords)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// FormatForPrompt renders keywords as a quoted, comma separated list.
func FormatForPrompt(keywords []string) string {
	if len(keywords) == 0 {
		return "No keywords extracted."
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = `"` + k + `"`
	}
	return strings.Join(quoted, ", ")
}
