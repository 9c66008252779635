// Package preprocess prepares raw user text for the agent pipeline: it pulls
// out quotable fragments and picks the pronoun prompts use for the user.
package preprocess

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// Result is the preprocessor output for one session.
type Result struct {
	ExtractedQuotes []string
	Pronoun         domain.Pronoun
	CleanedText     string
}

var (
	sentenceBreak = regexp.MustCompile(`[.!?\n]+`)
	trivialPhrase = regexp.MustCompile(`(?i)^(I want|I need|I am|but|and|or|the|a|an|yes|no|ok|okay)$`)
)

const minQuoteLength = 4

var (
	femaleIndicators = []string{
		"i am a woman",
		"i'm a woman",
		"as a woman",
		"female founder",
		"she/her",
		"i am female",
		"i identify as a woman",
	}
	maleIndicators = []string{
		"i am a man",
		"i'm a man",
		"as a man",
		"male founder",
		"he/him",
		"i am male",
		"i identify as a man",
	}
)

// Run trims the text and derives quotes and pronoun from it.
func Run(text string) Result {
	return Result{
		ExtractedQuotes: ExtractQuotes(text),
		Pronoun:         DetectPronoun(text),
		CleanedText:     strings.TrimSpace(text),
	}
}

// ExtractQuotes splits text into sentence fragments and returns the longest
// meaningful ones. Short inputs yield fewer quotes. Lengths are in runes.
func ExtractQuotes(text string) []string {
	var fragments []string
	for _, part := range sentenceBreak.Split(text, -1) {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) < minQuoteLength || trivialPhrase.MatchString(part) {
			continue
		}
		fragments = append(fragments, part)
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return utf8.RuneCountInString(fragments[i]) > utf8.RuneCountInString(fragments[j])
	})

	limit := quoteLimit(utf8.RuneCountInString(text))
	if len(fragments) > limit {
		fragments = fragments[:limit]
	}
	return fragments
}

func quoteLimit(textLen int) int {
	switch {
	case textLen < 100:
		return 2
	case textLen < 300:
		return 3
	default:
		return 5
	}
}

// DetectPronoun looks for explicit self-identification. Without one the
// answer is "they"; that is the intended default, not a miss.
func DetectPronoun(text string) domain.Pronoun {
	lower := strings.ToLower(text)
	for _, phrase := range femaleIndicators {
		if strings.Contains(lower, phrase) {
			return domain.PronounShe
		}
	}
	for _, phrase := range maleIndicators {
		if strings.Contains(lower, phrase) {
			return domain.PronounHe
		}
	}
	return domain.PronounThey
}
