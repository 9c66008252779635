package agent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vampirenirmal/ritual/internal/domain"
)

const (
	maxPaletteColors = 5
	defaultHex       = "#000000"

	// Sum of the three channels below which a color reads as dark.
	darkThreshold = 384
)

// NeutralPalette is the mapper's answer to an empty palette.
var NeutralPalette = domain.ColorEmotion{
	Color:   "#808080",
	Meaning: "Neutral gray — emotional palette unavailable",
}

var (
	hexPattern     = regexp.MustCompile(`#[0-9A-Fa-f]{6}`)
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)
)

type colorRole int

const (
	roleWound colorRole = iota
	roleDesire
	roleTransformation
	roleArchetype
	roleEnergy
)

// MapColors assigns an emotional meaning to up to five palette entries. The
// role of each color is fixed by its position: wound, desire,
// transformation, archetype, then themes from the emotional summary. Entries
// without a hex code map to #000000.
func MapColors(colors []string, insight domain.InsightOutput) []domain.ColorEmotion {
	if len(colors) == 0 {
		return []domain.ColorEmotion{NeutralPalette}
	}

	summaryWords := summaryThemes(insight.EmotionalSummary)

	n := min(len(colors), maxPaletteColors)
	mapped := make([]domain.ColorEmotion, 0, n)
	for i := 0; i < n; i++ {
		hex := hexPattern.FindString(colors[i])
		if hex == "" {
			hex = defaultHex
		}

		var theme string
		role := roleEnergy
		switch i {
		case 0:
			role, theme = roleWound, strings.ToLower(insight.CoreWound)
		case 1:
			role, theme = roleDesire, strings.ToLower(insight.CoreDesire)
		case 2:
			role, theme = roleTransformation, "transformation tension"
		case 3:
			role, theme = roleArchetype, strings.ToLower(insight.ArchetypeGuess)
		default:
			theme = "creative energy"
			if j := i - 4; j < len(summaryWords) {
				theme = summaryWords[j]
			}
		}

		mapped = append(mapped, domain.ColorEmotion{Color: hex, Meaning: colorMeaning(hex, theme, role)})
	}
	return mapped
}

// summaryThemes returns the first three words longer than four characters.
func summaryThemes(summary string) []string {
	var words []string
	for _, w := range strings.Split(strings.ToLower(summary), " ") {
		if utf8.RuneCountInString(w) > 4 {
			words = append(words, w)
			if len(words) == 3 {
				break
			}
		}
	}
	return words
}

func themePhrase(theme string) string {
	var words []string
	for _, w := range strings.Fields(nonWordPattern.ReplaceAllString(theme, "")) {
		if utf8.RuneCountInString(w) > 3 {
			words = append(words, w)
			if len(words) == 2 {
				break
			}
		}
	}
	return strings.Join(words, " ")
}

func isDark(hex string) bool {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return true
	}
	sum := (v >> 16) + (v >> 8 & 0xff) + (v & 0xff)
	return sum < darkThreshold
}

func colorMeaning(hex, theme string, role colorRole) string {
	phrase := themePhrase(theme)
	dark := isDark(hex)

	pick := func(darkText, lightText string) string {
		if dark {
			return darkText
		}
		return lightText
	}

	switch role {
	case roleWound:
		return pick(phrase+" — shadow held close", phrase+" — exposed and raw")
	case roleDesire:
		return pick(phrase+" — the pull beneath surface", phrase+" — what calls forward")
	case roleTransformation:
		return pick("the threshold between states", "emergence through tension")
	case roleArchetype:
		return pick(phrase+" — the deeper pattern", phrase+" — energy in motion")
	default:
		return pick("creative force in compression", "expressive potential unleashed")
	}
}

// FormatColorEmotions renders one "#RRGGBB — meaning" line per color.
func FormatColorEmotions(palette []domain.ColorEmotion) string {
	lines := make([]string, len(palette))
	for i, ce := range palette {
		lines[i] = ce.Color + " — " + ce.Meaning
	}
	return strings.Join(lines, "\n")
}
