// Package consistency grades how well the four agent outputs of a session
// agree with each other. Scoring is rule-based and deterministic; every
// rule contributes exactly one note.
package consistency

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

// Weights are the point budgets of each rule. Partial awards scale with the
// budget, keeping the ratios of the defaults.
type Weights struct {
	Archetype    int `yaml:"archetype" validate:"min=0"`
	Themes       int `yaml:"themes" validate:"min=0"`
	Symbol       int `yaml:"symbol" validate:"min=0"`
	Villain      int `yaml:"villain" validate:"min=0"`
	Tone         int `yaml:"tone" validate:"min=0"`
	Palette      int `yaml:"palette" validate:"min=0"`
	Physics      int `yaml:"physics" validate:"min=0"`
	Resistance   int `yaml:"resistance" validate:"min=0"`
	Breakthrough int `yaml:"breakthrough" validate:"min=0"`
}

func DefaultWeights() Weights {
	return Weights{
		Archetype:    15,
		Themes:       20,
		Symbol:       20,
		Villain:      15,
		Tone:         15,
		Palette:      15,
		Physics:      10,
		Resistance:   10,
		Breakthrough: 10,
	}
}

var (
	oppositionWords = []string{"fear", "block", "resist", "doubt", "shadow", "system"}

	corporateJargon = []string{
		"linkedin",
		"networking",
		"stakeholder",
		"cv",
		"resume",
		"professional branding",
		"market research",
		"competitor analysis",
		"pitch deck",
	}

	emotionWords = []string{
		"wound", "desire", "tension", "fear", "freedom",
		"transformation", "pain", "joy", "anxiety", "peace",
	}
)

// Scorer computes consistency checks. The zero value is not usable; use
// NewScorer.
type Scorer struct {
	weights Weights
}

type Option func(*Scorer)

func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScorer = NewScorer()

// ComputeSessionConsistency scores a session with the default weights.
// physics may be nil, in which case only the six base rules run.
func ComputeSessionConsistency(insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput, symbol domain.MappedSymbol, physics *ssic.State) domain.ConsistencyCheck {
	return defaultScorer.Compute(insight, story, proto, symbol, physics)
}

type tally struct {
	earned, max int
	notes       []string
}

func (t *tally) add(earned, max int, note string) {
	t.earned += earned
	t.max += max
	t.notes = append(t.notes, note)
}

// partial scales a default-budget award to weight w.
func partial(w, award, budget int) int {
	return int(math.Round(float64(w) * float64(award) / float64(budget)))
}

// Compute runs the base rules and, when physics is non-nil, the three
// physics rules.
func (s *Scorer) Compute(insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput, symbol domain.MappedSymbol, physics *ssic.State) domain.ConsistencyCheck {
	t := &tally{}

	s.archetypeInStory(t, insight, story)
	s.themesInPrototype(t, insight, story, proto)
	s.symbolConnects(t, insight, symbol)
	s.villainOpposesWound(t, insight, story)
	s.nonCorporateTasks(t, proto)
	s.emotionalPalette(t, symbol)

	if physics != nil {
		s.physicsVocabulary(t, *physics, story, proto, symbol)
		s.resistanceAddressed(t, *physics, proto)
		s.breakthroughInStory(t, *physics, story)
	}

	score := 0
	if t.max > 0 {
		score = int(math.Round(100 * float64(t.earned) / float64(t.max)))
	}
	return domain.ConsistencyCheck{
		Score:  score,
		Notes:  t.notes,
		Rating: Rating(score),
		Color:  Color(score),
	}
}

func (s *Scorer) archetypeInStory(t *tally, insight domain.InsightOutput, story domain.StoryOutput) {
	w := s.weights.Archetype
	archetype := strings.ToLower(strings.TrimSpace(insight.ArchetypeGuess))
	text := strings.ToLower(story.HeroDescription + " " + story.StoryParagraph)

	switch {
	case archetype != "" && strings.Contains(text, archetype):
		t.add(w, w, fmt.Sprintf("✓ Archetype %q appears in story narrative", insight.ArchetypeGuess))
	case containsAny(text, significantWords(archetype, 3)):
		t.add(partial(w, 8, 15), w, fmt.Sprintf("~ Archetype %q partially reflected in story", insight.ArchetypeGuess))
	default:
		t.add(0, w, fmt.Sprintf("✗ Archetype %q not clearly present in story", insight.ArchetypeGuess))
	}
}

func (s *Scorer) themesInPrototype(t *tally, insight domain.InsightOutput, story domain.StoryOutput, proto domain.PrototypeOutput) {
	w := s.weights.Themes
	goal := strings.ToLower(proto.Goal)
	tasks := strings.ToLower(strings.Join(proto.Tasks(), " "))

	matches := 0
	for _, theme := range []string{insight.CoreDesire, insight.CoreWound, story.DesiredChapter} {
		words := significantWords(strings.ToLower(theme), 4)
		if containsAny(goal, words) || containsAny(tasks, words) {
			matches++
		}
	}

	switch matches {
	case 3:
		t.add(w, w, "✓ Prototype plan strongly references core emotional themes")
	case 2:
		t.add(partial(w, 13, 20), w, "~ Prototype plan partially connects to core themes")
	case 1:
		t.add(partial(w, 7, 20), w, "~ Prototype plan weakly connects to core themes")
	default:
		t.add(0, w, "✗ Prototype plan does not clearly reference core emotional themes")
	}
}

func (s *Scorer) symbolConnects(t *tally, insight domain.InsightOutput, symbol domain.MappedSymbol) {
	w := s.weights.Symbol
	primary := strings.ToLower(symbol.PrimarySymbol)
	archetype := strings.ToLower(strings.TrimSpace(insight.ArchetypeGuess))

	switch {
	case containsAny(primary, significantWords(strings.ToLower(insight.CoreWound), 4)),
		containsAny(primary, significantWords(strings.ToLower(insight.CoreDesire), 4)):
		t.add(w, w, "✓ Primary symbol directly connects to core wound or desire")
	case archetype != "" && strings.Contains(primary, archetype):
		t.add(partial(w, 12, 20), w, "~ Primary symbol references archetype but not core wound/desire")
	default:
		t.add(0, w, "✗ Primary symbol does not clearly connect to core emotional themes")
	}
}

func (s *Scorer) villainOpposesWound(t *tally, insight domain.InsightOutput, story domain.StoryOutput) {
	w := s.weights.Villain
	villain := strings.ToLower(story.VillainDescription)

	switch {
	case containsAny(villain, significantWords(strings.ToLower(insight.CoreWound), 4)):
		t.add(w, w, "✓ Story villain directly relates to core wound")
	case containsAny(villain, oppositionWords):
		t.add(partial(w, 8, 15), w, "~ Story villain captures oppositional force thematically")
	default:
		t.add(0, w, "✗ Story villain may not clearly oppose the core wound")
	}
}

func (s *Scorer) nonCorporateTasks(t *tally, proto domain.PrototypeOutput) {
	w := s.weights.Tone
	tasks := strings.ToLower(strings.Join(proto.Tasks(), " "))

	if containsAny(tasks, corporateJargon) {
		t.add(0, w, "✗ Prototype tasks contain corporate/conventional language")
		return
	}
	t.add(w, w, "✓ Prototype tasks are creative and non-corporate")
}

func (s *Scorer) emotionalPalette(t *tally, symbol domain.MappedSymbol) {
	w := s.weights.Palette
	if len(symbol.ColorPaletteSuggestions) == 0 {
		t.add(0, w, "✗ Color palette is missing")
		return
	}

	parts := make([]string, 0, len(symbol.ColorPaletteSuggestions))
	for _, ce := range symbol.ColorPaletteSuggestions {
		parts = append(parts, ce.Color+" "+ce.Meaning)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	if containsAny(text, emotionWords) {
		t.add(w, w, "✓ Color palette includes emotional/symbolic meanings")
		return
	}
	t.add(partial(w, 8, 15), w, "~ Color palette present but may lack explicit emotional connection")
}

// significantWords splits on single spaces and keeps words longer than
// minLen runes.
func significantWords(text string, minLen int) []string {
	var words []string
	for _, word := range strings.Split(text, " ") {
		if utf8.RuneCountInString(word) > minLen {
			words = append(words, word)
		}
	}
	return words
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Rating names the band a score falls in.
func Rating(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 40:
		return "Weak"
	default:
		return "Poor"
	}
}

// Color is the display color of a score band.
func Color(score int) string {
	switch {
	case score >= 90:
		return "green"
	case score >= 75:
		return "blue"
	case score >= 60:
		return "yellow"
	case score >= 40:
		return "orange"
	default:
		return "red"
	}
}
