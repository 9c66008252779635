package consistency

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

type session struct {
	insight domain.InsightOutput
	story   domain.StoryOutput
	proto   domain.PrototypeOutput
	symbol  domain.MappedSymbol
}

// coherentSession earns full points on every base rule.
func coherentSession() session {
	proto := domain.PrototypeOutput{
		Goal:                "Paint and share a small zine",
		Constraints:         []string{"One hour a day"},
		PotentialAIFeatures: []string{"Layout helper"},
		Risks:               []string{"Losing nerve on day four"},
	}
	days := [5][]string{
		{"Name the judgment you fear", "Gather brushes", "Pick a page size"},
		{"Sketch pages loosely", "Keep every draft", "Rest"},
		{"Practice sharing openly", "Show one friend", "Note reactions"},
		{"Print a rough copy", "Fold it by hand", "Leave one copy in a cafe"},
		{"Finish the zine", "Give it away", "Write what comes next"},
	}
	for i, tasks := range days {
		proto.DayByDayPlan = append(proto.DayByDayPlan, domain.DayPlan{Day: i + 1, Focus: "focus", Tasks: tasks})
	}

	return session{
		insight: domain.InsightOutput{
			EmotionalSummary: "Quietly restless.",
			CoreWound:        "Fear of judgment",
			CoreDesire:       "To paint freely",
			ArchetypeGuess:   "The Creator",
		},
		story: domain.StoryOutput{
			HeroDescription:    "A painter at the edge of showing work",
			VillainDescription: "The judgment of strangers",
			CurrentChapter:     "Hiding drafts",
			DesiredChapter:     "Sharing openly",
			StoryParagraph:     "The Creator learns to let the work be seen.",
		},
		proto: proto,
		symbol: domain.MappedSymbol{
			PrimarySymbol:    "A paper crane carrying judgment away",
			SecondarySymbols: []string{"A folded page"},
			ConceptualMotifs: []string{"Creases"},
			UIMotifs:         []string{"Paper textures"},
			ColorPaletteSuggestions: []domain.ColorEmotion{
				{Color: "#8B2500", Meaning: "fear judgment — shadow held close"},
				{Color: "#FFD700", Meaning: "paint freely — what calls forward"},
			},
		},
	}
}

func (s session) score(opts ...Option) domain.ConsistencyCheck {
	return NewScorer(opts...).Compute(s.insight, s.story, s.proto, s.symbol, nil)
}

func TestComputeCoherentSession(t *testing.T) {
	s := coherentSession()
	got := ComputeSessionConsistency(s.insight, s.story, s.proto, s.symbol, nil)

	want := domain.ConsistencyCheck{
		Score: 100,
		Notes: []string{
			`✓ Archetype "The Creator" appears in story narrative`,
			"✓ Prototype plan strongly references core emotional themes",
			"✓ Primary symbol directly connects to core wound or desire",
			"✓ Story villain directly relates to core wound",
			"✓ Prototype tasks are creative and non-corporate",
			"✓ Color palette includes emotional/symbolic meanings",
		},
		Rating: "Excellent",
		Color:  "green",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeSessionConsistency mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeRuleOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*session)
		score  int
		rule   int
		note   string
	}{
		{
			name: "archetype partial",
			mutate: func(s *session) {
				s.story.StoryParagraph = "A restless creator learns to let the work be seen."
			},
			score: 93, rule: 0, note: `~ Archetype "The Creator" partially reflected in story`,
		},
		{
			name: "archetype absent",
			mutate: func(s *session) {
				s.story.StoryParagraph = "She learns to let the work be seen."
			},
			score: 85, rule: 0, note: `✗ Archetype "The Creator" not clearly present in story`,
		},
		{
			name: "two themes",
			mutate: func(s *session) {
				s.proto.DayByDayPlan[2].Tasks[0] = "Practice in private"
			},
			score: 93, rule: 1, note: "~ Prototype plan partially connects to core themes",
		},
		{
			name: "one theme",
			mutate: func(s *session) {
				s.proto.DayByDayPlan[2].Tasks[0] = "Practice in private"
				s.proto.DayByDayPlan[0].Tasks[0] = "Name the worry"
			},
			score: 87, rule: 1, note: "~ Prototype plan weakly connects to core themes",
		},
		{
			name: "symbol through archetype",
			mutate: func(s *session) {
				s.symbol.PrimarySymbol = "A lantern held by the creator"
			},
			score: 92, rule: 2, note: "~ Primary symbol references archetype but not core wound/desire",
		},
		{
			name: "symbol unrelated",
			mutate: func(s *session) {
				s.symbol.PrimarySymbol = "A lantern"
			},
			score: 80, rule: 2, note: "✗ Primary symbol does not clearly connect to core emotional themes",
		},
		{
			name: "villain opposition only",
			mutate: func(s *session) {
				s.story.VillainDescription = "A looming shadow"
			},
			score: 93, rule: 3, note: "~ Story villain captures oppositional force thematically",
		},
		{
			name: "villain unrelated",
			mutate: func(s *session) {
				s.story.VillainDescription = "The landlord"
			},
			score: 85, rule: 3, note: "✗ Story villain may not clearly oppose the core wound",
		},
		{
			name: "corporate tasks",
			mutate: func(s *session) {
				s.proto.DayByDayPlan[4].Tasks[1] = "Update your LinkedIn profile"
			},
			score: 85, rule: 4, note: "✗ Prototype tasks contain corporate/conventional language",
		},
		{
			name: "palette without emotion",
			mutate: func(s *session) {
				s.symbol.ColorPaletteSuggestions = []domain.ColorEmotion{{Color: "#FFFFFF", Meaning: "plain white"}}
			},
			score: 93, rule: 5, note: "~ Color palette present but may lack explicit emotional connection",
		},
		{
			name: "palette missing",
			mutate: func(s *session) {
				s.symbol.ColorPaletteSuggestions = nil
			},
			score: 85, rule: 5, note: "✗ Color palette is missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := coherentSession()
			tt.mutate(&s)
			got := s.score()
			require.Len(t, got.Notes, 6)
			assert.Equal(t, tt.note, got.Notes[tt.rule])
			assert.Equal(t, tt.score, got.Score)
		})
	}
}

func TestComputeCustomWeights(t *testing.T) {
	s := coherentSession()
	s.story.StoryParagraph = "A restless creator learns to let the work be seen."

	w := DefaultWeights()
	w.Archetype = 30
	got := s.score(WithWeights(w))
	// 16 of 30 on the archetype rule, everything else full: 101/115.
	assert.Equal(t, 88, got.Score)
	assert.Equal(t, "Good", got.Rating)
}

func TestComputeEmptyOutputs(t *testing.T) {
	got := ComputeSessionConsistency(domain.InsightOutput{}, domain.StoryOutput{}, domain.PrototypeOutput{}, domain.MappedSymbol{}, nil)
	assert.Len(t, got.Notes, 6)
	// Only the jargon rule passes.
	assert.Equal(t, 15, got.Score)
	assert.Equal(t, "Poor", got.Rating)
	assert.Equal(t, "red", got.Color)
}

func physicsState() ssic.State {
	return ssic.State{
		Inertia:            70,
		ResistanceZones:    []string{"fear-based resistance", "external validation dependency"},
		LeakPoints:         []string{ssic.DefaultLeak},
		BreakthroughPoints: []string{"creative manifestation"},
	}
}

func TestComputeWithPhysics(t *testing.T) {
	s := coherentSession()
	s.story.CurrentChapter = "Stuck and heavy with hidden drafts"
	s.story.StoryParagraph = "The Creator learns to make work that can be seen."
	state := physicsState()

	got := NewScorer().Compute(s.insight, s.story, s.proto, s.symbol, &state)
	require.Len(t, got.Notes, 9)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, "✓ Physics vocabulary echoed across story, prototype and symbols (2 terms)", got.Notes[6])
	assert.Equal(t, `✓ Prototype addresses the primary resistance zone "fear-based resistance"`, got.Notes[7])
	assert.Equal(t, `✓ Story moves toward the primary breakthrough "creative manifestation"`, got.Notes[8])

	again := NewScorer().Compute(s.insight, s.story, s.proto, s.symbol, &state)
	assert.Equal(t, got, again)
}

func TestComputeWithPhysicsPartial(t *testing.T) {
	s := coherentSession()
	s.story.CurrentChapter = "Heavy with hidden drafts"
	s.story.StoryParagraph = "She learns to let the work be seen."
	s.proto.DayByDayPlan[0].Tasks[0] = "Ask others for feedback"
	state := physicsState()

	got := NewScorer().Compute(s.insight, s.story, s.proto, s.symbol, &state)
	require.Len(t, got.Notes, 9)
	assert.Equal(t, "~ Physics vocabulary only faintly echoed across outputs", got.Notes[6])
	assert.Equal(t, "~ Prototype addresses a secondary resistance zone", got.Notes[7])
	assert.Equal(t, "✗ Story does not point toward a breakthrough", got.Notes[8])
}

func TestExpectedPhysicsTerms(t *testing.T) {
	assert.Equal(t, []string{"first step", "begin", "start", "initiate"}, ExpectedPhysicsTerms(ssic.State{}))

	terms := ExpectedPhysicsTerms(ssic.State{Velocity: 80, FlowPotential: 90})
	assert.Equal(t, []string{"momentum", "moving", "accelerat", "wave", "flow", "stream", "current"}, terms)
}

func TestZoneMatch(t *testing.T) {
	zones := []string{"perfectionism barrier", "scarcity mindset"}
	tests := []struct {
		text               string
		primary, secondary bool
	}{
		{"a messy first draft", true, false},
		{"is it enough", false, true},
		{"nothing relevant", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, s := zoneMatch(tt.text, zones, resistanceTerms)
			assert.Equal(t, tt.primary, p)
			assert.Equal(t, tt.secondary, s)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	s := coherentSession()
	state := physicsState()
	for _, physics := range []*ssic.State{nil, &state} {
		got := NewScorer().Compute(s.insight, s.story, s.proto, s.symbol, physics)
		assert.GreaterOrEqual(t, got.Score, 0)
		assert.LessOrEqual(t, got.Score, 100)
		for _, note := range got.Notes {
			assert.True(t, strings.HasPrefix(note, "✓") || strings.HasPrefix(note, "~") || strings.HasPrefix(note, "✗"), note)
		}
	}
}

func TestRatingAndColor(t *testing.T) {
	tests := []struct {
		score  int
		rating string
		color  string
	}{
		{100, "Excellent", "green"},
		{90, "Excellent", "green"},
		{89, "Good", "blue"},
		{75, "Good", "blue"},
		{74, "Fair", "yellow"},
		{60, "Fair", "yellow"},
		{59, "Weak", "orange"},
		{40, "Weak", "orange"},
		{39, "Poor", "red"},
		{0, "Poor", "red"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rating, Rating(tt.score), "score %d", tt.score)
		assert.Equal(t, tt.color, Color(tt.score), "score %d", tt.score)
	}
}
