package consistency

import (
	"fmt"
	"strings"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

// A physics term group is expected in the outputs when its dimension
// crosses the threshold.
type termGroup struct {
	active func(ssic.State) bool
	terms  []string
}

var physicsGroups = []termGroup{
	{func(s ssic.State) bool { return s.Inertia > 60 }, []string{"stuck", "heavy", "frozen", "anchor", "boulder", "trapped"}},
	{func(s ssic.State) bool { return s.Velocity > 60 }, []string{"momentum", "moving", "accelerat", "wave"}},
	{func(s ssic.State) bool { return s.Charge > 70 }, []string{"spark", "electric", "energy", "charged"}},
	{func(s ssic.State) bool { return s.Turbulence > 60 }, []string{"storm", "chaos", "whirlwind"}},
	{func(s ssic.State) bool { return s.Viscosity > 70 }, []string{"slow", "thick", "methodical", "patient"}},
	{func(s ssic.State) bool { return s.FlowPotential > 60 }, []string{"flow", "stream", "current"}},
}

// Expected when no dimension stands out.
var starterTerms = []string{"first step", "begin", "start", "initiate"}

var resistanceTerms = map[string][]string{
	"fear-based resistance":          {"fear", "afraid", "courage", "brave", "safe"},
	"perfectionism barrier":          {"perfect", "imperfect", "rough", "draft", "messy"},
	"scarcity mindset":               {"enough", "abundance", "small", "scarc"},
	"structural blockage":            {"stuck", "unblock", "structure", "break"},
	"external validation dependency": {"judg", "approval", "others", "feedback", "audience"},
	ssic.DefaultResistance:           {"resist", "block", "friction"},
}

var breakthroughTerms = map[string][]string{
	"creative manifestation":  {"create", "build", "make", "birth", "manifest"},
	"authentic expression":    {"express", "voice", "authentic", "true"},
	"effortless flow state":   {"flow", "ease", "effortless"},
	"meaningful contribution": {"impact", "meaning", "purpose", "contribut"},
	"creative liberation":     {"free", "liberat", "release", "unchain"},
	ssic.DefaultBreakthrough:  {"forward", "move", "momentum", "step"},
}

// ExpectedPhysicsTerms lists the vocabulary the physics state implies, in
// group order without duplicates.
func ExpectedPhysicsTerms(s ssic.State) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, g := range physicsGroups {
		if !g.active(s) {
			continue
		}
		for _, term := range g.terms {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	if len(terms) == 0 {
		return append([]string(nil), starterTerms...)
	}
	return terms
}

func countPresent(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}

func storyText(story domain.StoryOutput) string {
	return strings.ToLower(strings.Join([]string{
		story.HeroDescription,
		story.VillainDescription,
		story.CurrentChapter,
		story.DesiredChapter,
		story.StoryParagraph,
	}, " "))
}

func prototypeText(proto domain.PrototypeOutput) string {
	parts := []string{proto.Goal}
	for _, day := range proto.DayByDayPlan {
		parts = append(parts, day.Focus)
		parts = append(parts, day.Tasks...)
	}
	parts = append(parts, proto.Risks...)
	return strings.ToLower(strings.Join(parts, " "))
}

func symbolText(symbol domain.MappedSymbol) string {
	parts := []string{symbol.PrimarySymbol}
	parts = append(parts, symbol.SecondarySymbols...)
	parts = append(parts, symbol.ConceptualMotifs...)
	parts = append(parts, symbol.UIMotifs...)
	return strings.ToLower(strings.Join(parts, " "))
}

func (s *Scorer) physicsVocabulary(t *tally, state ssic.State, story domain.StoryOutput, proto domain.PrototypeOutput, symbol domain.MappedSymbol) {
	w := s.weights.Physics
	text := storyText(story) + " " + prototypeText(proto) + " " + symbolText(symbol)

	switch n := countPresent(text, ExpectedPhysicsTerms(state)); {
	case n >= 2:
		t.add(w, w, fmt.Sprintf("✓ Physics vocabulary echoed across story, prototype and symbols (%d terms)", n))
	case n == 1:
		t.add(partial(w, 1, 2), w, "~ Physics vocabulary only faintly echoed across outputs")
	default:
		t.add(0, w, "✗ Outputs do not echo the session's physics vocabulary")
	}
}

// zoneMatch reports whether text carries the vocabulary of the primary zone
// (full) or of any later zone (partial).
func zoneMatch(text string, zones []string, vocab map[string][]string) (primary, secondary bool) {
	for i, zone := range zones {
		if countPresent(text, vocab[zone]) == 0 {
			continue
		}
		if i == 0 {
			return true, false
		}
		secondary = true
	}
	return false, secondary
}

func (s *Scorer) resistanceAddressed(t *tally, state ssic.State, proto domain.PrototypeOutput) {
	w := s.weights.Resistance
	primary, secondary := zoneMatch(prototypeText(proto), state.ResistanceZones, resistanceTerms)

	switch {
	case primary:
		t.add(w, w, fmt.Sprintf("✓ Prototype addresses the primary resistance zone %q", state.PrimaryResistance()))
	case secondary:
		t.add(partial(w, 1, 2), w, "~ Prototype addresses a secondary resistance zone")
	default:
		t.add(0, w, "✗ Prototype does not address the session's resistance zones")
	}
}

func (s *Scorer) breakthroughInStory(t *tally, state ssic.State, story domain.StoryOutput) {
	w := s.weights.Breakthrough
	primary, secondary := zoneMatch(storyText(story), state.BreakthroughPoints, breakthroughTerms)

	switch {
	case primary:
		t.add(w, w, fmt.Sprintf("✓ Story moves toward the primary breakthrough %q", state.PrimaryBreakthrough()))
	case secondary:
		t.add(partial(w, 1, 2), w, "~ Story touches a secondary breakthrough point")
	default:
		t.add(0, w, "✗ Story does not point toward a breakthrough")
	}
}
