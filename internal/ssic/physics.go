package ssic

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vampirenirmal/ritual/internal/domain"
)

var (
	actionWords    = []string{"moving", "pushing", "pulling", "driving", "flowing", "building", "creating"}
	blockingWords  = []string{"stuck", "trapped", "unable", "can't", "fear", "paralyzed", "frozen"}
	externalWords  = []string{"system", "society", "others", "world", "environment", "market"}
	turbulentWords = []string{"torn", "conflict", "chaos", "confused", "split", "tension", "struggle"}

	structuredArchetypes = []string{"builder", "architect", "engineer", "sage", "ruler"}
	fluidArchetypes      = []string{"rebel", "magician", "jester", "creator", "explorer"}
)

// trigger maps any of a set of substrings to a zone label.
type trigger struct {
	words []string
	label string
}

var (
	resistanceTriggers = []trigger{
		{[]string{"fear"}, "fear-based resistance"},
		{[]string{"perfection"}, "perfectionism barrier"},
		{[]string{"not enough", "inadequate"}, "scarcity mindset"},
		{[]string{"stuck", "trapped"}, "structural blockage"},
		{[]string{"others", "judgment"}, "external validation dependency"},
	}
	leakTriggers = []trigger{
		{[]string{"distract"}, "attention scatter"},
		{[]string{"overthink"}, "analysis paralysis"},
		{[]string{"doubt"}, "self-doubt spiral"},
		{[]string{"compare", "comparison"}, "comparison drain"},
	}
	breakthroughTriggers = []trigger{
		{[]string{"create", "build"}, "creative manifestation"},
		{[]string{"express"}, "authentic expression"},
		{[]string{"flow", "ease"}, "effortless flow state"},
		{[]string{"impact", "meaning"}, "meaningful contribution"},
		{[]string{"freedom", "liberate"}, "creative liberation"},
	}
)

// ExtractPhysics computes the physics state of an insight. It is a pure
// function: equal inputs always give equal states.
func ExtractPhysics(insight domain.InsightOutput, keywords []string) State {
	wound := insight.CoreWound
	desire := insight.CoreDesire
	summary := insight.EmotionalSummary
	kw := float64(len(keywords))

	woundLen := length(wound)
	desireLen := length(desire)

	return State{
		Wound:     wound,
		Desire:    desire,
		Archetype: insight.ArchetypeGuess,
		Keywords:  append([]string(nil), keywords...),

		Charge:        clamp(0.7*math.Min(100, desireLen/2) + math.Min(30, 4*kw)),
		Pressure:      pressure(woundLen/2, desireLen/2),
		FlowPotential: clamp(0.75*math.Min(100, desireLen/1.5) + math.Min(30, 4*kw)),

		Velocity: clamp(math.Min(60, 7.5*kw) + 10*float64(countPresent(summary, actionWords))),
		Inertia:  clamp(math.Min(60, woundLen/3) + 10*float64(countPresent(wound, blockingWords))),
		Drag:     clamp(math.Min(50, woundLen/4) + 8*float64(countPresentEither(wound, summary, externalWords))),

		Viscosity:  viscosity(woundLen, insight.ArchetypeGuess),
		Turbulence: clamp(15*float64(countPresent(summary, turbulentWords)) + math.Min(25, 3*kw)),

		ResistanceZones:    matchZones(wound, resistanceTriggers, DefaultResistance),
		LeakPoints:         matchZones(wound, leakTriggers, DefaultLeak),
		BreakthroughPoints: matchZones(desire, breakthroughTriggers, DefaultBreakthrough),
	}
}

func pressure(wound, desire float64) float64 {
	return clamp((wound+desire)/2 + 0.3*math.Abs(wound-desire))
}

func viscosity(woundLen float64, archetype string) float64 {
	base := 50.0
	if countPresent(archetype, structuredArchetypes) > 0 {
		base += 20
	}
	if countPresent(archetype, fluidArchetypes) > 0 {
		base -= 20
	}
	return clamp(base + 0.5*math.Min(30, woundLen/5))
}

func length(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// countPresent counts how many of words occur in text, each at most once.
func countPresent(text string, words []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

func countPresentEither(a, b string, words []string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	n := 0
	for _, w := range words {
		if strings.Contains(la, w) || strings.Contains(lb, w) {
			n++
		}
	}
	return n
}

func matchZones(text string, triggers []trigger, fallback string) []string {
	lower := strings.ToLower(text)
	var zones []string
	for _, t := range triggers {
		for _, w := range t.words {
			if strings.Contains(lower, w) {
				zones = append(zones, t.label)
				break
			}
		}
	}
	if len(zones) == 0 {
		zones = []string{fallback}
	}
	return zones
}
