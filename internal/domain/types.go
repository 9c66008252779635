package domain

// InsightOutput is the emotional and archetypal reading of the user's
// challenge. Every later stage consumes it.
type InsightOutput struct {
	EmotionalSummary string `json:"emotional_summary" validate:"required"`
	CoreWound        string `json:"core_wound" validate:"required"`
	CoreDesire       string `json:"core_desire" validate:"required"`
	ArchetypeGuess   string `json:"archetype_guess" validate:"required"`

	// SupportingQuotes is always drawn from the preprocessed quote list.
	SupportingQuotes []string `json:"supporting_quotes"`
}

func (o InsightOutput) Validate() error {
	return validate.Struct(o)
}

// StoryOutput frames the user as the hero of a transformation arc.
type StoryOutput struct {
	HeroDescription    string `json:"hero_description" validate:"required"`
	VillainDescription string `json:"villain_description" validate:"required"`
	CurrentChapter     string `json:"current_chapter" validate:"required"`
	DesiredChapter     string `json:"desired_chapter" validate:"required"`
	StoryParagraph     string `json:"story_paragraph" validate:"required"`
}

func (o StoryOutput) Validate() error {
	return validate.Struct(o)
}

// DayPlan is one day of the five-day sprint.
type DayPlan struct {
	Day   int      `json:"day" validate:"min=1,max=5"`
	Focus string   `json:"focus" validate:"required"`
	Tasks []string `json:"tasks" validate:"min=3,max=4,dive,required"`
}

// PrototypeOutput is the five-day execution plan. The plan always holds
// exactly five days numbered 1..5 in order with three or four tasks each.
type PrototypeOutput struct {
	Goal                string    `json:"goal" validate:"required"`
	Constraints         []string  `json:"constraints" validate:"min=1,dive,required"`
	DayByDayPlan        []DayPlan `json:"day_by_day_plan" validate:"len=5,dive"`
	PotentialAIFeatures []string  `json:"potential_ai_features" validate:"min=1,dive,required"`
	Risks               []string  `json:"risks" validate:"min=1,dive,required"`
}

func (o PrototypeOutput) Validate() error {
	return validate.Struct(o)
}

// Tasks returns every task of the plan in day order.
func (o PrototypeOutput) Tasks() []string {
	var tasks []string
	for _, day := range o.DayByDayPlan {
		tasks = append(tasks, day.Tasks...)
	}
	return tasks
}

// SameShape reports whether other keeps the plan structure of o: the same
// days in the same order, the same task count per day and the same list
// lengths. Only prose may differ.
func (o PrototypeOutput) SameShape(other PrototypeOutput) bool {
	if len(o.DayByDayPlan) != len(other.DayByDayPlan) ||
		len(o.Constraints) != len(other.Constraints) ||
		len(o.PotentialAIFeatures) != len(other.PotentialAIFeatures) ||
		len(o.Risks) != len(other.Risks) {
		return false
	}
	for i, day := range o.DayByDayPlan {
		if other.DayByDayPlan[i].Day != day.Day || len(other.DayByDayPlan[i].Tasks) != len(day.Tasks) {
			return false
		}
	}
	return true
}

// SymbolOutput is the Symbol agent's reply as generated. Palette entries are
// free text that should each carry a #RRGGBB code.
type SymbolOutput struct {
	PrimarySymbol           string   `json:"primary_symbol" validate:"required"`
	SecondarySymbols        []string `json:"secondary_symbols" validate:"min=1,dive,required"`
	ConceptualMotifs        []string `json:"conceptual_motifs" validate:"min=1,dive,required"`
	UIMotifs                []string `json:"ui_motifs" validate:"min=1,dive,required"`
	ColorPaletteSuggestions []string `json:"color_palette_suggestions" validate:"required"`
}

func (o SymbolOutput) Validate() error {
	return validate.Struct(o)
}

// ColorEmotion pairs a hex color with the emotional meaning assigned to it.
type ColorEmotion struct {
	Color   string `json:"color"`
	Meaning string `json:"meaning"`
}

// MappedSymbol is a SymbolOutput whose palette has been through the
// color-emotion mapper.
type MappedSymbol struct {
	PrimarySymbol           string         `json:"primary_symbol"`
	SecondarySymbols        []string       `json:"secondary_symbols"`
	ConceptualMotifs        []string       `json:"conceptual_motifs"`
	UIMotifs                []string       `json:"ui_motifs"`
	ColorPaletteSuggestions []ColorEmotion `json:"color_palette_suggestions"`
}

// WithPalette replaces the raw palette with mapped colors.
func (o SymbolOutput) WithPalette(palette []ColorEmotion) MappedSymbol {
	return MappedSymbol{
		PrimarySymbol:           o.PrimarySymbol,
		SecondarySymbols:        o.SecondarySymbols,
		ConceptualMotifs:        o.ConceptualMotifs,
		UIMotifs:                o.UIMotifs,
		ColorPaletteSuggestions: palette,
	}
}

// ConsistencyCheck is the rule-based coherence grade of a session.
type ConsistencyCheck struct {
	Score  int      `json:"score"`
	Notes  []string `json:"notes"`
	Rating string   `json:"rating"`
	Color  string   `json:"color"`
}

// Preprocessing records what the preprocessor and vocabulary extractor
// derived from the raw text.
type Preprocessing struct {
	ExtractedQuotes []string `json:"extractedQuotes"`
	Pronoun         Pronoun  `json:"pronoun"`
	Keywords        []string `json:"keywords"`
}
