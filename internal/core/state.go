package core

// State is the position of a session in the pipeline.
type State int

const (
	StatePreprocessing State = iota
	StateInsightRunning
	StateVocabExtraction
	StateSSICExtraction
	StateStoryRunning
	StatePrototypeRunning
	StateSymbolRunning
	StateColorMapping
	StatePrototypeRefining
	StateConsistencyScoring
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StatePreprocessing:      "preprocessing",
	StateInsightRunning:     "insight_running",
	StateVocabExtraction:    "vocab_extraction",
	StateSSICExtraction:     "ssic_extraction",
	StateStoryRunning:       "story_running",
	StatePrototypeRunning:   "prototype_running",
	StateSymbolRunning:      "symbol_running",
	StateColorMapping:       "color_mapping",
	StatePrototypeRefining:  "prototype_refining",
	StateConsistencyScoring: "consistency_scoring",
	StateComplete:           "complete",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Stages lists the working states in execution order.
func Stages() []State {
	stages := make([]State, 0, int(StateComplete))
	for s := StatePreprocessing; s < StateComplete; s++ {
		stages = append(stages, s)
	}
	return stages
}
