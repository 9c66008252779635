package domain

// Agent identifies one generative stage of a session. The name doubles as
// the retrieval profile key and the SSIC primitive selector.
type Agent string

const (
	AgentInsight   Agent = "insight"
	AgentStory     Agent = "story"
	AgentPrototype Agent = "prototype"
	AgentSymbol    Agent = "symbol"
	AgentRefine    Agent = "refine"
)

func (a Agent) String() string {
	return string(a)
}

// Pronoun is the grammatical person used when prompts refer to the user.
type Pronoun string

const (
	PronounThey Pronoun = "they"
	PronounHe   Pronoun = "he"
	PronounShe  Pronoun = "she"
)

// Validatable is implemented by every agent output. Generated replies are
// rejected when Validate fails, the same way as malformed JSON.
type Validatable interface {
	Validate() error
}
