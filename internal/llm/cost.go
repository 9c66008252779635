package llm

// Per-million-token prices for the default Haiku model.
const (
	inputPricePerMTok  = 0.25
	outputPricePerMTok = 1.25
)

// Usage is the token accounting of one reply.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// EstimateCost returns the approximate USD cost of a call.
func EstimateCost(u Usage) float64 {
	return float64(u.InputTokens)/1e6*inputPricePerMTok +
		float64(u.OutputTokens)/1e6*outputPricePerMTok
}
