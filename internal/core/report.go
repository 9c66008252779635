package core

import (
	"time"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/ssic"
)

// StageTiming is the wall-clock time one stage took.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"durationMs"`
}

// SessionReport is everything a completed session produced.
type SessionReport struct {
	ID        string    `json:"id"`
	UserText  string    `json:"userText"`
	Timestamp time.Time `json:"timestamp"`

	Insight   domain.InsightOutput   `json:"insight"`
	Story     domain.StoryOutput     `json:"story"`
	Prototype domain.PrototypeOutput `json:"prototype"`
	Symbol    domain.MappedSymbol    `json:"symbol"`

	// TotalDuration is the sum of Stages, in milliseconds.
	TotalDuration int64                   `json:"totalDuration"`
	Consistency   domain.ConsistencyCheck `json:"consistency"`
	Preprocessing domain.Preprocessing    `json:"preprocessing"`

	// SSIC is only attached in debug mode.
	SSIC *ssic.Summary `json:"ssic,omitempty"`

	Stages   []StageTiming  `json:"stages"`
	Degraded []domain.Agent `json:"degraded,omitempty"`
	Refined  bool           `json:"refined"`
}

// Duration returns TotalDuration as a time.Duration.
func (r *SessionReport) Duration() time.Duration {
	return time.Duration(r.TotalDuration) * time.Millisecond
}
