package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinInputLength = 10
	DefaultMaxInputLength = 2000
)

// InputBounds are the accepted lengths of trimmed user text, in runes.
type InputBounds struct {
	Min int
	Max int
}

func DefaultInputBounds() InputBounds {
	return InputBounds{Min: DefaultMinInputLength, Max: DefaultMaxInputLength}
}

// ValidationResult is the outcome of checking user text. Error is empty when
// Valid is true.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Err converts an invalid result into an InputError.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &InputError{Message: r.Error}
}

// ValidateUserInput checks text against the default bounds.
func ValidateUserInput(text string) ValidationResult {
	return DefaultInputBounds().Validate(text)
}

func (b InputBounds) Validate(text string) ValidationResult {
	if text == "" {
		return ValidationResult{Error: "User text is required and must be a string"}
	}

	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return ValidationResult{Error: "User text cannot be empty"}
	case n < b.Min:
		return ValidationResult{Error: fmt.Sprintf("User text must be at least %d characters", b.Min)}
	case n > b.Max:
		return ValidationResult{Error: fmt.Sprintf("User text must be less than %d characters", b.Max)}
	}
	return ValidationResult{Valid: true}
}
