// Package llm talks to text-generation models and enforces the JSON reply
// contract the agents depend on.
package llm

import "context"

// Options are the per-call generation settings.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// TextGenerator returns the raw text reply for a system prompt and user
// message. Parsing the reply is the caller's job.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator.
type GeneratorFunc func(ctx context.Context, system, user string, opts Options) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	return f(ctx, system, user, opts)
}
