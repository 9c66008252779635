package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// StrictJSONDirective is appended to the system prompt for the single repair
// attempt after a contract failure.
const StrictJSONDirective = "\n\n⚠️ CRITICAL: Your previous response could not be parsed as valid JSON.\n" +
	"You MUST respond with ONLY valid JSON. No text outside the JSON object.\n" +
	"No explanations. No commentary. No markdown. Just pure, valid JSON."

const excerptRunes = 200

// Status tells a caller whether a Result holds a generated or a fallback
// value.
type Status int

const (
	StatusOK Status = iota
	StatusDegraded
)

func (s Status) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "ok"
}

// Result is the outcome of GenerateWithFallback. A degraded result carries
// the fallback value and the contract error that caused it.
type Result[T any] struct {
	Value    T
	Status   Status
	Cause    error
	Attempts int
}

func (r Result[T]) Degraded() bool {
	return r.Status == StatusDegraded
}

// Decode parses a reply into T and runs its Validate method when it has one.
// Any failure is a *GenerationError.
func Decode[T any](reply string) (T, error) {
	var out T

	cleaned := CleanJSONReply(reply)
	if cleaned == "" {
		return out, &GenerationError{Kind: KindParse, Err: ErrEmptyReply}
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		kind := KindParse
		if errors.As(err, &typeErr) {
			kind = KindSchema
		}
		return out, &GenerationError{Kind: kind, Excerpt: truncate(cleaned, excerptRunes), Err: err}
	}
	if v, ok := any(out).(domain.Validatable); ok {
		if err := v.Validate(); err != nil {
			return out, &GenerationError{Kind: KindSchema, Excerpt: truncate(cleaned, excerptRunes), Err: err}
		}
	}
	return out, nil
}

// Generate makes one call and decodes the reply into T. Transport errors
// come back unchanged; contract failures as *GenerationError.
func Generate[T any](ctx context.Context, gen TextGenerator, system, user string, opts Options) (T, error) {
	reply, err := gen.Generate(ctx, system, user, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](reply)
}

// GenerateWithFallback calls Generate and, on a contract failure only, tries
// once more with StrictJSONDirective appended to the system prompt. A second
// contract failure yields fallback with StatusDegraded. Any other error is
// returned immediately.
func GenerateWithFallback[T any](ctx context.Context, gen TextGenerator, system, user string, fallback T, opts Options) (Result[T], error) {
	logger := slog.Default().With("component", "llm")

	value, err := Generate[T](ctx, gen, system, user, opts)
	if err == nil {
		return Result[T]{Value: value, Status: StatusOK, Attempts: 1}, nil
	}
	if !IsContractError(err) {
		return Result[T]{Attempts: 1}, err
	}

	logger.Warn("model reply broke JSON contract, retrying with strict directive",
		"model", opts.Model,
		"error", err)

	value, err = Generate[T](ctx, gen, system+StrictJSONDirective, user, opts)
	if err == nil {
		return Result[T]{Value: value, Status: StatusOK, Attempts: 2}, nil
	}
	if !IsContractError(err) {
		return Result[T]{Attempts: 2}, err
	}

	logger.Warn("model reply unusable after retry, using fallback",
		"model", opts.Model,
		"error", err)
	return Result[T]{Value: fallback, Status: StatusDegraded, Cause: err, Attempts: 2}, nil
}
