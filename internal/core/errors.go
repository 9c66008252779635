package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vampirenirmal/ritual/internal/llm"
)

var ErrInvalidInput = errors.New("invalid input")

// InputError rejects user text before any stage runs. Message is shown to
// the user verbatim.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// SessionError is returned when a stage fails. Elapsed covers every stage up
// to and including the failing one.
type SessionError struct {
	SessionID string
	Stage     State
	Elapsed   time.Duration
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s failed during %s after %s: %v", e.SessionID, e.Stage, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err rejected the user text.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRetryable reports whether running the same session again might succeed.
func IsRetryable(err error) bool {
	if err == nil || IsInputError(err) || errors.Is(err, context.Canceled) {
		return false
	}
	return llm.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
}

// IsTerminal reports whether err cannot be fixed by a retry.
func IsTerminal(err error) bool {
	return err != nil && !IsRetryable(err)
}
