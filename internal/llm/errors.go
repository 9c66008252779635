package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoAPIKey    = errors.New("API key not configured")
	ErrRateLimited = errors.New("rate limited")
	ErrAuth        = errors.New("authentication failed")
	ErrEmptyReply  = errors.New("empty reply")
)

// TransportKind classifies why a generator call never produced a reply.
type TransportKind int

const (
	KindNetwork TransportKind = iota
	KindAuth
	KindRateLimit
	KindServer
	KindRequest
	KindCanceled
)

func (k TransportKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindServer:
		return "server"
	case KindRequest:
		return "request"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TransportError is a non-recoverable generator failure: the model could
// not be reached or refused the request. It aborts the session.
type TransportError struct {
	Kind       TransportKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed if sent again.
func (e *TransportError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// statusKind maps an HTTP status to a transport kind.
func statusKind(status int) TransportKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindRequest
	}
}

func newStatusError(provider string, status int, body []byte) *TransportError {
	kind := statusKind(status)
	var cause error
	switch kind {
	case KindAuth:
		cause = fmt.Errorf("%w: %s", ErrAuth, truncate(string(body), 300))
	case KindRateLimit:
		cause = fmt.Errorf("%w: %s", ErrRateLimited, truncate(string(body), 300))
	default:
		cause = errors.New(truncate(string(body), 300))
	}
	return &TransportError{Kind: kind, Provider: provider, StatusCode: status, Err: cause}
}

// newCallError classifies an error from the HTTP round trip itself.
func newCallError(provider string, err error) *TransportError {
	kind := KindNetwork
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCanceled
	}
	return &TransportError{Kind: kind, Provider: provider, Err: err}
}

// GenerationKind says how a reply broke the JSON contract.
type GenerationKind int

const (
	// KindParse means the reply was not JSON.
	KindParse GenerationKind = iota
	// KindSchema means the JSON was missing or malformed in required fields.
	KindSchema
)

func (k GenerationKind) String() string {
	if k == KindSchema {
		return "schema"
	}
	return "parse"
}

// GenerationError is a contract failure: the model answered but the reply
// could not be used. It is absorbed by the fallback policy.
type GenerationError struct {
	Kind GenerationKind
	// Excerpt is the start of the offending reply.
	Excerpt string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("invalid %s in model reply: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsContractError reports whether err is a GenerationError.
func IsContractError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// IsRetryable reports whether err is a transport failure worth resending.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable()
}

// IsTerminal reports whether err must abort the session.
func IsTerminal(err error) bool {
	return err != nil && !IsContractError(err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
