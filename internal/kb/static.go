package kb

import (
	"context"
	"sync"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// StaticRetriever serves fixed chunks per agent. It backs dry runs and tests
// and counts how often it was asked.
type StaticRetriever struct {
	mu     sync.Mutex
	chunks map[domain.Agent][]RankedChunk
	calls  int
	err    error
}

func NewStaticRetriever(chunks map[domain.Agent][]RankedChunk) *StaticRetriever {
	if chunks == nil {
		chunks = make(map[domain.Agent][]RankedChunk)
	}
	return &StaticRetriever{chunks: chunks}
}

// FailWith makes every later Retrieve return err.
func (r *StaticRetriever) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *StaticRetriever) Retrieve(_ context.Context, profile Profile, _ string) ([]RankedChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return clone(r.chunks[profile.Agent]), nil
}

// Calls reports how many times Retrieve ran.
func (r *StaticRetriever) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
