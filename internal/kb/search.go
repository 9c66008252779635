package kb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vampirenirmal/ritual/internal/domain"
)

// Searcher resolves an agent's profile, builds the composite query and
// answers from the cache before falling through to the retriever.
type Searcher struct {
	retriever Retriever
	profiles  map[domain.Agent]Profile
	cache     *Cache[[]RankedChunk]
	logger    *slog.Logger
}

type SearcherOption func(*Searcher)

// WithProfiles replaces the built-in profiles.
func WithProfiles(profiles map[domain.Agent]Profile) SearcherOption {
	return func(s *Searcher) {
		s.profiles = profiles
	}
}

// WithCache sets the result cache. Passing nil disables caching.
func WithCache(cache *Cache[[]RankedChunk]) SearcherOption {
	return func(s *Searcher) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// NewSearcher creates a searcher over r with the default profiles and a one
// hour cache of 256 entries.
func NewSearcher(r Retriever, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		retriever: r,
		profiles:  DefaultProfiles(),
		cache:     NewCache[[]RankedChunk](time.Hour, 256),
		logger:    slog.Default().With("component", "kb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile returns the profile registered for agent.
func (s *Searcher) Profile(agent domain.Agent) (Profile, error) {
	p, ok := s.profiles[agent]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownAgent, agent)
	}
	return p, nil
}

func cacheKey(p Profile, query string) string {
	return fmt.Sprintf("%s:%s:%d:%g", p.Agent, query, p.TopK, p.Threshold)
}

// Search returns at most TopK chunks at or above the agent's threshold, in
// descending similarity. Identical requests within the cache TTL are served
// without touching the retriever.
func (s *Searcher) Search(ctx context.Context, agent domain.Agent, userText string, extraHints ...string) ([]RankedChunk, error) {
	profile, err := s.Profile(agent)
	if err != nil {
		return nil, err
	}

	query := CompositeQuery(profile, userText, extraHints...)
	key := cacheKey(profile, query)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("kb cache hit", "agent", agent, "chunks", len(cached))
			return clone(cached), nil
		}
	}

	start := time.Now()
	chunks, err := s.retriever.Retrieve(ctx, profile, query)
	if err != nil {
		return nil, &RetrievalError{Agent: agent, Err: err}
	}
	chunks = rank(chunks, profile)

	s.logger.Debug("kb search",
		"agent", agent,
		"chunks", len(chunks),
		"duration", time.Since(start),
	)

	if s.cache != nil {
		s.cache.Set(key, clone(chunks))
	}
	return chunks, nil
}

// SearchContext is Search followed by FormatContext.
func (s *Searcher) SearchContext(ctx context.Context, agent domain.Agent, userText string, extraHints ...string) (string, error) {
	chunks, err := s.Search(ctx, agent, userText, extraHints...)
	if err != nil {
		return "", err
	}
	return FormatContext(chunks), nil
}

// ClearCache drops every cached result.
func (s *Searcher) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// rank applies the threshold floor, orders by similarity and caps at TopK.
func rank(chunks []RankedChunk, p Profile) []RankedChunk {
	kept := make([]RankedChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Similarity >= p.Threshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})
	if p.TopK > 0 && len(kept) > p.TopK {
		kept = kept[:p.TopK]
	}
	return kept
}

func clone(chunks []RankedChunk) []RankedChunk {
	if chunks == nil {
		return nil
	}
	out := make([]RankedChunk, len(chunks))
	copy(out, chunks)
	return out
}
