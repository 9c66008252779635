package kb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vampirenirmal/ritual/internal/domain"
)

func TestCompositeQuery(t *testing.T) {
	p := Profile{Agent: domain.AgentStory, Hints: []string{"hero journey", "myth"}}

	got := CompositeQuery(p, "  I keep abandoning projects  ", "The Creator", " ")
	assert.Equal(t, "hero journey myth The Creator I keep abandoning projects", got)

	long := strings.Repeat("é", 400)
	q := CompositeQuery(Profile{}, long)
	assert.Equal(t, " "+strings.Repeat("é", 300), q)
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()
	tests := []struct {
		agent     domain.Agent
		topK      int
		threshold float64
	}{
		{domain.AgentInsight, 7, 0.55},
		{domain.AgentStory, 6, 0.55},
		{domain.AgentPrototype, 8, 0.50},
		{domain.AgentSymbol, 7, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.agent.String(), func(t *testing.T) {
			p, ok := profiles[tt.agent]
			require.True(t, ok)
			assert.Equal(t, tt.topK, p.TopK)
			assert.Equal(t, tt.threshold, p.Threshold)
			assert.NotEmpty(t, p.Hints)
		})
	}
	_, ok := profiles[domain.AgentRefine]
	assert.False(t, ok)
}

func TestFormatContext(t *testing.T) {
	assert.Equal(t, "No relevant KB context found.", FormatContext(nil))

	got := FormatContext([]RankedChunk{
		{SourceLabel: "Frameworks/story.md", SectionTitle: "Arc", Content: "The arc bends."},
		{SourceLabel: "Symbols/color.md", Content: "Red is heat."},
	})
	want := "[1] Source: Frameworks/story.md - Arc\nThe arc bends.\n\n---\n\n[2] Source: Symbols/color.md\nRed is heat."
	assert.Equal(t, want, got)
}

func TestCacheExpiryAndEviction(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Minute, 2, WithClock(func() time.Time { return now }))

	c.Set("a", 1)
	c.Set("b", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("c", 3)
	_, ok = c.Get("a")
	assert.False(t, ok, "oldest insertion should be evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("b")
	assert.False(t, ok, "entry should expire at its TTL")

	hits, misses, size := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
	assert.Equal(t, 1, size)

	c.Clear()
	_, _, size = c.Stats()
	assert.Zero(t, size)
}

// opencensus, imported through genai, runs a stats worker from init.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func chunksFor(sims ...float64) []RankedChunk {
	out := make([]RankedChunk, len(sims))
	for i, s := range sims {
		out[i] = RankedChunk{SourceLabel: "src", Content: "c", Similarity: s}
	}
	return out
}

func TestSearcherRanksAndCaches(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	r := NewStaticRetriever(map[domain.Agent][]RankedChunk{
		domain.AgentStory: chunksFor(0.6, 0.9, 0.2, 0.55, 0.7, 0.8, 0.95, 0.58),
	})
	s := NewSearcher(r)
	ctx := context.Background()

	got, err := s.Search(ctx, domain.AgentStory, "I want to make things again", "The Creator")
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, c := range got {
		assert.GreaterOrEqual(t, c.Similarity, 0.55)
		if i > 0 {
			assert.LessOrEqual(t, c.Similarity, got[i-1].Similarity)
		}
	}
	assert.Equal(t, 0.95, got[0].Similarity)

	got[0].Content = "mutated"
	again, err := s.Search(ctx, domain.AgentStory, "I want to make things again", "The Creator")
	require.NoError(t, err)
	assert.Equal(t, "c", again[0].Content)
	assert.Equal(t, 1, r.Calls(), "second identical search should hit the cache")

	_, err = s.Search(ctx, domain.AgentStory, "a different challenge text", "The Creator")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Calls())

	s.ClearCache()
	_, err = s.Search(ctx, domain.AgentStory, "I want to make things again", "The Creator")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Calls())
}

func TestSearcherEmptyAndErrors(t *testing.T) {
	r := NewStaticRetriever(map[domain.Agent][]RankedChunk{
		domain.AgentSymbol: chunksFor(0.1, 0.3),
	})
	s := NewSearcher(r, WithCache(nil))
	ctx := context.Background()

	text, err := s.SearchContext(ctx, domain.AgentSymbol, "some challenge")
	require.NoError(t, err)
	assert.Equal(t, "No relevant KB context found.", text)

	_, err = s.Search(ctx, domain.AgentRefine, "some challenge")
	assert.ErrorIs(t, err, ErrUnknownAgent)

	boom := errors.New("disk gone")
	r.FailWith(boom)
	_, err = s.Search(ctx, domain.AgentSymbol, "some challenge")
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, domain.AgentSymbol, re.Agent)
	assert.ErrorIs(t, err, boom)
}

func TestSearcherConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	r := NewStaticRetriever(map[domain.Agent][]RankedChunk{
		domain.AgentPrototype: chunksFor(0.9, 0.8),
	})
	s := NewSearcher(r)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Search(context.Background(), domain.AgentPrototype, "build a thing in five days")
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
}

type fixedEmbedder struct {
	vec []float32
	err error
}

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return e.vec, e.err
}

func openTestStore(t *testing.T, e Embedder) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kb.db"), e)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRetrieve(t *testing.T) {
	store := openTestStore(t, fixedEmbedder{vec: []float32{1, 0, 0}})
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx,
		Chunk{SourceFile: "Frameworks/a.md", SectionTitle: "Exact", Content: "exact match", Embedding: []float32{1, 0, 0}},
		Chunk{SourceFile: "Frameworks/b.md", Content: "diagonal", Embedding: []float32{1, 1, 0}},
		Chunk{SourceFile: "Symbol_Systems/c.md", Content: "orthogonal", Embedding: []float32{0, 1, 0}},
		Chunk{SourceFile: "Speed_Studio/d.md", Content: "close", Embedding: []float32{1, 0.2, 0}},
	))

	got, err := store.Retrieve(ctx, Profile{TopK: 2, Threshold: 0.5}, "query")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "exact match", got[0].Content)
	assert.Equal(t, "Exact", got[0].SectionTitle)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	assert.Equal(t, "close", got[1].Content)
	assert.Equal(t, len("exact match"), got[0].CharCount)

	all, err := store.Retrieve(ctx, Profile{TopK: 10, Threshold: 0.5}, "query")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, fixedEmbedder{err: errors.New("quota")})

	err := store.Insert(ctx, Chunk{SourceFile: "x.md", Content: "no vector"})
	assert.Error(t, err)

	_, err = store.Retrieve(ctx, Profile{TopK: 1}, "query")
	assert.ErrorContains(t, err, "quota")

	_, err = OpenSQLite(ctx, filepath.Join(t.TempDir(), "kb.db"), nil)
	assert.Error(t, err)
}

func TestSQLiteStoreStats(t *testing.T) {
	store := openTestStore(t, fixedEmbedder{vec: []float32{1}})
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalChunks)
	assert.Zero(t, empty.AvgChunkSize)

	var chunks []Chunk
	for folder, n := range map[string]int{"A": 3, "B": 1, "C": 2, "D": 1, "E": 1, "F": 4} {
		for i := 0; i < n; i++ {
			chunks = append(chunks, Chunk{SourceFile: folder + "/doc.md", Content: "abcd", Embedding: []float32{1}})
		}
	}
	chunks[0].Content = "abcdef"
	require.NoError(t, store.Insert(ctx, chunks...))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalChunks)
	assert.Equal(t, 4, stats.AvgChunkSize)

	want := []SourceCount{{"F", 4}, {"A", 3}, {"C", 2}, {"B", 1}, {"D", 1}}
	if diff := cmp.Diff(want, stats.TopSources); diff != "" {
		t.Errorf("TopSources mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3}
	assert.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))
	assert.Nil(t, decodeEmbedding([]byte{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
