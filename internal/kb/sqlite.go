package kb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kb_chunks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file   TEXT NOT NULL,
	section_title TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL,
	char_count    INTEGER NOT NULL,
	embedding     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kb_chunks_source ON kb_chunks(source_file);
`

// Chunk is a passage to be stored together with its embedding.
type Chunk struct {
	SourceFile   string
	SectionTitle string
	Content      string
	Embedding    []float32
}

// Stats describes the contents of the knowledge base.
type Stats struct {
	TotalChunks  int           `json:"totalChunks"`
	TopSources   []SourceCount `json:"topSources"`
	AvgChunkSize int           `json:"avgChunkSize"`
}

// SourceCount is the number of chunks under one top-level source folder.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

const topSourceLimit = 5

// SQLiteStore keeps chunks and their embeddings in a SQLite file and ranks
// them by cosine similarity against an embedded query.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
}

// OpenSQLite opens (creating if needed) the knowledge base at path.
func OpenSQLite(ctx context.Context, path string, embedder Embedder) (*SQLiteStore, error) {
	if embedder == nil {
		return nil, errors.New("open knowledge base: embedder is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base %s: %w", path, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize knowledge base schema: %w", err)
	}
	return &SQLiteStore{db: db, embedder: embedder}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert stores chunks in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, chunks ...Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO kb_chunks (source_file, section_title, content, char_count, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk from %s has no embedding", c.SourceFile)
		}
		_, err := stmt.ExecContext(ctx, c.SourceFile, c.SectionTitle, c.Content,
			utf8.RuneCountInString(c.Content), encodeEmbedding(c.Embedding))
		if err != nil {
			return fmt.Errorf("insert chunk from %s: %w", c.SourceFile, err)
		}
	}
	return tx.Commit()
}

// Retrieve embeds query and returns the stored chunks at or above the
// profile threshold, best first, capped at TopK.
func (s *SQLiteStore) Retrieve(ctx context.Context, profile Profile, query string) ([]RankedChunk, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_file, section_title, content, char_count, embedding FROM kb_chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var ranked []RankedChunk
	for rows.Next() {
		var (
			c    RankedChunk
			blob []byte
		)
		if err := rows.Scan(&c.SourceLabel, &c.SectionTitle, &c.Content, &c.CharCount, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Similarity = cosineSimilarity(vec, decodeEmbedding(blob))
		if c.Similarity >= profile.Threshold {
			ranked = append(ranked, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if profile.TopK > 0 && len(ranked) > profile.TopK {
		ranked = ranked[:profile.TopK]
	}
	return ranked, nil
}

// Stats counts chunks, groups them by the first path segment of their
// source file and averages their size.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_file, char_count FROM kb_chunks`)
	if err != nil {
		return Stats{}, fmt.Errorf("query chunk stats: %w", err)
	}
	defer rows.Close()

	var (
		stats   Stats
		total   int
		folders = make(map[string]int)
	)
	for rows.Next() {
		var (
			source string
			size   int
		)
		if err := rows.Scan(&source, &size); err != nil {
			return Stats{}, fmt.Errorf("scan chunk stats: %w", err)
		}
		stats.TotalChunks++
		total += size
		folder, _, _ := strings.Cut(source, "/")
		folders[folder]++
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate chunk stats: %w", err)
	}

	if stats.TotalChunks > 0 {
		stats.AvgChunkSize = int(math.Round(float64(total) / float64(stats.TotalChunks)))
	}
	for source, count := range folders {
		stats.TopSources = append(stats.TopSources, SourceCount{Source: source, Count: count})
	}
	sort.Slice(stats.TopSources, func(i, j int) bool {
		a, b := stats.TopSources[i], stats.TopSources[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Source < b.Source
	})
	if len(stats.TopSources) > topSourceLimit {
		stats.TopSources = stats.TopSources[:topSourceLimit]
	}
	return stats, nil
}

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
