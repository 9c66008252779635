package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one text in a batch. Exactly one of Report
// and Err is set.
type BatchResult struct {
	Index  int
	Report *SessionReport
	Err    error
}

// Batch runs one session per text with at most concurrency sessions in
// flight (unbounded when concurrency <= 0). A failed session does not stop
// the others. Results are in input order.
func (p *Pipeline) Batch(ctx context.Context, texts []string, concurrency int) []BatchResult {
	results := make([]BatchResult, len(texts))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, text := range texts {
		g.Go(func() error {
			report, err := p.Run(ctx, text)
			results[i] = BatchResult{Index: i, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("batch complete", "sessions", len(texts), "failed", CountFailed(results))
	return results
}

func CountFailed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
