package ingest

import (
	"context"
	"log"
	"sync"

	"lolstats/internal/lcu"
	"lolstats/internal/store"
)

const (
	// Worker pool configuration. Detail lookups dominate latency and are
	// independent per gameId, so they run concurrently; the store's
	// insert-if-absent writes make result order irrelevant.
	DefaultWorkerCount = 4
	jobChannelBuffer   = 64
)

// HistorySource provides the paginated summary walk.
type HistorySource interface {
	FetchAll(ctx context.Context, puuid string, pageSize int, fn func(lcu.MatchSummary) error) error
}

// Config holds pipeline tuning knobs.
type Config struct {
	PageSize int
	Workers  int
}

// Pipeline drives one ingestion run: page fetch, concurrent detail
// resolution, normalization and persistence.
type Pipeline struct {
	history  HistorySource
	resolver *Resolver
	store    store.Store
	pageSize int
	workers  int

	// OnProgress, when set, is invoked after each processed match with the
	// running tallies. It is purely observational.
	OnProgress func(done, fallback, failed int)
}

// RunReport is the terminal accounting for one run.
type RunReport struct {
	Ingested int // matches persisted from full detail
	Fallback int // matches persisted from the summary record
	Failed   int // matches that could not be persisted
	Failures []MatchFailure
	Inserted store.PersistResult // rows actually added across all matches

	// FetchErr is set when pagination stopped on a transport/parse failure
	// rather than end-of-history. Matches streamed before it are still
	// processed and counted.
	FetchErr error
}

// Total returns the number of matches the run attempted.
func (r *RunReport) Total() int {
	return r.Ingested + r.Fallback + r.Failed
}

// New creates a pipeline over the given source, resolver and store.
func New(history HistorySource, resolver *Resolver, st store.Store, cfg Config) *Pipeline {
	if cfg.PageSize <= 0 {
		cfg.PageSize = lcu.DefaultPageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkerCount
	}
	return &Pipeline{
		history:  history,
		resolver: resolver,
		store:    st,
		pageSize: cfg.PageSize,
		workers:  cfg.Workers,
	}
}

// QueueFilter returns a summary filter accepting only the given queue ids.
func QueueFilter(queueIDs ...int) func(lcu.MatchSummary) bool {
	allowed := make(map[int]bool, len(queueIDs))
	for _, id := range queueIDs {
		allowed[id] = true
	}
	return func(s lcu.MatchSummary) bool {
		return allowed[s.QueueID]
	}
}

type matchOutcome struct {
	gameID   int64
	fallback bool
	inserted store.PersistResult
	err      error
}

// Run ingests the player's history, optionally filtered by queue. Per-match
// failures are collected in the report, never fatal; the run only returns a
// non-nil error when the context is cancelled. Because every match is
// written in its own transaction, cancellation between matches leaves no
// partial per-match state, and re-running over the same history is a no-op.
func (p *Pipeline) Run(ctx context.Context, puuid string, filter func(lcu.MatchSummary) bool) (*RunReport, error) {
	report := &RunReport{}

	jobs := make(chan lcu.MatchSummary, jobChannelBuffer)
	results := make(chan matchOutcome, jobChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, jobs, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Producer: stream deduplicated summaries into the pool. A page failure
	// stops pagination but is not end-of-history; it is reported and the
	// matches already dispatched still complete.
	go func() {
		defer close(jobs)
		err := p.history.FetchAll(ctx, puuid, p.pageSize, func(s lcu.MatchSummary) error {
			if filter != nil && !filter(s) {
				return nil
			}
			select {
			case jobs <- s:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("[Pipeline] Pagination stopped early: %v", err)
			report.FetchErr = err
		}
	}()

	for outcome := range results {
		switch {
		case outcome.err != nil:
			report.Failed++
			report.Failures = append(report.Failures, MatchFailure{GameID: outcome.gameID, Err: outcome.err})
			log.Printf("[Pipeline] Failed to persist game %d: %v", outcome.gameID, outcome.err)
		case outcome.fallback:
			report.Fallback++
			report.Inserted.Add(outcome.inserted)
		default:
			report.Ingested++
			report.Inserted.Add(outcome.inserted)
		}

		if p.OnProgress != nil {
			p.OnProgress(report.Total(), report.Fallback, report.Failed)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// worker resolves, normalizes and persists summaries until the job channel
// closes. The context is checked between matches only; a match that started
// persisting is completed or rolled back by its transaction.
func (p *Pipeline) worker(ctx context.Context, jobs <-chan lcu.MatchSummary, results chan<- matchOutcome) {
	for summary := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		detail := p.resolver.Resolve(ctx, summary)
		bundle := Normalize(detail)

		inserted, err := p.store.Persist(ctx, bundle)
		results <- matchOutcome{
			gameID:   summary.GameID,
			fallback: detail.IsFallback,
			inserted: inserted,
			err:      err,
		}
	}
}
