package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"lolstats/internal/lcu"
	"lolstats/internal/store"
)

// fakeHistory pages through a fixed summary list the way the client does,
// stopping on the first short page.
type fakeHistory struct {
	summaries []lcu.MatchSummary
	err       error // returned after all summaries are streamed
}

func (f *fakeHistory) FetchAll(ctx context.Context, puuid string, pageSize int, fn func(lcu.MatchSummary) error) error {
	for _, s := range f.summaries {
		if err := fn(s); err != nil {
			return err
		}
	}
	return f.err
}

// fakeStore records persisted bundles and can fail specific games.
type fakeStore struct {
	mu       sync.Mutex
	bundles  []store.MatchBundle
	failGame int64
}

func (f *fakeStore) Persist(ctx context.Context, b store.MatchBundle) (store.PersistResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.Match.GameID == f.failGame {
		return store.PersistResult{}, &store.PersistError{GameID: b.Match.GameID, Err: errors.New("disk full")}
	}
	f.bundles = append(f.bundles, b)
	return store.PersistResult{Matches: 1}, nil
}

func (f *fakeStore) Status(ctx context.Context) (map[string]int, error) { return nil, nil }
func (f *fakeStore) Clear(ctx context.Context) error                    { return nil }
func (f *fakeStore) Rows(ctx context.Context, table string) ([]string, [][]string, error) {
	return nil, nil, nil
}
func (f *fakeStore) Close() {}

func testSummaries(n int) []lcu.MatchSummary {
	out := make([]lcu.MatchSummary, n)
	for i := range out {
		out[i] = lcu.MatchSummary{GameID: int64(i + 1), QueueID: 420}
	}
	return out
}

func TestPipeline_EndToEndFallback(t *testing.T) {
	// Detail lookups all fail, so every match persists from its summary with
	// the fallback flag set. Re-running over the same history inserts nothing.
	history := &fakeHistory{summaries: testSummaries(4)}
	source := &fakeDetailSource{err: errors.New("client gone")}

	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Opening store failed: %v", err)
	}
	defer st.Close()

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	report, err := p.Run(context.Background(), "test-puuid", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Fallback != 4 || report.Ingested != 0 || report.Failed != 0 {
		t.Errorf("Expected 4 fallback matches, got report %+v", report)
	}
	if report.Inserted.Matches != 4 {
		t.Errorf("Expected 4 match rows inserted, got %d", report.Inserted.Matches)
	}

	counts, err := st.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if counts["matches"] != 4 {
		t.Errorf("Expected 4 stored matches, got %d", counts["matches"])
	}

	var fallbackRows int
	err = st.DB().QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM matches WHERE is_fallback = 1").Scan(&fallbackRows)
	if err != nil {
		t.Fatal(err)
	}
	if fallbackRows != 4 {
		t.Errorf("Expected all 4 stored matches marked fallback, got %d", fallbackRows)
	}

	// Second run over identical history: same tallies, zero new rows.
	report2, err := p.Run(context.Background(), "test-puuid", nil)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report2.Total() != 4 {
		t.Errorf("Expected 4 matches attempted on re-run, got %d", report2.Total())
	}
	if report2.Inserted.Total() != 0 {
		t.Errorf("Expected no new rows on re-run, got %s", report2.Inserted)
	}

	counts2, _ := st.Status(context.Background())
	if counts2["matches"] != 4 {
		t.Errorf("Expected row counts unchanged after re-run, got %d", counts2["matches"])
	}
}

func TestPipeline_FullDetailIngestion(t *testing.T) {
	history := &fakeHistory{summaries: testSummaries(2)}
	source := &fakeDetailSource{games: map[int64]*lcu.MatchSummary{
		1: completeDetail(1),
		2: completeDetail(2),
	}}
	st := &fakeStore{}

	p := New(history, NewResolver(source), st, Config{Workers: 2})

	report, err := p.Run(context.Background(), "test-puuid", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Ingested != 2 || report.Fallback != 0 {
		t.Errorf("Expected 2 full ingests, got %+v", report)
	}
	if len(st.bundles) != 2 {
		t.Errorf("Expected 2 persisted bundles, got %d", len(st.bundles))
	}
	for _, b := range st.bundles {
		if b.Match.IsFallback {
			t.Errorf("Game %d unexpectedly marked fallback", b.Match.GameID)
		}
	}
}

func TestPipeline_PersistFailureDoesNotAbort(t *testing.T) {
	history := &fakeHistory{summaries: testSummaries(3)}
	source := &fakeDetailSource{err: errors.New("client gone")}
	st := &fakeStore{failGame: 2}

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	report, err := p.Run(context.Background(), "test-puuid", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Failed != 1 {
		t.Errorf("Expected 1 failed match, got %d", report.Failed)
	}
	if report.Fallback != 2 {
		t.Errorf("Expected the other 2 matches to persist, got %d", report.Fallback)
	}
	if len(report.Failures) != 1 || report.Failures[0].GameID != 2 {
		t.Errorf("Expected game 2 in failure list, got %+v", report.Failures)
	}
}

func TestPipeline_FetchErrorReported(t *testing.T) {
	fetchErr := &lcu.FetchError{Page: 2, Err: errors.New("timeout")}
	history := &fakeHistory{summaries: testSummaries(2), err: fetchErr}
	source := &fakeDetailSource{err: errors.New("client gone")}
	st := &fakeStore{}

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	report, err := p.Run(context.Background(), "test-puuid", nil)
	if err != nil {
		t.Fatalf("Run itself must not fail on a page error: %v", err)
	}

	var got *lcu.FetchError
	if !errors.As(report.FetchErr, &got) {
		t.Fatalf("Expected *FetchError in report, got %v", report.FetchErr)
	}
	if report.Total() != 2 {
		t.Errorf("Expected the 2 dispatched matches processed, got %d", report.Total())
	}
}

func TestPipeline_QueueFilter(t *testing.T) {
	history := &fakeHistory{summaries: []lcu.MatchSummary{
		{GameID: 1, QueueID: 420},
		{GameID: 2, QueueID: 450},
		{GameID: 3, QueueID: 420},
		{GameID: 4, QueueID: 1700},
	}}
	source := &fakeDetailSource{err: errors.New("client gone")}
	st := &fakeStore{}

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	report, err := p.Run(context.Background(), "test-puuid", QueueFilter(420))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Total() != 2 {
		t.Errorf("Expected 2 solo-queue matches, got %d", report.Total())
	}
	for _, b := range st.bundles {
		if b.Match.QueueID != 420 {
			t.Errorf("Filter leaked queue %d", b.Match.QueueID)
		}
	}
}

func TestPipeline_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history := &fakeHistory{summaries: testSummaries(10)}
	source := &fakeDetailSource{err: errors.New("client gone")}
	st := &fakeStore{}

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	_, err := p.Run(ctx, "test-puuid", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPipeline_ProgressCallback(t *testing.T) {
	history := &fakeHistory{summaries: testSummaries(3)}
	source := &fakeDetailSource{err: errors.New("client gone")}
	st := &fakeStore{}

	p := New(history, NewResolver(source), st, Config{Workers: 1})

	var calls int
	var lastDone int
	p.OnProgress = func(done, fallback, failed int) {
		calls++
		lastDone = done
	}

	if _, err := p.Run(context.Background(), "test-puuid", nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 progress calls, got %d", calls)
	}
	if lastDone != 3 {
		t.Errorf("Expected final done=3, got %d", lastDone)
	}
}
