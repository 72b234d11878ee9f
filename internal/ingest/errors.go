package ingest

import "fmt"

// DetailIncompleteError marks a detail payload that decoded fine but is
// missing a required section. It triggers the fallback path and is never
// surfaced as a run failure.
type DetailIncompleteError struct {
	GameID  int64
	Missing string
}

func (e *DetailIncompleteError) Error() string {
	return fmt.Sprintf("detail for game %d missing %s", e.GameID, e.Missing)
}

// MatchFailure records one match that could not be persisted. The run
// continues past it.
type MatchFailure struct {
	GameID int64
	Err    error
}

func (f MatchFailure) String() string {
	return fmt.Sprintf("game %d: %v", f.GameID, f.Err)
}
