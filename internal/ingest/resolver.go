package ingest

import (
	"context"
	"log"
	"time"

	"lolstats/internal/lcu"
)

// DetailSource provides the per-game detail lookup.
type DetailSource interface {
	GetGame(ctx context.Context, gameID int64) (*lcu.MatchSummary, error)
}

// Resolver upgrades a match summary to its full detail record, falling back
// to the summary when the detail is unavailable or incomplete. Resolve never
// fails: the pipeline always gets some record to persist for every summary.
type Resolver struct {
	source  DetailSource
	timeout time.Duration
}

// NewResolver creates a resolver with the default per-lookup timeout.
func NewResolver(source DetailSource) *Resolver {
	return &Resolver{source: source, timeout: lcu.DefaultTimeout}
}

// Resolve attempts the detail lookup for summary's gameId. The result
// carries IsFallback=false only when the lookup succeeded and the payload
// contains non-empty participants, teams and participantIdentities; the
// history endpoint routinely serves partial JSON, so a successful lookup is
// not enough on its own.
func (r *Resolver) Resolve(ctx context.Context, summary lcu.MatchSummary) lcu.MatchDetail {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	detail, err := r.source.GetGame(ctx, summary.GameID)
	if err != nil {
		log.Printf("[Resolver] Detail lookup failed for game %d: %v (using summary)", summary.GameID, err)
		return lcu.MatchDetail{MatchSummary: summary, IsFallback: true}
	}

	if err := checkComplete(detail); err != nil {
		log.Printf("[Resolver] %v (using summary)", err)
		return lcu.MatchDetail{MatchSummary: summary, IsFallback: true}
	}

	return lcu.MatchDetail{MatchSummary: *detail, IsFallback: false}
}

// checkComplete rejects detail payloads missing any required section.
func checkComplete(g *lcu.MatchSummary) error {
	switch {
	case len(g.Participants) == 0:
		return &DetailIncompleteError{GameID: g.GameID, Missing: "participants"}
	case len(g.Teams) == 0:
		return &DetailIncompleteError{GameID: g.GameID, Missing: "teams"}
	case len(g.ParticipantIdentities) == 0:
		return &DetailIncompleteError{GameID: g.GameID, Missing: "participantIdentities"}
	}
	return nil
}
