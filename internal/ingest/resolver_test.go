package ingest

import (
	"context"
	"errors"
	"testing"

	"lolstats/internal/lcu"
)

// fakeDetailSource returns canned detail payloads per gameId and errors for
// anything else.
type fakeDetailSource struct {
	games map[int64]*lcu.MatchSummary
	err   error
	calls int
}

func (f *fakeDetailSource) GetGame(ctx context.Context, gameID int64) (*lcu.MatchSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	game, ok := f.games[gameID]
	if !ok {
		return nil, errors.New("game not found")
	}
	return game, nil
}

func completeDetail(gameID int64) *lcu.MatchSummary {
	return &lcu.MatchSummary{
		GameID: gameID,
		Teams:  []lcu.TeamData{{TeamID: 100, Win: "Win"}, {TeamID: 200, Win: "Fail"}},
		Participants: []lcu.ParticipantData{
			{ParticipantID: 1, TeamID: 100, ChampionID: 7},
		},
		ParticipantIdentities: []lcu.ParticipantIdentity{
			{ParticipantID: 1, Player: lcu.PlayerIdentity{PUUID: "p1", GameName: "Alice"}},
		},
	}
}

func TestResolve_CompleteDetail(t *testing.T) {
	source := &fakeDetailSource{games: map[int64]*lcu.MatchSummary{
		10: completeDetail(10),
	}}
	resolver := NewResolver(source)

	detail := resolver.Resolve(context.Background(), lcu.MatchSummary{GameID: 10})

	if detail.IsFallback {
		t.Error("Expected full detail, got fallback")
	}
	if len(detail.Teams) != 2 {
		t.Errorf("Expected detail teams, got %d", len(detail.Teams))
	}
}

func TestResolve_LookupFailureFallsBack(t *testing.T) {
	source := &fakeDetailSource{err: errors.New("connection refused")}
	resolver := NewResolver(source)

	summary := lcu.MatchSummary{GameID: 20, QueueID: 450}
	detail := resolver.Resolve(context.Background(), summary)

	if !detail.IsFallback {
		t.Error("Expected fallback on lookup failure")
	}
	if detail.GameID != 20 || detail.QueueID != 450 {
		t.Errorf("Fallback must carry the summary record, got %+v", detail.MatchSummary)
	}
}

func TestResolve_IncompletePayloadFallsBack(t *testing.T) {
	cases := []struct {
		name string
		game *lcu.MatchSummary
	}{
		{"no participants", &lcu.MatchSummary{
			GameID:                30,
			Teams:                 []lcu.TeamData{{TeamID: 100}},
			ParticipantIdentities: []lcu.ParticipantIdentity{{ParticipantID: 1}},
		}},
		{"no teams", &lcu.MatchSummary{
			GameID:                30,
			Participants:          []lcu.ParticipantData{{ParticipantID: 1}},
			ParticipantIdentities: []lcu.ParticipantIdentity{{ParticipantID: 1}},
		}},
		{"no identities", &lcu.MatchSummary{
			GameID:       30,
			Teams:        []lcu.TeamData{{TeamID: 100}},
			Participants: []lcu.ParticipantData{{ParticipantID: 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &fakeDetailSource{games: map[int64]*lcu.MatchSummary{30: tc.game}}
			resolver := NewResolver(source)

			detail := resolver.Resolve(context.Background(), lcu.MatchSummary{GameID: 30})
			if !detail.IsFallback {
				t.Error("Expected fallback for incomplete payload")
			}
		})
	}
}

func TestDetailIncompleteError_Message(t *testing.T) {
	err := checkComplete(&lcu.MatchSummary{GameID: 99})
	var incomplete *DetailIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("Expected *DetailIncompleteError, got %T", err)
	}
	if incomplete.GameID != 99 || incomplete.Missing != "participants" {
		t.Errorf("Unexpected error fields: %+v", incomplete)
	}
}
