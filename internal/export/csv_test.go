package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lolstats/internal/store"
)

func seededStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(st.Close)

	bundle := store.MatchBundle{
		Match: store.Match{GameID: 100, GameCreation: time.Now().UTC(), QueueID: 420},
		Players: []store.Player{
			{PUUID: "p1", SummonerName: "Alice"},
		},
		Teams: []store.Team{
			{GameID: 100, TeamID: 100, Win: true, Bans: []int{24}},
		},
		Participants: []store.Participant{
			{GameID: 100, ParticipantID: 1, PUUID: "p1", TeamID: 100},
		},
	}
	if _, err := st.Persist(context.Background(), bundle); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	return st
}

func TestTables_WritesEveryEntityFile(t *testing.T) {
	st := seededStore(t)
	dir := t.TempDir()

	counts, err := Tables(context.Background(), st, dir)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}

	for _, table := range store.Tables {
		if counts[table] != 1 {
			t.Errorf("Expected 1 exported row for %s, got %d", table, counts[table])
		}

		path := filepath.Join(dir, table+"_export.csv")
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("Missing export file for %s: %v", table, err)
		}
		records, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("Reading %s export: %v", table, err)
		}
		if len(records) != 2 {
			t.Errorf("Expected header plus 1 row in %s export, got %d records", table, len(records))
		}
	}
}

func TestTable_HeaderMatchesSchema(t *testing.T) {
	st := seededStore(t)
	dir := t.TempDir()

	if _, err := Table(context.Background(), st, "matches", dir); err != nil {
		t.Fatalf("Table failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "matches_export.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		t.Fatal(err)
	}
	if header[0] != "game_id" {
		t.Errorf("Expected game_id first, got %s", header[0])
	}
}

func TestTable_UnknownTable(t *testing.T) {
	st := seededStore(t)

	if _, err := Table(context.Background(), st, "nope", t.TempDir()); err == nil {
		t.Fatal("Expected error for unknown table")
	}
}
