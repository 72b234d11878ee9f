// Package store persists normalized match entities with idempotent
// insert-if-absent semantics. Two backends are provided: Postgres for a
// shared database and SQLite for a local zero-setup file.
package store

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Tables lists the entity tables in foreign-key dependency order: a row in a
// later table only references rows in earlier ones.
var Tables = []string{"matches", "players", "teams", "participants"}

// Match is the one-per-gameId entity. Created once, never mutated.
type Match struct {
	GameID       int64
	GameCreation time.Time
	DurationSec  int
	QueueID      int
	MapID        int
	GameMode     string
	GameType     string
	GameVersion  string
	IsFallback   bool
}

// Player is keyed by puuid and shared across matches.
type Player struct {
	PUUID        string
	SummonerName string
	TagLine      string
	PlatformID   string
	ProfileIcon  int
}

// Team is keyed by (gameId, teamId). Bans is the ordered champion-id ban
// sequence, serialized as JSON in the bans column.
type Team struct {
	GameID          int64
	TeamID          int
	Win             bool
	FirstBlood      bool
	FirstTower      bool
	FirstDragon     bool
	FirstBaron      bool
	FirstInhibitor  bool
	FirstRiftHerald bool
	TowerKills      int
	InhibitorKills  int
	DragonKills     int
	BaronKills      int
	RiftHeraldKills int
	Bans            []int
}

// Participant is keyed by (gameId, participantId). PUUID may be empty when
// the source had no identity for the slot; the row is kept regardless.
// TeamID 0 marks a slot with no team assignment; the backends store it as
// NULL so the team foreign key is skipped for that row.
type Participant struct {
	GameID        int64
	ParticipantID int
	PUUID         string
	TeamID        int
	ChampionID    int
	Spell1ID      int
	Spell2ID      int
	Lane          string
	Role          string
	ChampLevel    int

	Kills   int
	Deaths  int
	Assists int

	DmgTotal        int
	DmgMagic        int
	DmgPhys         int
	DmgTrue         int
	TakenTotal      int
	TakenMagic      int
	TakenPhys       int
	TakenTrue       int
	HealTotal       int
	UnitsHealed     int
	ShieldTeammates int
	CCTimeSec       int

	VisionScore   int
	WardsPlaced   int
	WardsKilled   int
	DetectorWards int

	GoldEarned    int
	GoldSpent     int
	MinionsKilled int
	JungleCS      int

	Item0 int
	Item1 int
	Item2 int
	Item3 int
	Item4 int
	Item5 int
	Item6 int

	PrimaryStyleID int
	SubStyleID     int
	Perk0          int
	Perk1          int
	Perk2          int
	Perk3          int
	Perk4          int
	Perk5          int
	StatPerk0      int
	StatPerk1      int
	StatPerk2      int

	Win bool
}

// KDA returns (kills+assists)/max(1,deaths) rounded to 2 decimal places.
// Deathless games divide by 1 rather than erroring.
func (p Participant) KDA() float64 {
	deaths := p.Deaths
	if deaths < 1 {
		deaths = 1
	}
	kda := float64(p.Kills+p.Assists) / float64(deaths)
	return math.Round(kda*100) / 100
}

// MatchBundle is the full set of rows normalized from one match. Persist
// writes it as a single atomic unit.
type MatchBundle struct {
	Match        Match
	Players      []Player
	Teams        []Team
	Participants []Participant
}

// PersistResult reports how many rows each table actually gained. Re-ingesting
// an already-stored match yields all zeros.
type PersistResult struct {
	Matches      int
	Players      int
	Teams        int
	Participants int
}

// Total returns the number of rows inserted across all tables.
func (r PersistResult) Total() int {
	return r.Matches + r.Players + r.Teams + r.Participants
}

func (r PersistResult) String() string {
	return fmt.Sprintf("matches=%d players=%d teams=%d participants=%d",
		r.Matches, r.Players, r.Teams, r.Participants)
}

// Add accumulates another result into r.
func (r *PersistResult) Add(o PersistResult) {
	r.Matches += o.Matches
	r.Players += o.Players
	r.Teams += o.Teams
	r.Participants += o.Participants
}

// PersistError wraps a genuine storage failure for one match. Uniqueness
// violations never reach this type; they are treated as a benign same-key
// race and swallowed by the backends.
type PersistError struct {
	GameID int64
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting game %d: %v", e.GameID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store is the persistence contract the pipeline writes through.
type Store interface {
	// Persist writes all rows for one match transactionally with
	// insert-if-absent semantics per row.
	Persist(ctx context.Context, b MatchBundle) (PersistResult, error)
	// Status returns current row counts per table.
	Status(ctx context.Context) (map[string]int, error)
	// Clear empties all entity tables. Administrative use only.
	Clear(ctx context.Context) error
	// Rows returns a table's header and data rows for export.
	Rows(ctx context.Context, table string) ([]string, [][]string, error)
	Close()
}
