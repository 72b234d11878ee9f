package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// SQLite schema. Mirrors the Postgres schema; bans is a JSON array of
// champion ids in ban order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	game_id INTEGER PRIMARY KEY,
	game_creation TEXT,
	duration_sec INTEGER,
	queue_id INTEGER,
	map_id INTEGER,
	game_mode TEXT,
	game_type TEXT,
	game_version TEXT,
	is_fallback INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS players (
	puuid TEXT PRIMARY KEY,
	summoner_name TEXT,
	tag_line TEXT,
	platform_id TEXT,
	profile_icon INTEGER
);

CREATE TABLE IF NOT EXISTS teams (
	game_id INTEGER NOT NULL,
	team_id INTEGER NOT NULL,
	win INTEGER,
	first_blood INTEGER,
	first_tower INTEGER,
	first_dragon INTEGER,
	first_baron INTEGER,
	first_inhibitor INTEGER,
	first_rift_herald INTEGER,
	tower_kills INTEGER,
	inhibitor_kills INTEGER,
	dragon_kills INTEGER,
	baron_kills INTEGER,
	rift_herald_kills INTEGER,
	bans TEXT,
	PRIMARY KEY (game_id, team_id),
	FOREIGN KEY (game_id) REFERENCES matches(game_id)
);

CREATE TABLE IF NOT EXISTS participants (
	game_id INTEGER NOT NULL,
	participant_id INTEGER NOT NULL,
	puuid TEXT,
	team_id INTEGER,
	champion_id INTEGER,
	spell1_id INTEGER,
	spell2_id INTEGER,
	lane TEXT,
	role TEXT,
	champ_level INTEGER,
	kills INTEGER,
	deaths INTEGER,
	assists INTEGER,
	dmg_total INTEGER,
	dmg_magic INTEGER,
	dmg_phys INTEGER,
	dmg_true INTEGER,
	taken_total INTEGER,
	taken_magic INTEGER,
	taken_phys INTEGER,
	taken_true INTEGER,
	heal_total INTEGER,
	units_healed INTEGER,
	shield_teammates INTEGER,
	cc_time_sec INTEGER,
	vision_score INTEGER,
	wards_placed INTEGER,
	wards_killed INTEGER,
	detector_wards INTEGER,
	gold_earned INTEGER,
	gold_spent INTEGER,
	minions_killed INTEGER,
	jungle_cs INTEGER,
	item0 INTEGER, item1 INTEGER, item2 INTEGER,
	item3 INTEGER, item4 INTEGER, item5 INTEGER, item6 INTEGER,
	primary_style_id INTEGER,
	sub_style_id INTEGER,
	perk0 INTEGER, perk1 INTEGER, perk2 INTEGER,
	perk3 INTEGER, perk4 INTEGER, perk5 INTEGER,
	stat_perk0 INTEGER, stat_perk1 INTEGER, stat_perk2 INTEGER,
	win INTEGER,
	PRIMARY KEY (game_id, participant_id),
	FOREIGN KEY (game_id) REFERENCES matches(game_id),
	FOREIGN KEY (game_id, team_id) REFERENCES teams(game_id, team_id)
);

CREATE INDEX IF NOT EXISTS idx_participants_puuid ON participants(puuid);
CREATE INDEX IF NOT EXISTS idx_matches_queue ON matches(queue_id);
`

// SQLiteStore is the local single-file backend.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// initializes the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Persist writes one match and its derived rows in a single transaction.
// Every insert is INSERT OR IGNORE, so re-ingesting a stored match is a
// no-op and the returned counts stay at zero.
func (s *SQLiteStore) Persist(ctx context.Context, b MatchBundle) (PersistResult, error) {
	var res PersistResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &PersistError{GameID: b.Match.GameID, Err: err}
	}
	defer tx.Rollback()

	m := b.Match
	n, err := execCount(ctx, tx, `
		INSERT OR IGNORE INTO matches (
			game_id, game_creation, duration_sec, queue_id, map_id,
			game_mode, game_type, game_version, is_fallback
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.GameID, m.GameCreation.UTC().Format(time.RFC3339), m.DurationSec, m.QueueID, m.MapID,
		m.GameMode, m.GameType, m.GameVersion, m.IsFallback)
	if err != nil {
		return res, wrapPersist(b.Match.GameID, err)
	}
	res.Matches += n

	for _, p := range b.Players {
		n, err := execCount(ctx, tx, `
			INSERT OR IGNORE INTO players (puuid, summoner_name, tag_line, platform_id, profile_icon)
			VALUES (?, ?, ?, ?, ?)`,
			p.PUUID, p.SummonerName, p.TagLine, p.PlatformID, p.ProfileIcon)
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		res.Players += n
	}

	for _, t := range b.Teams {
		bans, err := json.Marshal(t.Bans)
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		n, err := execCount(ctx, tx, `
			INSERT OR IGNORE INTO teams (
				game_id, team_id, win, first_blood, first_tower, first_dragon, first_baron,
				first_inhibitor, first_rift_herald,
				tower_kills, inhibitor_kills, dragon_kills, baron_kills, rift_herald_kills, bans
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.GameID, t.TeamID, t.Win, t.FirstBlood, t.FirstTower, t.FirstDragon, t.FirstBaron,
			t.FirstInhibitor, t.FirstRiftHerald,
			t.TowerKills, t.InhibitorKills, t.DragonKills, t.BaronKills, t.RiftHeraldKills, string(bans))
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		res.Teams += n
	}

	for _, p := range b.Participants {
		n, err := execCount(ctx, tx, `
			INSERT OR IGNORE INTO participants (
				game_id, participant_id, puuid, team_id, champion_id,
				spell1_id, spell2_id, lane, role, champ_level,
				kills, deaths, assists, dmg_total, dmg_magic, dmg_phys, dmg_true,
				taken_total, taken_magic, taken_phys, taken_true,
				heal_total, units_healed, shield_teammates, cc_time_sec,
				vision_score, wards_placed, wards_killed, detector_wards,
				gold_earned, gold_spent, minions_killed, jungle_cs,
				item0, item1, item2, item3, item4, item5, item6,
				primary_style_id, sub_style_id,
				perk0, perk1, perk2, perk3, perk4, perk5,
				stat_perk0, stat_perk1, stat_perk2,
				win
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
				?, ?)`,
			participantArgs(p)...)
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		res.Participants += n
	}

	if err := tx.Commit(); err != nil {
		return res, &PersistError{GameID: b.Match.GameID, Err: err}
	}

	return res, nil
}

// participantArgs flattens a Participant into insert order. Shared with the
// Postgres backend, which uses the same column order. A zero teamId marks a
// slot with no team; it is stored as NULL so the composite team foreign key
// does not bind to a nonexistent row.
func participantArgs(p Participant) []any {
	var teamID any
	if p.TeamID != 0 {
		teamID = p.TeamID
	}
	return []any{
		p.GameID, p.ParticipantID, p.PUUID, teamID, p.ChampionID,
		p.Spell1ID, p.Spell2ID, p.Lane, p.Role, p.ChampLevel,
		p.Kills, p.Deaths, p.Assists, p.DmgTotal, p.DmgMagic, p.DmgPhys, p.DmgTrue,
		p.TakenTotal, p.TakenMagic, p.TakenPhys, p.TakenTrue,
		p.HealTotal, p.UnitsHealed, p.ShieldTeammates, p.CCTimeSec,
		p.VisionScore, p.WardsPlaced, p.WardsKilled, p.DetectorWards,
		p.GoldEarned, p.GoldSpent, p.MinionsKilled, p.JungleCS,
		p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6,
		p.PrimaryStyleID, p.SubStyleID,
		p.Perk0, p.Perk1, p.Perk2, p.Perk3, p.Perk4, p.Perk5,
		p.StatPerk0, p.StatPerk1, p.StatPerk2,
		p.Win,
	}
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		// A uniqueness violation that slips past OR IGNORE means two writers
		// raced on the same key; the row exists, which is all we wanted.
		if isUniqueViolation(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func wrapPersist(gameID int64, err error) error {
	return &PersistError{GameID: gameID, Err: err}
}

// Status returns row counts per table.
func (s *SQLiteStore) Status(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

// Clear deletes all rows, children before parents so foreign keys hold.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+Tables[i]); err != nil {
			return fmt.Errorf("failed to clear %s: %w", Tables[i], err)
		}
	}
	return nil
}

// Rows returns the header and stringified rows of one table for export.
func (s *SQLiteStore) Rows(ctx context.Context, table string) ([]string, [][]string, error) {
	if !validTable(table) {
		return nil, nil, fmt.Errorf("unknown table: %s", table)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = v.String
		}
		out = append(out, record)
	}

	return cols, out, rows.Err()
}

func validTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
