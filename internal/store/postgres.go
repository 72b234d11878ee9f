package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		game_id BIGINT PRIMARY KEY,
		game_creation TIMESTAMPTZ,
		duration_sec INT,
		queue_id INT,
		map_id INT,
		game_mode TEXT,
		game_type TEXT,
		game_version TEXT,
		is_fallback BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		puuid TEXT PRIMARY KEY,
		summoner_name TEXT,
		tag_line TEXT,
		platform_id TEXT,
		profile_icon INT
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		game_id BIGINT NOT NULL REFERENCES matches(game_id),
		team_id SMALLINT NOT NULL,
		win BOOLEAN,
		first_blood BOOLEAN,
		first_tower BOOLEAN,
		first_dragon BOOLEAN,
		first_baron BOOLEAN,
		first_inhibitor BOOLEAN,
		first_rift_herald BOOLEAN,
		tower_kills SMALLINT,
		inhibitor_kills SMALLINT,
		dragon_kills SMALLINT,
		baron_kills SMALLINT,
		rift_herald_kills SMALLINT,
		bans JSONB,
		PRIMARY KEY (game_id, team_id)
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		game_id BIGINT NOT NULL REFERENCES matches(game_id),
		participant_id SMALLINT NOT NULL,
		puuid TEXT,
		team_id SMALLINT,
		champion_id SMALLINT,
		spell1_id SMALLINT,
		spell2_id SMALLINT,
		lane TEXT,
		role TEXT,
		champ_level SMALLINT,
		kills SMALLINT,
		deaths SMALLINT,
		assists SMALLINT,
		dmg_total INT,
		dmg_magic INT,
		dmg_phys INT,
		dmg_true INT,
		taken_total INT,
		taken_magic INT,
		taken_phys INT,
		taken_true INT,
		heal_total INT,
		units_healed SMALLINT,
		shield_teammates INT,
		cc_time_sec INT,
		vision_score SMALLINT,
		wards_placed SMALLINT,
		wards_killed SMALLINT,
		detector_wards SMALLINT,
		gold_earned INT,
		gold_spent INT,
		minions_killed SMALLINT,
		jungle_cs SMALLINT,
		item0 INT, item1 INT, item2 INT,
		item3 INT, item4 INT, item5 INT, item6 INT,
		primary_style_id INT,
		sub_style_id INT,
		perk0 INT, perk1 INT, perk2 INT,
		perk3 INT, perk4 INT, perk5 INT,
		stat_perk0 INT, stat_perk1 INT, stat_perk2 INT,
		win BOOLEAN,
		PRIMARY KEY (game_id, participant_id),
		FOREIGN KEY (game_id, team_id) REFERENCES teams(game_id, team_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_puuid ON participants(puuid)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_queue ON matches(queue_id)`,
}

// PostgresStore is the shared-database backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool against url and initializes the
// schema.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, q := range pgSchema {
		if _, err := pool.Exec(ctx, q); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Pool returns the underlying connection pool for custom queries.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Persist writes one match and its derived rows in a single transaction
// with ON CONFLICT DO NOTHING on every insert.
func (s *PostgresStore) Persist(ctx context.Context, b MatchBundle) (PersistResult, error) {
	var res PersistResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, &PersistError{GameID: b.Match.GameID, Err: err}
	}
	defer tx.Rollback(ctx)

	m := b.Match
	n, err := pgExecCount(ctx, tx, `
		INSERT INTO matches (
			game_id, game_creation, duration_sec, queue_id, map_id,
			game_mode, game_type, game_version, is_fallback
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id) DO NOTHING`,
		m.GameID, m.GameCreation, m.DurationSec, m.QueueID, m.MapID,
		m.GameMode, m.GameType, m.GameVersion, m.IsFallback)
	if err != nil {
		return res, wrapPersist(b.Match.GameID, err)
	}
	res.Matches += n

	for _, p := range b.Players {
		n, err := pgExecCount(ctx, tx, `
			INSERT INTO players (puuid, summoner_name, tag_line, platform_id, profile_icon)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (puuid) DO NOTHING`,
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
		n, err := pgExecCount(ctx, tx, `
			INSERT INTO teams (
				game_id, team_id, win, first_blood, first_tower, first_dragon, first_baron,
				first_inhibitor, first_rift_herald,
				tower_kills, inhibitor_kills, dragon_kills, baron_kills, rift_herald_kills, bans
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (game_id, team_id) DO NOTHING`,
			t.GameID, t.TeamID, t.Win, t.FirstBlood, t.FirstTower, t.FirstDragon, t.FirstBaron,
			t.FirstInhibitor, t.FirstRiftHerald,
			t.TowerKills, t.InhibitorKills, t.DragonKills, t.BaronKills, t.RiftHeraldKills, bans)
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		res.Teams += n
	}

	for _, p := range b.Participants {
		n, err := pgExecCount(ctx, tx, `
			INSERT INTO participants (
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
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
				$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
				$41, $42, $43, $44, $45, $46, $47, $48, $49, $50,
				$51, $52)
			ON CONFLICT (game_id, participant_id) DO NOTHING`,
			participantArgs(p)...)
		if err != nil {
			return res, wrapPersist(b.Match.GameID, err)
		}
		res.Participants += n
	}

	if err := tx.Commit(ctx); err != nil {
		return res, &PersistError{GameID: b.Match.GameID, Err: err}
	}

	return res, nil
}

func pgExecCount(ctx context.Context, tx pgx.Tx, query string, args ...any) (int, error) {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		// 23505 despite DO NOTHING means a same-key race; the row exists.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, nil
		}
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Status returns row counts per table.
func (s *PostgresStore) Status(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var count int
		if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

// Clear deletes all rows, children before parents so foreign keys hold.
func (s *PostgresStore) Clear(ctx context.Context) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+Tables[i]); err != nil {
			return fmt.Errorf("failed to clear %s: %w", Tables[i], err)
		}
	}
	return nil
}

// Rows returns the header and stringified rows of one table for export.
func (s *PostgresStore) Rows(ctx context.Context, table string) ([]string, [][]string, error) {
	if !validTable(table) {
		return nil, nil, fmt.Errorf("unknown table: %s", table)
	}

	rows, err := s.pool.Query(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			record[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, record)
	}

	return cols, out, rows.Err()
}
