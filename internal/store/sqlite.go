package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements DB using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			family TEXT NOT NULL,
			wager TEXT NOT NULL,
			max_payout TEXT NOT NULL,
			nonce TEXT NOT NULL,
			signature TEXT NOT NULL DEFAULT '',
			params_json TEXT NOT NULL DEFAULT '{}',
			offer_json TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'offered',
			reveal_json TEXT,
			result_index INTEGER,
			multiplier REAL,
			payout TEXT,
			seed TEXT,
			artifact_json TEXT,
			engine_version TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			settled_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_created_at ON rounds(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_game_created ON rounds(game, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRound inserts an offered round.
func (s *SQLiteDB) SaveRound(ctx context.Context, round *Round) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}
	if round.Status == "" {
		round.Status = StatusOffered
	}
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO rounds (
		id, game, family, wager, max_payout, nonce, signature,
		params_json, offer_json, status, engine_version, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		round.ID, round.Game, round.Family, round.Wager, round.MaxPayout, round.Nonce,
		round.Signature, round.ParamsJSON, round.OfferJSON, round.Status,
		round.EngineVersion, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}
	return nil
}

// SettleRound records the settlement and reconstruction of an offered
// round. A round settles once.
func (s *SQLiteDB) SettleRound(ctx context.Context, round *Round) error {
	if round.SettledAt == nil {
		now := time.Now().UTC()
		round.SettledAt = &now
	}

	query := `UPDATE rounds SET
		status = ?, reveal_json = ?, result_index = ?, multiplier = ?, payout = ?,
		seed = ?, artifact_json = ?, signature = ?, settled_at = ?
		WHERE id = ? AND status = ?`

	res, err := s.db.ExecContext(ctx, query,
		StatusSettled, round.RevealJSON, round.ResultIndex, round.Multiplier, round.Payout,
		round.Seed, round.ArtifactJSON, round.Signature, *round.SettledAt,
		round.ID, StatusOffered,
	)
	if err != nil {
		return fmt.Errorf("failed to settle round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to settle round: %w", err)
	}
	if n == 0 {
		if _, err := s.GetRound(ctx, round.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrAlreadySettled, round.ID)
	}
	round.Status = StatusSettled
	return nil
}

const roundColumns = `id, game, family, wager, max_payout, nonce, signature,
	params_json, offer_json, status, reveal_json, result_index, multiplier, payout,
	seed, artifact_json, engine_version, created_at, settled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*Round, error) {
	var round Round
	var revealJSON, payout, seed, artifactJSON sql.NullString
	var resultIndex sql.NullInt64
	var multiplier sql.NullFloat64
	var settledAt sql.NullTime

	err := row.Scan(
		&round.ID, &round.Game, &round.Family, &round.Wager, &round.MaxPayout, &round.Nonce,
		&round.Signature, &round.ParamsJSON, &round.OfferJSON, &round.Status,
		&revealJSON, &resultIndex, &multiplier, &payout,
		&seed, &artifactJSON, &round.EngineVersion, &round.CreatedAt, &settledAt,
	)
	if err != nil {
		return nil, err
	}

	// Handle nullable fields
	round.RevealJSON = revealJSON.String
	round.Payout = payout.String
	round.Seed = seed.String
	round.ArtifactJSON = artifactJSON.String
	if resultIndex.Valid {
		idx := int(resultIndex.Int64)
		round.ResultIndex = &idx
	}
	if multiplier.Valid {
		round.Multiplier = &multiplier.Float64
	}
	if settledAt.Valid {
		round.SettledAt = &settledAt.Time
	}
	return &round, nil
}

// GetRound retrieves a round by ID
func (s *SQLiteDB) GetRound(ctx context.Context, id string) (*Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, id)
	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// ListRounds retrieves rounds with pagination and filtering, newest first
func (s *SQLiteDB) ListRounds(ctx context.Context, query RoundsQuery) (*RoundsList, error) {
	query = normalizeQuery(query)

	var where []string
	args := []any{}
	if query.Game != "" {
		where = append(where, "game = ?")
		args = append(args, query.Game)
	}
	if query.Status != "" {
		where = append(where, "status = ?")
		args = append(args, query.Status)
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + roundColumns + ` FROM rounds ` + whereClause + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	rounds := []Round{}
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, *round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return &RoundsList{
		Rounds:     rounds,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}
