// Package storage provides SQLite-based persistence for finished combat
// actions. Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// Store manages the SQLite database connection for action results.
type Store struct {
	db *sql.DB
}

// ActionRecord represents one finished action.
type ActionRecord struct {
	ID          int64
	RunID       string
	MoveID      string
	Outcome     string // "success", "failed", "miss" or "none"
	Branch      string // Branch the action ended in
	Rank        skillcheck.Rank
	Successes   int
	Damage      int
	Multiplier  float64
	Ticks       int64
	Active      time.Duration
	Interrupted string // Empty if the action ran uninterrupted
	Seed        int64
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			move_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			branch TEXT NOT NULL,
			skill_rank INTEGER NOT NULL DEFAULT 0,
			successes INTEGER NOT NULL DEFAULT 0,
			damage INTEGER NOT NULL DEFAULT 0,
			multiplier REAL NOT NULL DEFAULT 1,
			ticks INTEGER NOT NULL DEFAULT 0,
			active_ms INTEGER NOT NULL DEFAULT 0,
			interrupted TEXT,
			seed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_actions_move_id ON actions(move_id);
		CREATE INDEX IF NOT EXISTS idx_actions_best ON actions(move_id, skill_rank DESC, damage DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveAction records a finished action.
// Returns the ID of the inserted record.
func (s *Store) SaveAction(r ActionRecord) (int64, error) {
	var interrupted sql.NullString
	if r.Interrupted != "" {
		interrupted = sql.NullString{String: r.Interrupted, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO actions
		 (run_id, move_id, outcome, branch, skill_rank, successes, damage, multiplier, ticks, active_ms, interrupted, seed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.MoveID,
		r.Outcome,
		r.Branch,
		int(r.Rank),
		r.Successes,
		r.Damage,
		r.Multiplier,
		r.Ticks,
		r.Active.Milliseconds(),
		interrupted,
		r.Seed,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// SaveResult implements moves.ResultSaver.
func (s *Store) SaveResult(data moves.ResultData) error {
	_, err := s.SaveAction(ActionRecord{
		RunID:       data.RunID,
		MoveID:      data.MoveID,
		Outcome:     data.Outcome,
		Branch:      data.Branch,
		Rank:        data.Rank,
		Successes:   data.Successes,
		Damage:      data.Damage,
		Multiplier:  data.Multiplier,
		Ticks:       int64(data.Ticks),
		Active:      data.Active,
		Interrupted: data.Interrupted,
		Seed:        data.Seed,
	})
	return err
}

// Ensure Store implements ResultSaver
var _ moves.ResultSaver = (*Store)(nil)

const actionColumns = `id, run_id, move_id, outcome, branch, skill_rank, successes, damage,
		        multiplier, ticks, active_ms, interrupted, seed, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(row scanner) (ActionRecord, error) {
	var (
		r           ActionRecord
		rank        int
		activeMS    int64
		interrupted sql.NullString
		createdAt   any
	)
	err := row.Scan(
		&r.ID,
		&r.RunID,
		&r.MoveID,
		&r.Outcome,
		&r.Branch,
		&rank,
		&r.Successes,
		&r.Damage,
		&r.Multiplier,
		&r.Ticks,
		&activeMS,
		&interrupted,
		&r.Seed,
		&createdAt,
	)
	if err != nil {
		return r, err
	}
	r.Rank = skillcheck.Rank(rank)
	r.Active = time.Duration(activeMS) * time.Millisecond
	if interrupted.Valid {
		r.Interrupted = interrupted.String
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func (s *Store) queryActions(query string, args ...any) ([]ActionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query actions: %w", err)
	}
	defer rows.Close()

	var records []ActionRecord
	for rows.Next() {
		r, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// ActionByRunID retrieves an action by its run ID. Returns nil if not found.
func (s *Store) ActionByRunID(runID string) (*ActionRecord, error) {
	row := s.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE run_id = ?`, runID)
	r, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query action: %w", err)
	}
	return &r, nil
}

// BestActions retrieves the top N actions for the given move.
// Results are ordered by rank, then damage, descending.
func (s *Store) BestActions(moveID string, limit int) ([]ActionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryActions(
		`SELECT `+actionColumns+`
		 FROM actions
		 WHERE move_id = ?
		 ORDER BY skill_rank DESC, damage DESC, id ASC
		 LIMIT ?`,
		moveID, limit,
	)
}

// RecentActions retrieves the most recent actions. An empty moveID
// matches every move.
func (s *Store) RecentActions(moveID string, limit int) ([]ActionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryActions(
		`SELECT `+actionColumns+`
		 FROM actions
		 WHERE ? = '' OR move_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		moveID, moveID, limit,
	)
}

// ClearActions deletes all actions for the given move.
func (s *Store) ClearActions(moveID string) error {
	_, err := s.db.Exec("DELETE FROM actions WHERE move_id = ?", moveID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear actions: %w", err)
	}
	return nil
}

// MoveStats contains aggregated statistics for a move.
type MoveStats struct {
	MoveID      string
	Count       int
	Successes   int // Actions that ended through the success branch
	Misses      int
	BestRank    skillcheck.Rank
	AvgDamage   float64
	TotalDamage int64
	LastUsed    time.Time
}

// SuccessRate returns the share of successful actions.
func (m MoveStats) SuccessRate() float64 {
	if m.Count == 0 {
		return 0
	}
	return float64(m.Successes) / float64(m.Count)
}

const statsColumns = `COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN outcome = 'miss' THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(skill_rank), 0), COALESCE(AVG(damage), 0), COALESCE(SUM(damage), 0)`

// GetMoveStats retrieves aggregated statistics for a specific move.
func (s *Store) GetMoveStats(moveID string) (*MoveStats, error) {
	stats := &MoveStats{MoveID: moveID}

	var rank int
	err := s.db.QueryRow(
		`SELECT `+statsColumns+` FROM actions WHERE move_id = ?`,
		moveID,
	).Scan(&stats.Count, &stats.Successes, &stats.Misses, &rank, &stats.AvgDamage, &stats.TotalDamage)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get move stats: %w", err)
	}
	stats.BestRank = skillcheck.Rank(rank)

	var lastUsed any
	err = s.db.QueryRow(
		`SELECT created_at FROM actions WHERE move_id = ? ORDER BY id DESC LIMIT 1`,
		moveID,
	).Scan(&lastUsed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last used: %w", err)
	}
	if err == nil {
		stats.LastUsed = parseTime(lastUsed)
	}

	return stats, nil
}

// GetAllMoveStats retrieves statistics for every move that has been used.
func (s *Store) GetAllMoveStats() (map[string]*MoveStats, error) {
	rows, err := s.db.Query(
		`SELECT move_id, ` + statsColumns + `, MAX(created_at)
		 FROM actions
		 GROUP BY move_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all move stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*MoveStats)
	for rows.Next() {
		var m MoveStats
		var rank int
		var lastUsed any
		if err := rows.Scan(&m.MoveID, &m.Count, &m.Successes, &m.Misses, &rank, &m.AvgDamage, &m.TotalDamage, &lastUsed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		m.BestRank = skillcheck.Rank(rank)
		m.LastUsed = parseTime(lastUsed)
		stats[m.MoveID] = &m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}
