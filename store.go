package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNameTaken      = errors.New("name already taken")
	ErrBadCredentials = errors.New("invalid name or password")
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// RunStore keeps finished runs, pilot accounts, server settings and the event journal
type RunStore interface {
	SaveRun(r RunRecord) (int64, error)
	TopRuns(limit int) ([]LeaderboardEntry, error)
	PilotBest(pilotID int64) (int, error)
	CreatePilot(name, passHash string) (int64, error)
	PilotByName(name string) (*PilotRow, error)
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	RecordEvents(events []JournalEvent) error
	Close() error
}

// RunRecord is one finished run
type RunRecord struct {
	ID        int64
	Pilot     string
	PilotID   int64 // 0 for guests
	Score     int
	Seconds   float64
	Encircled int
	Loops     int
	Cause     string
	EndedAt   time.Time
}

// PilotRow is a registered pilot account
type PilotRow struct {
	ID        int64
	Name      string
	PassHash  string
	CreatedAt time.Time
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	Pilot     string  `json:"pilot"`
	Score     int     `json:"score"`
	Seconds   float64 `json:"seconds"`
	Encircled int     `json:"encircled"`
	EndedAt   int64   `json:"ended_at"` // unix millis
}

// JournalEvent is one gameplay event waiting to be written
type JournalEvent struct {
	Type    string
	ArenaID string
	PilotID int64
	Data    string // JSON
	At      time.Time
}

// sqlStore implements RunStore on database/sql. Queries are written with ? placeholders
// and rewritten to $n for drivers that need it.
type sqlStore struct {
	conn     *sql.DB
	dollar   bool
	isUnique func(error) bool
}

// q adapts placeholders to the driver
func (s *sqlStore) q(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *sqlStore) Close() error {
	return s.conn.Close()
}

func (s *sqlStore) SaveRun(r RunRecord) (int64, error) {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}
	var id int64
	err := s.conn.QueryRow(s.q(
		`INSERT INTO runs (pilot_name, pilot_id, score, seconds, encircled, loops, cause, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		r.Pilot, r.PilotID, r.Score, r.Seconds, r.Encircled, r.Loops, r.Cause, r.EndedAt.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// TopRuns returns the best runs, highest score first; ties go to the earlier run
func (s *sqlStore) TopRuns(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	rows, err := s.conn.Query(s.q(
		`SELECT pilot_name, score, seconds, encircled, ended_at FROM runs
		 ORDER BY score DESC, ended_at ASC, id ASC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("top runs: %w", err)
	}
	defer rows.Close()

	result := make([]LeaderboardEntry, 0, limit)
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Pilot, &e.Score, &e.Seconds, &e.Encircled, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("top runs: %w", err)
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *sqlStore) PilotBest(pilotID int64) (int, error) {
	var best int
	err := s.conn.QueryRow(s.q(`SELECT COALESCE(MAX(score), 0) FROM runs WHERE pilot_id = ?`), pilotID).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("pilot best: %w", err)
	}
	return best, nil
}

func (s *sqlStore) CreatePilot(name, passHash string) (int64, error) {
	var id int64
	err := s.conn.QueryRow(s.q(
		`INSERT INTO pilots (name, pass_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		name, passHash, time.Now().UnixMilli(),
	).Scan(&id)
	if err != nil {
		if s.isUnique(err) {
			return 0, ErrNameTaken
		}
		return 0, fmt.Errorf("create pilot: %w", err)
	}
	return id, nil
}

func (s *sqlStore) PilotByName(name string) (*PilotRow, error) {
	p := &PilotRow{}
	var created int64
	err := s.conn.QueryRow(s.q(`SELECT id, name, pass_hash, created_at FROM pilots WHERE name = ?`), name).
		Scan(&p.ID, &p.Name, &p.PassHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pilot by name: %w", err)
	}
	p.CreatedAt = time.UnixMilli(created)
	return p, nil
}

func (s *sqlStore) GetSetting(key string) (string, error) {
	var v string
	err := s.conn.QueryRow(s.q(`SELECT value FROM settings WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, nil
}

func (s *sqlStore) SetSetting(key, value string) error {
	_, err := s.conn.Exec(s.q(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// RecordEvents writes a batch in one transaction
func (s *sqlStore) RecordEvents(events []JournalEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("record events: %w", err)
	}
	stmt, err := tx.Prepare(s.q(
		`INSERT INTO events (type, arena_id, pilot_id, data, created_at) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("record events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.Type, e.ArenaID, e.PilotID, e.Data, e.At.UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record events: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record events: %w", err)
	}
	return nil
}

// countEvents is used by tests and the stats line in logs
func (s *sqlStore) countEvents(typ string) (int, error) {
	var n int
	err := s.conn.QueryRow(s.q(`SELECT COUNT(*) FROM events WHERE type = ?`), typ).Scan(&n)
	return n, err
}

// OpenStore opens the backend named by driver ("sqlite" or "postgres")
func OpenStore(driver, dsn string) (RunStore, error) {
	var (
		s   *sqlStore
		err error
	)
	switch driver {
	case "", "sqlite":
		s, err = OpenSQLite(dsn)
	case "postgres":
		s, err = OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
