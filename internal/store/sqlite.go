package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/mischief-wheel/internal/domain"
	"github.com/ashureev/mischief-wheel/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	seedMaxRetries = 3
	seedBaseDelay  = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS challenges (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL UNIQUE,
		text TEXT NOT NULL,
		difficulty TEXT NOT NULL CHECK (difficulty IN ('easy', 'medium', 'hard')),
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SeedChallenges replaces the catalog in a single transaction.
// Retries with exponential backoff when the database is busy.
func (s *SQLiteStore) SeedChallenges(ctx context.Context, challenges []domain.Challenge) error {
	err := shared.RetryOnConflict(ctx, "seed challenges", seedMaxRetries, seedBaseDelay, func() error {
		return s.seedOnce(ctx, challenges)
	})
	if err != nil {
		return fmt.Errorf("seed challenges: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedOnce(ctx context.Context, challenges []domain.Challenge) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("failed to roll back seed transaction", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM challenges`); err != nil {
		return fmt.Errorf("clear challenges: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO challenges (id, position, text, difficulty, updated_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			slog.Warn("failed to close insert statement", "error", closeErr)
		}
	}()

	now := time.Now().Unix()
	for pos, c := range challenges {
		if _, err = stmt.ExecContext(ctx, c.ID, pos, c.Text, string(c.Difficulty), now); err != nil {
			return fmt.Errorf("insert challenge %d: %w", c.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

// ListChallenges returns every challenge ordered by wheel position.
func (s *SQLiteStore) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, difficulty FROM challenges ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close challenge rows", "error", closeErr)
		}
	}()

	var challenges []domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		var difficulty string
		if err := rows.Scan(&c.ID, &c.Text, &difficulty); err != nil {
			return nil, fmt.Errorf("scan challenge row: %w", err)
		}
		c.Difficulty = domain.Difficulty(difficulty)
		challenges = append(challenges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}

	return challenges, nil
}

// CountChallenges returns the number of challenges in the catalog.
func (s *SQLiteStore) CountChallenges(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count challenges: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
