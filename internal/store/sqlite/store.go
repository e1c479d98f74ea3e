// Package sqlite stores statistics records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// Store keeps every repository's record in a single table, one row per
// (repository, event type).
type Store struct {
	db *sql.DB
}

const createStatisticsTable = `
CREATE TABLE IF NOT EXISTS statistics (
	owner TEXT NOT NULL,
	name TEXT NOT NULL,
	event_type TEXT NOT NULL,
	average_time REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (owner, name, event_type)
);
`

const upsertStatistic = `
INSERT INTO statistics (owner, name, event_type, average_time, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (owner, name, event_type)
DO UPDATE SET average_time = excluded.average_time, updated_at = excluded.updated_at
`

// New opens (and migrates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open statistics db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createStatisticsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate statistics db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, repo domain.RepositoryRef) (domain.StatisticsRecord, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, average_time FROM statistics WHERE owner = ? AND name = ?`,
		repo.Owner, repo.Name,
	)
	if err != nil {
		return nil, false, fmt.Errorf("statistics load: %w", err)
	}
	defer rows.Close()

	record := domain.StatisticsRecord{}
	for rows.Next() {
		var eventType string
		var avg float64
		if err := rows.Scan(&eventType, &avg); err != nil {
			return nil, false, fmt.Errorf("statistics scan: %w", err)
		}
		record[eventType] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("statistics load: %w", err)
	}
	if len(record) == 0 {
		return nil, false, nil
	}
	return record, true, nil
}

func (s *Store) Save(ctx context.Context, repo domain.RepositoryRef, record domain.StatisticsRecord) error {
	record = record.NonZero()
	if len(record) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statistics save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, eventType := range record.EventTypes() {
		if _, err := tx.ExecContext(ctx, upsertStatistic, repo.Owner, repo.Name, eventType, record[eventType], now); err != nil {
			return fmt.Errorf("statistics save: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statistics save: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, repo domain.RepositoryRef) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM statistics WHERE owner = ? AND name = ?`, repo.Owner, repo.Name)
	if err != nil {
		return fmt.Errorf("statistics delete: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
