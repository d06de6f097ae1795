package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists visit history in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Schema for the visit history table. Applied by NewPostgresStore so a
// fresh database works without a separate migration step.
const visitSchema = `
CREATE TABLE IF NOT EXISTS visited_places (
    visit_id    UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    place_id    TEXT,
    place_name  TEXT NOT NULL,
    visited_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS visited_places_user_idx ON visited_places (user_id, visited_at DESC);
`

// NewPostgresStore connects to Postgres and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, visitSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring visit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Visits returns a user's visit history, most recent first.
func (s *PostgresStore) Visits(ctx context.Context, userID string) ([]Visit, error) {
	const query = `SELECT place_id, place_name, visited_at
        FROM visited_places WHERE user_id = $1 ORDER BY visited_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var placeID *string
		if err := rows.Scan(&placeID, &v.PlaceName, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		if placeID != nil {
			v.PlaceID = *placeID
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading visits: %w", err)
	}
	return visits, nil
}

// RecordVisit stores one visit.
func (s *PostgresStore) RecordVisit(ctx context.Context, userID string, v Visit) error {
	const insert = `INSERT INTO visited_places (visit_id, user_id, place_id, place_name, visited_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	visitedAt := v.VisitedAt
	if visitedAt.IsZero() {
		visitedAt = time.Now()
	}

	if _, err := s.pool.Exec(ctx, insert, uuid.New(), userID, v.PlaceID, v.PlaceName, visitedAt); err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
