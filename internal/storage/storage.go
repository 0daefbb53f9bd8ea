// Package storage keeps an index of completed design sessions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"interiordesigner/internal/design"
)

// ErrNotFound indicates that a session could not be located in the backing store.
var ErrNotFound = errors.New("session not found")

// ErrDuplicate indicates that a session id was saved twice.
var ErrDuplicate = errors.New("session already recorded")

// listLimit caps how many records a listing returns.
const listLimit = 50

// Record is the summary row kept for each completed session.
type Record struct {
	ID              string        `json:"session_id"`
	CreatedAt       time.Time     `json:"created_at"`
	Model           string        `json:"model"`
	Format          design.Format `json:"output_format"`
	Style           string        `json:"style,omitempty"`
	Budget          string        `json:"budget,omitempty"`
	RoomTypes       []string      `json:"room_types"`
	Recommendations int           `json:"recommendations"`
	GeneratedImages int           `json:"generated_images"`
	Warnings        int           `json:"warnings"`
	ReportPath      string        `json:"report_path"`
}

// RecordFor summarizes a session.
func RecordFor(s design.Session) Record {
	rooms := make([]string, 0, len(s.Analyses))
	for _, a := range s.Analyses {
		rooms = append(rooms, a.RoomType)
	}
	return Record{
		ID:              s.ID,
		CreatedAt:       s.CreatedAt,
		Model:           s.Model,
		Format:          s.Format,
		Style:           s.Preferences.Style,
		Budget:          s.Preferences.Budget,
		RoomTypes:       rooms,
		Recommendations: len(s.Recommendations),
		GeneratedImages: len(s.GeneratedImages),
		Warnings:        len(s.Warnings),
		ReportPath:      s.ReportPath,
	}
}

// Store defines the persistence behaviors the application relies on.
// Sessions are immutable once saved, so there is no update or delete.
type Store interface {
	SaveSession(ctx context.Context, session design.Session) error
	ListSessions(ctx context.Context) ([]Record, error)
	GetSession(ctx context.Context, id string) (design.Session, error)
	Close()
}

// NewStore selects a backing store based on whether a database URL is provided.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewInMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS design_sessions (
        id TEXT PRIMARY KEY,
        created_at TIMESTAMPTZ NOT NULL,
        model TEXT NOT NULL DEFAULT '',
        output_format TEXT NOT NULL,
        style TEXT,
        budget TEXT,
        room_types TEXT[] NOT NULL DEFAULT '{}',
        recommendations INTEGER NOT NULL DEFAULT 0,
        generated_images INTEGER NOT NULL DEFAULT 0,
        warnings INTEGER NOT NULL DEFAULT 0,
        report_path TEXT NOT NULL,
        payload JSONB NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("storage: create design_sessions table: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS design_sessions_created_at_idx ON design_sessions (created_at DESC)`); err != nil {
		return fmt.Errorf("storage: create design_sessions index: %w", err)
	}
	return nil
}
