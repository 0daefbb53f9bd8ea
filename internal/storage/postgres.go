package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"interiordesigner/internal/design"
)

// PostgresStore persists session records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// SaveSession inserts the session summary and its full JSON payload.
func (s *PostgresStore) SaveSession(ctx context.Context, session design.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("storage: encode session: %w", err)
	}
	rec := RecordFor(session)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO design_sessions (id, created_at, model, output_format, style, budget, room_types, recommendations, generated_images, warnings, report_path, payload)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.CreatedAt, rec.Model, string(rec.Format), rec.Style, rec.Budget, rec.RoomTypes,
		rec.Recommendations, rec.GeneratedImages, rec.Warnings, rec.ReportPath, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("storage: insert session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent session records.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, model, output_format, COALESCE(style, ''), COALESCE(budget, ''), room_types, recommendations, generated_images, warnings, report_path
         FROM design_sessions ORDER BY created_at DESC LIMIT $1`, listLimit)
	if err != nil {
		return nil, fmt.Errorf("storage: query sessions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var format string
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Model, &format, &rec.Style, &rec.Budget, &rec.RoomTypes,
			&rec.Recommendations, &rec.GeneratedImages, &rec.Warnings, &rec.ReportPath); err != nil {
			return nil, fmt.Errorf("storage: scan session: %w", err)
		}
		rec.Format = design.Format(format)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate sessions: %w", err)
	}
	return records, nil
}

// GetSession loads the full session payload by ID.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (design.Session, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM design_sessions WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return design.Session{}, ErrNotFound
	}
	if err != nil {
		return design.Session{}, fmt.Errorf("storage: get session: %w", err)
	}

	var session design.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return design.Session{}, fmt.Errorf("storage: decode session: %w", err)
	}
	return session, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
