package participation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateRecord persists a new participation record
func (s *PostgresStore) CreateRecord(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO participation_records (id, space_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	rec.ID = uuid.New()
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.SpaceID,
		rec.UserID,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create participation record: %w", err)
	}

	return nil
}

// Supersede deletes all records for the (user, space) pair and inserts
// the fresh one in a single transaction
func (s *PostgresStore) Supersede(ctx context.Context, rec *Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM participation_records
		WHERE user_id = $1 AND space_id = $2
	`
	if _, err := tx.Exec(ctx, deleteQuery, rec.UserID, rec.SpaceID); err != nil {
		return fmt.Errorf("failed to discard prior records: %w", err)
	}

	rec.ID = uuid.New()
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	insertQuery := `
		INSERT INTO participation_records (id, space_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, insertQuery,
		rec.ID,
		rec.SpaceID,
		rec.UserID,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert superseding record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit supersede: %w", err)
	}

	return nil
}

// GetRecord retrieves a participation record by ID
func (s *PostgresStore) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `
		SELECT id, space_id, user_id, status, created_at, updated_at
		FROM participation_records
		WHERE id = $1
	`

	rec := &Record{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.SpaceID,
		&rec.UserID,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participation record: %w", err)
	}

	return rec, nil
}

// UpdateStatus writes the new status unconditionally. Terminal writes
// are idempotent: re-applying the same status is not an error.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `
		UPDATE participation_records
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update participation status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListBySpace returns records for a space filtered by status, joined
// with the requester's username for lobby display
func (s *PostgresStore) ListBySpace(ctx context.Context, spaceID uuid.UUID, statuses ...Status) ([]*Candidate, error) {
	query := `
		SELECT p.id, p.space_id, p.user_id, p.status, p.created_at, p.updated_at, u.username
		FROM participation_records p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.space_id = $1 AND p.status = ANY($2)
		ORDER BY p.created_at ASC
	`

	statusList := make([]string, len(statuses))
	for i, st := range statuses {
		statusList[i] = string(st)
	}

	rows, err := s.pool.Query(ctx, query, spaceID, statusList)
	if err != nil {
		return nil, fmt.Errorf("failed to list participation records: %w", err)
	}
	defer rows.Close()

	candidates := []*Candidate{}
	for rows.Next() {
		c := &Candidate{}
		err := rows.Scan(
			&c.ID,
			&c.SpaceID,
			&c.UserID,
			&c.Status,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation record: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation records: %w", err)
	}

	return candidates, nil
}
