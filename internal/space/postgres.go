package space

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alekhino/spacegate/internal/storage/postgres"
)

type PostgresStore struct {
	db postgres.DBTX
}

func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	return &PostgresStore{db}
}

const spaceColumns = `id, owner_id, name, notice, icon_key, private_yn, lobby_yn, password, is_personal, use_yn, created_at, updated_at`

// CreateSpace creates a new space
func (s *PostgresStore) CreateSpace(ctx context.Context, sp *Space) error {
	query := `
		INSERT INTO spaces (` + spaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	sp.ID = uuid.New()
	now := time.Now()
	sp.CreatedAt = now
	sp.UpdatedAt = now
	sp.UseYN = true

	_, err := s.db.Exec(ctx, query,
		sp.ID,
		sp.OwnerID,
		sp.Name,
		sp.Notice,
		sp.IconKey,
		sp.PrivateYN,
		sp.LobbyYN,
		sp.Password,
		sp.IsPersonal,
		sp.UseYN,
		sp.CreatedAt,
		sp.UpdatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create space: %w", err)
	}

	return nil
}

// GetSpaceByID retrieves a live space by its ID
func (s *PostgresStore) GetSpaceByID(ctx context.Context, spaceID uuid.UUID) (*Space, error) {
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE id = $1 AND use_yn
	`

	sp := &Space{}
	err := s.db.QueryRow(ctx, query, spaceID).Scan(
		&sp.ID,
		&sp.OwnerID,
		&sp.Name,
		&sp.Notice,
		&sp.IconKey,
		&sp.PrivateYN,
		&sp.LobbyYN,
		&sp.Password,
		&sp.IsPersonal,
		&sp.UseYN,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}

	return sp, nil
}

// GetSpacesByOwner lists the live spaces owned by a user
func (s *PostgresStore) GetSpacesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Space, error) {
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE owner_id = $1 AND use_yn
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []*Space{}
	for rows.Next() {
		sp := &Space{}
		err := rows.Scan(
			&sp.ID,
			&sp.OwnerID,
			&sp.Name,
			&sp.Notice,
			&sp.IconKey,
			&sp.PrivateYN,
			&sp.LobbyYN,
			&sp.Password,
			&sp.IsPersonal,
			&sp.UseYN,
			&sp.CreatedAt,
			&sp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, sp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spaces: %w", err)
	}

	return spaces, nil
}

// UpdateSpace persists owner-side mutations (name, notice, flags, password)
func (s *PostgresStore) UpdateSpace(ctx context.Context, sp *Space) error {
	query := `
		UPDATE spaces
		SET name = $2, notice = $3, private_yn = $4, lobby_yn = $5, password = $6, updated_at = $7
		WHERE id = $1 AND use_yn
	`

	sp.UpdatedAt = time.Now()

	result, err := s.db.Exec(ctx, query,
		sp.ID,
		sp.Name,
		sp.Notice,
		sp.PrivateYN,
		sp.LobbyYN,
		sp.Password,
		sp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SoftDeleteSpace flips use_yn off. Rows are never hard-deleted so
// participation history stays intact.
func (s *PostgresStore) SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error {
	query := `
		UPDATE spaces
		SET use_yn = FALSE, updated_at = $2
		WHERE id = $1 AND use_yn
	`

	result, err := s.db.Exec(ctx, query, spaceID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetIconKey stores the object key of the space icon
func (s *PostgresStore) SetIconKey(ctx context.Context, spaceID uuid.UUID, iconKey string) error {
	query := `
		UPDATE spaces
		SET icon_key = $2, updated_at = $3
		WHERE id = $1 AND use_yn
	`

	result, err := s.db.Exec(ctx, query, spaceID, iconKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set icon key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
