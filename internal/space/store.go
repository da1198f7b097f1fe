package space

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both absent and soft-deleted spaces. Callers
	// must not be able to tell the two apart.
	ErrNotFound = errors.New("space not found")

	// ErrPersonalSpace is returned when deleting a personal space.
	ErrPersonalSpace = errors.New("personal space cannot be deleted")
)

// Store defines storage operations for spaces. All reads exclude
// soft-deleted rows.
type Store interface {
	CreateSpace(ctx context.Context, s *Space) error
	GetSpaceByID(ctx context.Context, spaceID uuid.UUID) (*Space, error)
	GetSpacesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Space, error)
	UpdateSpace(ctx context.Context, s *Space) error
	SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error
	SetIconKey(ctx context.Context, spaceID uuid.UUID, iconKey string) error
}
