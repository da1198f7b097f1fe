package participation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("candidate not found")
	ErrForbidden = errors.New("actor is not allowed to act on this candidate")

	// ErrInvalidCredential is deliberately a single kind: callers must
	// not be able to tell a wrong password from other admission refusals.
	ErrInvalidCredential = errors.New("invalid credentials for this space")
)

// Store defines storage operations for participation records
type Store interface {
	CreateRecord(ctx context.Context, rec *Record) error

	// Supersede atomically deletes every record for the (user, space)
	// pair and inserts rec in its place. Delete and insert commit
	// together so concurrent retries cannot leave two live WAITING rows.
	Supersede(ctx context.Context, rec *Record) error

	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListBySpace(ctx context.Context, spaceID uuid.UUID, statuses ...Status) ([]*Candidate, error)
}
