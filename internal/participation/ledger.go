package participation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/space"
)

// Notifier pushes lobby events to connected clients. Implemented by the
// websocket hub; a no-op implementation is fine for tests.
type Notifier interface {
	CandidateQueued(spaceID, recordID, userID uuid.UUID)
	CandidateDecided(spaceID, recordID, userID uuid.UUID, status Status)
}

// NopNotifier discards all events
type NopNotifier struct{}

func (NopNotifier) CandidateQueued(spaceID, recordID, userID uuid.UUID)                 {}
func (NopNotifier) CandidateDecided(spaceID, recordID, userID uuid.UUID, status Status) {}

// Ledger owns the participation-record lifecycle: it creates records
// from admission verdicts, applies owner decisions and requester
// withdrawals, and answers participant queries.
type Ledger struct {
	records  Store
	spaces   space.Store
	notifier Notifier
	log      *slog.Logger
}

func NewLedger(records Store, spaces space.Store, notifier Notifier, log *slog.Logger) *Ledger {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Ledger{records, spaces, notifier, log}
}

// Request turns an admission verdict into a persisted record.
//
// ACCEPT creates an ACCEPTED record immediately. QUEUE supersedes any
// prior records for the (user, space) pair with a fresh WAITING one, so
// retries always start clean. REJECT persists nothing and surfaces
// ErrInvalidCredential.
func (l *Ledger) Request(ctx context.Context, sp *space.Space, userID uuid.UUID, verdict space.Verdict) (*Record, error) {
	switch verdict.Decision {
	case space.DecisionAccept:
		rec := &Record{
			SpaceID: sp.ID,
			UserID:  userID,
			Status:  StatusAccepted,
		}
		if err := l.records.CreateRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record admission: %w", err)
		}

		l.log.Info("participant admitted",
			"space_id", sp.ID,
			"user_id", userID,
			"cand_id", rec.ID)

		return rec, nil

	case space.DecisionQueue:
		rec := &Record{
			SpaceID: sp.ID,
			UserID:  userID,
			Status:  StatusWaiting,
		}
		if err := l.records.Supersede(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to queue candidate: %w", err)
		}

		l.log.Info("candidate queued",
			"space_id", sp.ID,
			"user_id", userID,
			"cand_id", rec.ID)

		l.notifier.CandidateQueued(sp.ID, rec.ID, userID)

		return rec, nil

	case space.DecisionReject:
		l.log.Debug("admission rejected",
			"space_id", sp.ID,
			"user_id", userID,
			"reason", verdict.Reason)

		return nil, ErrInvalidCredential

	default:
		return nil, fmt.Errorf("unknown verdict decision %q", verdict.Decision)
	}
}

// Accept marks a candidate as admitted. Only the space owner may do
// this; re-applying the decision is not an error.
func (l *Ledger) Accept(ctx context.Context, recordID, actingUserID uuid.UUID) (*Record, error) {
	return l.decide(ctx, recordID, actingUserID, StatusAccepted)
}

// Reject marks a candidate as refused. Owner only, same idempotency as Accept.
func (l *Ledger) Reject(ctx context.Context, recordID, actingUserID uuid.UUID) (*Record, error) {
	return l.decide(ctx, recordID, actingUserID, StatusRejected)
}

func (l *Ledger) decide(ctx context.Context, recordID, actingUserID uuid.UUID, status Status) (*Record, error) {
	rec, err := l.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	// An owner decision on a candidate of a deleted space is meaningless
	sp, err := l.spaces.GetSpaceByID(ctx, rec.SpaceID)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load space for decision: %w", err)
	}

	if sp.OwnerID != actingUserID {
		l.log.Warn("decision blocked - actor is not the owner",
			"space_id", sp.ID,
			"cand_id", recordID,
			"actor_id", actingUserID)
		return nil, ErrForbidden
	}

	if err := l.records.UpdateStatus(ctx, recordID, status); err != nil {
		return nil, err
	}
	rec.Status = status

	l.log.Info("owner decision applied",
		"space_id", sp.ID,
		"cand_id", recordID,
		"status", status)

	l.notifier.CandidateDecided(sp.ID, rec.ID, rec.UserID, status)

	return rec, nil
}

// Cancel withdraws a pending request. Only the requester who created
// the record may cancel it.
func (l *Ledger) Cancel(ctx context.Context, recordID, actingUserID uuid.UUID) (*Record, error) {
	rec, err := l.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if rec.UserID != actingUserID {
		l.log.Warn("cancel blocked - actor did not create the request",
			"cand_id", recordID,
			"actor_id", actingUserID)
		return nil, ErrForbidden
	}

	if err := l.records.UpdateStatus(ctx, recordID, StatusCanceled); err != nil {
		return nil, err
	}
	rec.Status = StatusCanceled

	l.log.Info("candidate canceled",
		"space_id", rec.SpaceID,
		"cand_id", recordID)

	l.notifier.CandidateDecided(rec.SpaceID, rec.ID, rec.UserID, StatusCanceled)

	return rec, nil
}

// ActiveParticipants lists admitted participants of a space
func (l *Ledger) ActiveParticipants(ctx context.Context, spaceID uuid.UUID) ([]*Candidate, error) {
	return l.records.ListBySpace(ctx, spaceID, StatusAccepted)
}

// PendingCandidates lists the owner's lobby: waiting requests plus
// canceled ones, so a withdrawn request stays distinguishable from one
// never made.
func (l *Ledger) PendingCandidates(ctx context.Context, spaceID uuid.UUID) ([]*Candidate, error) {
	return l.records.ListBySpace(ctx, spaceID, StatusWaiting, StatusCanceled)
}
