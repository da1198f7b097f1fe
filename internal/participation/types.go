package participation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a participation record. WAITING is
// the only state with outgoing transitions; the rest are terminal.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusAccepted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Record represents one admission attempt for a (user, space) pair.
// Several records may exist for the same pair over time; lobby retries
// discard prior history and start a fresh WAITING record.
type Record struct {
	ID        uuid.UUID `json:"id"`
	SpaceID   uuid.UUID `json:"space_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate is a record joined with the requester's profile, as shown
// in the owner's lobby list.
type Candidate struct {
	Record
	Username string `json:"username"`
}

type ParticipateRequest struct {
	Password string `json:"password"`
}

type ParticipateResponse struct {
	CandID uuid.UUID `json:"cand_id"`
	Status Status    `json:"status"`
}

type CandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
	Count      int         `json:"count"`
}
