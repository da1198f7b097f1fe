package notify

import (
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/participation"
)

// LobbyNotifier translates ledger events into lobby broadcasts. It
// satisfies the ledger's Notifier interface.
type LobbyNotifier struct {
	manager *Manager
}

func NewLobbyNotifier(manager *Manager) *LobbyNotifier {
	return &LobbyNotifier{manager: manager}
}

func (n *LobbyNotifier) CandidateQueued(spaceID, recordID, userID uuid.UUID) {
	n.manager.Broadcast(spaceID, ServerMessage{
		Type: TypeCandidateQueued,
		Data: map[string]any{
			"space_id": spaceID,
			"cand_id":  recordID,
			"user_id":  userID,
		},
	})
}

func (n *LobbyNotifier) CandidateDecided(spaceID, recordID, userID uuid.UUID, status participation.Status) {
	n.manager.Broadcast(spaceID, ServerMessage{
		Type: decisionEventType(status),
		Data: map[string]any{
			"space_id": spaceID,
			"cand_id":  recordID,
			"user_id":  userID,
			"status":   status,
		},
	})
}

func decisionEventType(status participation.Status) string {
	switch status {
	case participation.StatusAccepted:
		return TypeCandidateAccepted
	case participation.StatusRejected:
		return TypeCandidateRejected
	case participation.StatusCanceled:
		return TypeCandidateCanceled
	default:
		return TypeCandidateQueued
	}
}
