package notify

import (
	"encoding/json"
	"time"
)

// Event types pushed over the lobby socket
const (
	TypeConnectionAck     = "CONNECTION_ACK"
	TypeCandidateQueued   = "CANDIDATE_QUEUED"
	TypeCandidateAccepted = "CANDIDATE_ACCEPTED"
	TypeCandidateRejected = "CANDIDATE_REJECTED"
	TypeCandidateCanceled = "CANDIDATE_CANCELED"
)

// ServerMessage is the wire format for lobby events
type ServerMessage struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func marshalMessage(message ServerMessage) ([]byte, error) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	return json.Marshal(message)
}
