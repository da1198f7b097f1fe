package space

import (
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/pkg/password"
)

// Decision classifies a join attempt.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionQueue  Decision = "QUEUE"
	DecisionReject Decision = "REJECT"
)

// Verdict is the resolver's output. Reason is set only for REJECT.
type Verdict struct {
	Decision Decision
	Reason   string
}

// PasswordMatcher abstracts the space credential check so the storage
// layer can swap in hashed credentials without touching the resolver.
type PasswordMatcher interface {
	Matches(s *Space, supplied string) bool
}

// PlaintextMatcher compares the supplied password to the stored one
// directly. Mirrors how space passwords are stored today.
type PlaintextMatcher struct{}

func (PlaintextMatcher) Matches(s *Space, supplied string) bool {
	return supplied != "" && supplied == s.Password
}

// BcryptMatcher treats the stored space password as a bcrypt hash.
type BcryptMatcher struct{}

func (BcryptMatcher) Matches(s *Space, supplied string) bool {
	return supplied != "" && password.Verify(supplied, s.Password)
}

// Resolver decides whether a join request is admitted immediately,
// queued for owner approval, or rejected. Pure: no side effects, no
// storage access beyond the already-loaded space.
type Resolver struct {
	matcher PasswordMatcher
}

func NewResolver(matcher PasswordMatcher) *Resolver {
	if matcher == nil {
		matcher = PlaintextMatcher{}
	}
	return &Resolver{matcher: matcher}
}

// Resolve evaluates the access policy in priority order, first match wins:
//
//  1. the owner is always admitted, regardless of any flag
//  2. lobby mode queues everyone, except a correct password on a
//     private space bypasses the lobby
//  3. outside lobby mode, open spaces admit everyone and private
//     spaces require the password
func (r *Resolver) Resolve(s *Space, requesterID uuid.UUID, suppliedPassword string) Verdict {
	if requesterID == s.OwnerID {
		return Verdict{Decision: DecisionAccept}
	}

	if s.LobbyYN {
		if s.PrivateYN && r.matcher.Matches(s, suppliedPassword) {
			return Verdict{Decision: DecisionAccept}
		}
		return Verdict{Decision: DecisionQueue}
	}

	if !s.PrivateYN {
		return Verdict{Decision: DecisionAccept}
	}

	if r.matcher.Matches(s, suppliedPassword) {
		return Verdict{Decision: DecisionAccept}
	}

	return Verdict{Decision: DecisionReject, Reason: "wrong password"}
}
