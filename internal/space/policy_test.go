package space

import (
	"testing"

	"github.com/google/uuid"

	"github.com/alekhino/spacegate/pkg/password"
)

func hashForTest(plain string) (string, error) {
	return password.Hash(plain)
}

func TestResolveOwnerAlwaysAdmitted(t *testing.T) {
	ownerID := uuid.New()

	// Every flag combination, including the nonsensical ones
	for _, sp := range []*Space{
		{OwnerID: ownerID},
		{OwnerID: ownerID, LobbyYN: true},
		{OwnerID: ownerID, PrivateYN: true, Password: "secret"},
		{OwnerID: ownerID, LobbyYN: true, PrivateYN: true, Password: "secret"},
	} {
		verdict := NewResolver(nil).Resolve(sp, ownerID, "")
		if verdict.Decision != DecisionAccept {
			t.Fatalf("owner not admitted for space %+v: got %s", sp, verdict.Decision)
		}
	}
}

func TestResolveOpenSpaceAdmitsAnyone(t *testing.T) {
	sp := &Space{OwnerID: uuid.New()}
	resolver := NewResolver(nil)

	for _, supplied := range []string{"", "anything"} {
		verdict := resolver.Resolve(sp, uuid.New(), supplied)
		if verdict.Decision != DecisionAccept {
			t.Fatalf("open space rejected password %q: got %s", supplied, verdict.Decision)
		}
	}
}

func TestResolvePrivateSpacePasswordCheck(t *testing.T) {
	sp := &Space{OwnerID: uuid.New(), PrivateYN: true, Password: "abc"}
	resolver := NewResolver(nil)

	verdict := resolver.Resolve(sp, uuid.New(), "abc")
	if verdict.Decision != DecisionAccept {
		t.Fatalf("correct password not accepted: got %s", verdict.Decision)
	}

	verdict = resolver.Resolve(sp, uuid.New(), "wrong")
	if verdict.Decision != DecisionReject {
		t.Fatalf("wrong password not rejected: got %s", verdict.Decision)
	}
	if verdict.Reason == "" {
		t.Fatal("expected a reject reason")
	}

	verdict = resolver.Resolve(sp, uuid.New(), "")
	if verdict.Decision != DecisionReject {
		t.Fatalf("empty password not rejected: got %s", verdict.Decision)
	}
}

func TestResolveLobbyQueuesNonOwners(t *testing.T) {
	resolver := NewResolver(nil)

	// Open lobby: queued even though no password is required
	sp := &Space{OwnerID: uuid.New(), LobbyYN: true}
	verdict := resolver.Resolve(sp, uuid.New(), "whatever")
	if verdict.Decision != DecisionQueue {
		t.Fatalf("open lobby did not queue: got %s", verdict.Decision)
	}

	// Private lobby, wrong password: queued, not rejected
	sp = &Space{OwnerID: uuid.New(), LobbyYN: true, PrivateYN: true, Password: "abc"}
	verdict = resolver.Resolve(sp, uuid.New(), "wrong")
	if verdict.Decision != DecisionQueue {
		t.Fatalf("private lobby with wrong password did not queue: got %s", verdict.Decision)
	}
}

func TestResolvePasswordBypassesLobby(t *testing.T) {
	sp := &Space{OwnerID: uuid.New(), LobbyYN: true, PrivateYN: true, Password: "abc"}

	verdict := NewResolver(nil).Resolve(sp, uuid.New(), "abc")
	if verdict.Decision != DecisionAccept {
		t.Fatalf("correct password did not bypass lobby: got %s", verdict.Decision)
	}
}

func TestResolveWithBcryptMatcher(t *testing.T) {
	// bcrypt hash of "abc" is generated at test time to avoid a stale fixture
	hash, err := hashForTest("abc")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	sp := &Space{OwnerID: uuid.New(), PrivateYN: true, Password: hash}
	resolver := NewResolver(BcryptMatcher{})

	if verdict := resolver.Resolve(sp, uuid.New(), "abc"); verdict.Decision != DecisionAccept {
		t.Fatalf("bcrypt matcher rejected correct password: got %s", verdict.Decision)
	}
	if verdict := resolver.Resolve(sp, uuid.New(), "wrong"); verdict.Decision != DecisionReject {
		t.Fatalf("bcrypt matcher accepted wrong password: got %s", verdict.Decision)
	}
}
