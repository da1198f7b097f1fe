package participation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/space"
)

type fakeRecordStore struct {
	records        map[uuid.UUID]*Record
	supersedeCalls int

	getFunc func(ctx context.Context, id uuid.UUID) (*Record, error)
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[uuid.UUID]*Record{}}
}

func (s *fakeRecordStore) CreateRecord(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *fakeRecordStore) Supersede(ctx context.Context, rec *Record) error {
	s.supersedeCalls++
	for id, existing := range s.records {
		if existing.UserID == rec.UserID && existing.SpaceID == rec.SpaceID {
			delete(s.records, id)
		}
	}
	rec.ID = uuid.New()
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *fakeRecordStore) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *fakeRecordStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}

func (s *fakeRecordStore) ListBySpace(ctx context.Context, spaceID uuid.UUID, statuses ...Status) ([]*Candidate, error) {
	wanted := map[Status]bool{}
	for _, st := range statuses {
		wanted[st] = true
	}

	out := []*Candidate{}
	for _, rec := range s.records {
		if rec.SpaceID == spaceID && wanted[rec.Status] {
			out = append(out, &Candidate{Record: *rec})
		}
	}
	return out, nil
}

func (s *fakeRecordStore) pairRecords(userID, spaceID uuid.UUID) []*Record {
	out := []*Record{}
	for _, rec := range s.records {
		if rec.UserID == userID && rec.SpaceID == spaceID {
			out = append(out, rec)
		}
	}
	return out
}

type fakeSpaceStore struct {
	getFunc func(ctx context.Context, spaceID uuid.UUID) (*space.Space, error)
}

func (s *fakeSpaceStore) GetSpaceByID(ctx context.Context, spaceID uuid.UUID) (*space.Space, error) {
	return s.getFunc(ctx, spaceID)
}

func (s *fakeSpaceStore) CreateSpace(ctx context.Context, sp *space.Space) error { return nil }
func (s *fakeSpaceStore) GetSpacesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*space.Space, error) {
	return nil, nil
}
func (s *fakeSpaceStore) UpdateSpace(ctx context.Context, sp *space.Space) error { return nil }
func (s *fakeSpaceStore) SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error {
	return nil
}
func (s *fakeSpaceStore) SetIconKey(ctx context.Context, spaceID uuid.UUID, iconKey string) error {
	return nil
}

type fakeNotifier struct {
	queued  []uuid.UUID
	decided []Status
}

func (n *fakeNotifier) CandidateQueued(spaceID, recordID, userID uuid.UUID) {
	n.queued = append(n.queued, recordID)
}

func (n *fakeNotifier) CandidateDecided(spaceID, recordID, userID uuid.UUID, status Status) {
	n.decided = append(n.decided, status)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleSpaceStore(sp *space.Space) *fakeSpaceStore {
	return &fakeSpaceStore{
		getFunc: func(ctx context.Context, spaceID uuid.UUID) (*space.Space, error) {
			if spaceID == sp.ID {
				clone := *sp
				return &clone, nil
			}
			return nil, space.ErrNotFound
		},
	}
}

func TestRequestAcceptCreatesAcceptedRecord(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New()}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	userID := uuid.New()
	rec, err := ledger.Request(context.Background(), sp, userID, space.Verdict{Decision: space.DecisionAccept})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if rec.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", rec.Status)
	}
	if len(records.pairRecords(userID, sp.ID)) != 1 {
		t.Fatal("expected exactly one stored record")
	}
	if records.supersedeCalls != 0 {
		t.Fatal("accept verdict must not discard history")
	}
}

func TestRequestQueueSupersedesPriorRecords(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), LobbyYN: true}
	records := newFakeRecordStore()
	notifier := &fakeNotifier{}
	ledger := NewLedger(records, singleSpaceStore(sp), notifier, testLogger())

	userID := uuid.New()
	first, err := ledger.Request(context.Background(), sp, userID, space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	second, err := ledger.Request(context.Background(), sp, userID, space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("retry must create a fresh record")
	}

	live := records.pairRecords(userID, sp.ID)
	if len(live) != 1 {
		t.Fatalf("expected one live record after retry, got %d", len(live))
	}
	if live[0].ID != second.ID || live[0].Status != StatusWaiting {
		t.Fatalf("expected the fresh WAITING record to survive, got %+v", live[0])
	}
	if records.supersedeCalls != 2 {
		t.Fatalf("expected atomic supersede on every queue, got %d calls", records.supersedeCalls)
	}
	if len(notifier.queued) != 2 {
		t.Fatalf("expected owner notified per queue, got %d events", len(notifier.queued))
	}
}

func TestRequestRejectPersistsNothing(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), PrivateYN: true, Password: "abc"}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	_, err := ledger.Request(context.Background(), sp, uuid.New(), space.Verdict{
		Decision: space.DecisionReject,
		Reason:   "wrong password",
	})
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if len(records.records) != 0 {
		t.Fatal("reject verdict must not persist a record")
	}
}

func TestAcceptByOwnerTransitionsToAccepted(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	records := newFakeRecordStore()
	notifier := &fakeNotifier{}
	ledger := NewLedger(records, singleSpaceStore(sp), notifier, testLogger())

	userID := uuid.New()
	rec, err := ledger.Request(context.Background(), sp, userID, space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	decided, err := ledger.Accept(context.Background(), rec.ID, ownerID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if decided.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", decided.Status)
	}

	// Re-applying the decision is not an error
	decided, err = ledger.Accept(context.Background(), rec.ID, ownerID)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if decided.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED after re-apply, got %s", decided.Status)
	}

	if len(notifier.decided) != 2 || notifier.decided[0] != StatusAccepted {
		t.Fatalf("expected accepted notifications, got %v", notifier.decided)
	}
}

func TestAcceptByNonOwnerForbidden(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), LobbyYN: true}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	rec, err := ledger.Request(context.Background(), sp, uuid.New(), space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := ledger.Accept(context.Background(), rec.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	stored, err := records.GetRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.Status != StatusWaiting {
		t.Fatalf("forbidden decision must not mutate the record, got %s", stored.Status)
	}
}

func TestRejectByOwnerTransitionsToRejected(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	rec, err := ledger.Request(context.Background(), sp, uuid.New(), space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	decided, err := ledger.Reject(context.Background(), rec.ID, ownerID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if decided.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", decided.Status)
	}
}

func TestDecisionOnDeletedSpaceIsNotFound(t *testing.T) {
	records := newFakeRecordStore()
	rec := &Record{SpaceID: uuid.New(), UserID: uuid.New(), Status: StatusWaiting}
	if err := records.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("create record: %v", err)
	}

	spaces := &fakeSpaceStore{
		getFunc: func(ctx context.Context, spaceID uuid.UUID) (*space.Space, error) {
			return nil, space.ErrNotFound
		},
	}
	ledger := NewLedger(records, spaces, nil, testLogger())

	if _, err := ledger.Accept(context.Background(), rec.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted space, got %v", err)
	}
}

func TestCancelByRequester(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), LobbyYN: true}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	userID := uuid.New()
	rec, err := ledger.Request(context.Background(), sp, userID, space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	canceled, err := ledger.Cancel(context.Background(), rec.ID, userID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("expected CANCELED, got %s", canceled.Status)
	}

	// Someone else, including the owner, may not cancel on the
	// requester's behalf
	if _, err := ledger.Cancel(context.Background(), rec.ID, sp.OwnerID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelMissingRecordIsNotFound(t *testing.T) {
	ledger := NewLedger(newFakeRecordStore(), &fakeSpaceStore{}, nil, testLogger())

	if _, err := ledger.Cancel(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPendingCandidatesIncludesCanceled(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	records := newFakeRecordStore()
	ledger := NewLedger(records, singleSpaceStore(sp), nil, testLogger())

	waiting, err := ledger.Request(context.Background(), sp, uuid.New(), space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	withdrawnUser := uuid.New()
	withdrawn, err := ledger.Request(context.Background(), sp, withdrawnUser, space.Verdict{Decision: space.DecisionQueue})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := ledger.Cancel(context.Background(), withdrawn.ID, withdrawnUser); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	admitted, err := ledger.Request(context.Background(), sp, uuid.New(), space.Verdict{Decision: space.DecisionAccept})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	pending, err := ledger.PendingCandidates(context.Background(), sp.ID)
	if err != nil {
		t.Fatalf("pending candidates: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected waiting + canceled in lobby list, got %d entries", len(pending))
	}
	for _, c := range pending {
		if c.ID != waiting.ID && c.ID != withdrawn.ID {
			t.Fatalf("unexpected candidate %+v in lobby list", c)
		}
	}

	active, err := ledger.ActiveParticipants(context.Background(), sp.ID)
	if err != nil {
		t.Fatalf("active participants: %v", err)
	}
	if len(active) != 1 || active[0].ID != admitted.ID {
		t.Fatalf("expected only the admitted record, got %+v", active)
	}
}
