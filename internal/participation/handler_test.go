package participation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/internal/space"
)

// newTestRouter wires the handler behind a router that takes the acting
// user from the X-Test-User header instead of a real JWT
func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if raw := req.Header.Get("X-Test-User"); raw != "" {
				if userID, err := uuid.Parse(raw); err == nil {
					ctx := auth.WithIdentity(req.Context(), userID, "test@example.com", "tester")
					req = req.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/spaces", h.RegisterRoutes)
	return r
}

func newTestHandler(sp *space.Space) (*Handler, *fakeRecordStore) {
	records := newFakeRecordStore()
	spaces := singleSpaceStore(sp)
	ledger := NewLedger(records, spaces, nil, testLogger())
	resolver := space.NewResolver(nil)
	return NewHandler(ledger, spaces, resolver, testLogger(), 0), records
}

func doRequest(t *testing.T, router http.Handler, method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("X-Test-User", actor.String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeParticipate(t *testing.T, rec *httptest.ResponseRecorder) ParticipateResponse {
	t.Helper()
	var resp ParticipateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestParticipateOpenSpace(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New()}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)

	res := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/participate", sp.ID), uuid.New(), nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}

	resp := decodeParticipate(t, res)
	if resp.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", resp.Status)
	}
}

func TestParticipatePrivateSpacePassword(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), PrivateYN: true, Password: "abc"}
	handler, records := newTestHandler(sp)
	router := newTestRouter(handler)
	path := fmt.Sprintf("/spaces/%s/participate", sp.ID)

	res := doRequest(t, router, http.MethodPost, path, uuid.New(), ParticipateRequest{Password: "wrong"})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong password, got %d", res.Code)
	}
	if len(records.records) != 0 {
		t.Fatal("rejected join must not persist a record")
	}

	res = doRequest(t, router, http.MethodPost, path, uuid.New(), ParticipateRequest{Password: "abc"})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 for correct password, got %d: %s", res.Code, res.Body.String())
	}
	if resp := decodeParticipate(t, res); resp.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", resp.Status)
	}
}

func TestParticipateLobbyThenOwnerAccept(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)

	res := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/participate", sp.ID), uuid.New(), nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}

	queued := decodeParticipate(t, res)
	if queued.Status != StatusWaiting {
		t.Fatalf("expected WAITING, got %s", queued.Status)
	}

	res = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/candidates/%s/accept", sp.ID, queued.CandID), ownerID, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 on owner accept, got %d: %s", res.Code, res.Body.String())
	}
	if resp := decodeParticipate(t, res); resp.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED after owner accept, got %s", resp.Status)
	}
}

func TestParticipateLobbyOwnerBypassesQueue(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)

	res := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/participate", sp.ID), ownerID, nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if resp := decodeParticipate(t, res); resp.Status != StatusAccepted {
		t.Fatalf("owner must bypass the lobby, got %s", resp.Status)
	}
}

func TestParticipateMissingSpace(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New()}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)

	res := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/participate", uuid.New()), uuid.New(), nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDecisionByNonOwnerIsForbidden(t *testing.T) {
	sp := &space.Space{ID: uuid.New(), OwnerID: uuid.New(), LobbyYN: true}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)

	res := doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/spaces/%s/participate", sp.ID), uuid.New(), nil)
	queued := decodeParticipate(t, res)

	for _, action := range []string{"accept", "reject"} {
		res = doRequest(t, router, http.MethodPost,
			fmt.Sprintf("/spaces/%s/candidates/%s/%s", sp.ID, queued.CandID, action), uuid.New(), nil)
		if res.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for non-owner %s, got %d", action, res.Code)
		}
	}
}

func TestCandidatesListIsOwnerOnly(t *testing.T) {
	ownerID := uuid.New()
	sp := &space.Space{ID: uuid.New(), OwnerID: ownerID, LobbyYN: true}
	handler, _ := newTestHandler(sp)
	router := newTestRouter(handler)
	path := fmt.Sprintf("/spaces/%s/candidates", sp.ID)

	res := doRequest(t, router, http.MethodGet, path, uuid.New(), nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", res.Code)
	}

	res = doRequest(t, router, http.MethodGet, path, ownerID, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", res.Code, res.Body.String())
	}
}
