package participation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/internal/space"
	"github.com/alekhino/spacegate/pkg/httputil"
)

type Handler struct {
	ledger    *Ledger
	spaces    space.Store
	resolver  *space.Resolver
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(ledger *Ledger, spaces space.Store, resolver *space.Resolver, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{ledger, spaces, resolver, log, dbTimeout}
}

// RegisterRoutes mounts admission endpoints on the spaces router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/{spaceID}/participate", httputil.Handler(h.HandleParticipate, h.log))
	r.Post("/{spaceID}/candidates/{candID}/accept", httputil.Handler(h.HandleAccept, h.log))
	r.Post("/{spaceID}/candidates/{candID}/reject", httputil.Handler(h.HandleReject, h.log))
	r.Post("/{spaceID}/candidates/{candID}/cancel", httputil.Handler(h.HandleCancel, h.log))
	r.Get("/{spaceID}/candidates", httputil.Handler(h.HandleCandidates, h.log))
	r.Get("/{spaceID}/participants", httputil.Handler(h.HandleParticipants, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleParticipate runs the admission decision for a join request and
// persists the outcome
func (h *Handler) HandleParticipate(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	// Password body is optional: open and lobby spaces need none
	req := new(ParticipateRequest)
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, req); err != nil {
			return err
		}
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.spaces.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	verdict := h.resolver.Resolve(sp, userID, req.Password)

	rec, err := h.ledger.Request(ctx, sp, userID, verdict)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			// One message for every credential failure; nothing about
			// the space itself is disclosed
			return httputil.Forbidden("Unable to join this space")
		}
		h.log.Error("failed to record join request",
			"space_id", spaceID,
			"user_id", userID,
			"error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusCreated, ParticipateResponse{
		CandID: rec.ID,
		Status: rec.Status,
	})
}

// HandleAccept admits a waiting candidate (owner only)
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) error {
	return h.handleDecision(w, r, h.ledger.Accept)
}

// HandleReject refuses a waiting candidate (owner only)
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) error {
	return h.handleDecision(w, r, h.ledger.Reject)
}

// HandleCancel withdraws the caller's own pending request
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) error {
	return h.handleDecision(w, r, h.ledger.Cancel)
}

func (h *Handler) handleDecision(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, recordID, actingUserID uuid.UUID) (*Record, error),
) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	candID, err := httputil.ParseUUID(r, "candID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	rec, err := op(ctx, candID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return httputil.NotFound("Candidate not found")
		case errors.Is(err, ErrForbidden):
			return httputil.Forbidden("You are not allowed to act on this candidate")
		default:
			h.log.Error("failed to apply candidate decision",
				"cand_id", candID,
				"user_id", userID,
				"error", err)
			return httputil.Internal(err)
		}
	}

	return httputil.RespondJSON(w, http.StatusOK, ParticipateResponse{
		CandID: rec.ID,
		Status: rec.Status,
	})
}

// HandleCandidates returns the owner's lobby list: waiting plus
// canceled requests
func (h *Handler) HandleCandidates(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.spaces.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if sp.OwnerID != userID {
		return httputil.Forbidden("Only the owner can view the lobby")
	}

	candidates, err := h.ledger.PendingCandidates(ctx, spaceID)
	if err != nil {
		h.log.Error("failed to list candidates", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, toCandidatesResponse(candidates))
}

// HandleParticipants returns admitted participants of a space
func (h *Handler) HandleParticipants(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if _, err := h.spaces.GetSpaceByID(ctx, spaceID); err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	participants, err := h.ledger.ActiveParticipants(ctx, spaceID)
	if err != nil {
		h.log.Error("failed to list participants", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, toCandidatesResponse(participants))
}

func toCandidatesResponse(list []*Candidate) CandidatesResponse {
	candidates := make([]Candidate, len(list))
	for i, c := range list {
		candidates[i] = *c
	}
	return CandidatesResponse{Candidates: candidates, Count: len(candidates)}
}
