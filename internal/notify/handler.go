package notify

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

// Handler exposes the lobby WebSocket endpoint
type Handler struct {
	manager   *Manager
	spaces    space.Store
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(manager *Manager, spaces space.Store, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{manager, spaces, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{spaceID}/lobby", httputil.Handler(h.HandleLobbySocket, h.log))
}

// HandleLobbySocket upgrades to a WebSocket streaming lobby events for
// one space
func (h *Handler) HandleLobbySocket(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.dbTimeout)
	defer cancel()

	if _, err := h.spaces.GetSpaceByID(ctx, spaceID); err != nil {
		if errors.Is(err, space.ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if err := h.manager.HandleConnection(w, r, userID, spaceID); err != nil {
		h.log.Warn("websocket upgrade failed",
			"space_id", spaceID,
			"user_id", userID,
			"error", err)
		return nil // Accept already wrote the HTTP error
	}

	return nil
}
