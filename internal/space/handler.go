package space

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/pkg/httputil"
)

type Handler struct {
	store     Store
	icons     *IconStore
	log       *slog.Logger
	dbTimeout time.Duration
}

func NewHandler(store Store, icons *IconStore, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{store, icons, log, dbTimeout}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", httputil.Handler(h.HandleCreateSpace, h.log))
	r.Get("/", httputil.Handler(h.HandleListMySpaces, h.log))
	r.Get("/{spaceID}", httputil.Handler(h.HandleGetSpace, h.log))
	r.Patch("/{spaceID}", httputil.Handler(h.HandleUpdateSpace, h.log))
	r.Delete("/{spaceID}", httputil.Handler(h.HandleDeleteSpace, h.log))
	r.Put("/{spaceID}/icon", httputil.Handler(h.HandleUploadIcon, h.log))
	r.Get("/{spaceID}/icon", httputil.Handler(h.HandleGetIcon, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleCreateSpace creates a new space owned by the caller
func (h *Handler) HandleCreateSpace(w http.ResponseWriter, r *http.Request) error {
	ownerID := auth.GetUserID(r.Context())
	if ownerID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	req := new(CreateSpaceRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if err := validateCreateSpaceRequest(req); err != nil {
		return httputil.BadRequest("Validation failed", map[string]string{
			"validation_error": err.Error(),
		})
	}

	sp := &Space{
		OwnerID:    ownerID,
		Name:       req.Name,
		Notice:     req.Notice,
		PrivateYN:  req.PrivateYN,
		LobbyYN:    req.LobbyYN,
		Password:   req.Password,
		IsPersonal: req.IsPersonal,
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	if err := h.store.CreateSpace(ctx, sp); err != nil {
		h.log.Error("failed to create space",
			"owner_id", ownerID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Info("space created",
		"space_id", sp.ID,
		"owner_id", ownerID,
		"private", sp.PrivateYN,
		"lobby", sp.LobbyYN)

	return httputil.RespondJSON(w, http.StatusCreated, SpaceResponse{Space: *sp, IsOwner: true})
}

// HandleListMySpaces lists spaces owned by the caller
func (h *Handler) HandleListMySpaces(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	spaces, err := h.store.GetSpacesByOwner(ctx, userID)
	if err != nil {
		h.log.Error("failed to list spaces", "user_id", userID, "error", err)
		return httputil.Internal(err)
	}

	list := make([]Space, len(spaces))
	for i, sp := range spaces {
		list[i] = *sp
	}

	return httputil.RespondJSON(w, http.StatusOK, ListSpacesResponse{Spaces: list, Count: len(list)})
}

// HandleGetSpace returns space details
func (h *Handler) HandleGetSpace(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.store.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, SpaceResponse{
		Space:   *sp,
		IsOwner: sp.OwnerID == userID,
	})
}

// HandleUpdateSpace applies owner-side mutations (name, notice, flags, password)
func (h *Handler) HandleUpdateSpace(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	req := new(UpdateSpaceRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.store.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if sp.OwnerID != userID {
		h.log.Warn("space update blocked - not the owner",
			"space_id", spaceID,
			"user_id", userID)
		return httputil.Forbidden("Only the owner can update this space")
	}

	if err := applyUpdate(sp, req); err != nil {
		return httputil.BadRequest("Validation failed", map[string]string{
			"validation_error": err.Error(),
		})
	}

	if err := h.store.UpdateSpace(ctx, sp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		h.log.Error("failed to update space", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	h.log.Info("space updated", "space_id", spaceID, "owner_id", userID)

	return httputil.RespondJSON(w, http.StatusOK, SpaceResponse{Space: *sp, IsOwner: true})
}

// HandleDeleteSpace soft-deletes a space. Personal spaces are protected.
func (h *Handler) HandleDeleteSpace(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.store.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if sp.OwnerID != userID {
		return httputil.Forbidden("Only the owner can delete this space")
	}

	if sp.IsPersonal {
		return httputil.Forbidden("A personal space cannot be deleted")
	}

	if err := h.store.SoftDeleteSpace(ctx, spaceID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		h.log.Error("failed to delete space", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	h.log.Info("space deleted", "space_id", spaceID, "owner_id", userID)

	return httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "Space deleted",
		"id":      spaceID,
	})
}

// HandleUploadIcon stores a space icon in object storage (owner only)
func (h *Handler) HandleUploadIcon(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	if h.icons == nil {
		return httputil.NotFound("Icon storage is not configured")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.store.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if sp.OwnerID != userID {
		return httputil.Forbidden("Only the owner can change the space icon")
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" {
		return httputil.BadRequest("Icon must be image/png or image/jpeg")
	}

	body := http.MaxBytesReader(w, r.Body, maxIconSize)
	data, err := io.ReadAll(body)
	if err != nil {
		return httputil.BadRequest("Icon is too large or unreadable")
	}

	key, err := h.icons.Upload(ctx, spaceID, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		h.log.Error("failed to upload icon", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	if err := h.store.SetIconKey(ctx, spaceID, key); err != nil {
		h.log.Error("failed to persist icon key", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, map[string]string{"icon_key": key})
}

// HandleGetIcon streams the space icon back to the client
func (h *Handler) HandleGetIcon(w http.ResponseWriter, r *http.Request) error {
	spaceID, err := httputil.ParseUUID(r, "spaceID")
	if err != nil {
		return err
	}

	if h.icons == nil {
		return httputil.NotFound("Icon storage is not configured")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	sp, err := h.store.GetSpaceByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Space not found")
		}
		return httputil.Internal(err)
	}

	if sp.IconKey == "" {
		return httputil.NotFound("Space has no icon")
	}

	object, contentType, err := h.icons.Fetch(ctx, sp.IconKey)
	if err != nil {
		h.log.Error("failed to fetch icon", "space_id", spaceID, "error", err)
		return httputil.Internal(err)
	}
	defer object.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, object)
	return err
}
