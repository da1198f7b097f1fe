package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/pkg/httputil"
	"github.com/alekhino/spacegate/pkg/password"
)

type Handler struct {
	store       Store
	authService *auth.Service
	log         *slog.Logger
	dbTimeout   time.Duration
}

func NewHandler(store Store, authService *auth.Service, log *slog.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = 5 * time.Second
	}
	return &Handler{store, authService, log, dbTimeout}
}

// RegisterAuthRoutes registers authentication endpoints (signup, signin, refresh)
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/signup", httputil.Handler(h.HandleSignup, h.log))
	r.Post("/signin", httputil.Handler(h.HandleSignin, h.log))
	r.Post("/refresh", httputil.Handler(h.HandleRefreshToken, h.log))
}

// RegisterUserRoutes registers protected user endpoints
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/me", httputil.Handler(h.HandleMe, h.log))
	r.Get("/{id}", httputil.Handler(h.HandleGetUserByID, h.log))
}

// Context that bounds database requests
func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleSignup creates a new user account and returns a JWT pair
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) error {
	req := new(SignupRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	h.log.Debug("signup attempt", "email", req.Email)

	if err := validateSignupRequest(req); err != nil {
		return httputil.BadRequest("Validation failed", map[string]string{
			"validation_error": err.Error(),
		})
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := h.store.ExistsByEmail(ctx, email)
	if err != nil {
		h.log.Error("failed to check email existence", "email", email, "error", err)
		return httputil.Internal(err)
	}
	if exists {
		return httputil.Conflict("User with this email already exists")
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", "error", err)
		return httputil.Internal(err)
	}

	newUser := &User{
		Username: req.Username,
		Email:    email,
		Password: hashedPassword,
	}

	if err := h.store.CreateUser(ctx, newUser); err != nil {
		h.log.Error("failed to create user", "error", err)
		return httputil.Internal(err)
	}

	response, err := h.tokenResponse(newUser)
	if err != nil {
		return httputil.Internal(err)
	}

	h.log.Info("user signed up",
		"user_id", newUser.ID,
		"email", newUser.Email,
	)

	return httputil.RespondJSON(w, http.StatusCreated, response)
}

// HandleSignin authenticates a user and returns a JWT pair
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) error {
	req := new(SigninRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.Email == "" {
		return httputil.BadRequest("Email is required")
	}
	if req.Password == "" {
		return httputil.BadRequest("Password is required")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	account, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.log.Warn("signin failed - user not found", "email", email)
			return httputil.Unauthorized("Invalid email or password")
		}
		return httputil.Internal(err)
	}

	if !password.Verify(req.Password, account.Password) {
		h.log.Warn("signin failed - invalid password", "email", email)
		return httputil.Unauthorized("Invalid email or password")
	}

	response, err := h.tokenResponse(account)
	if err != nil {
		return httputil.Internal(err)
	}

	h.log.Debug("user signed in", "user_id", account.ID)

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleRefreshToken exchanges a refresh token for a new JWT pair
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) error {
	req := new(RefreshRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.RefreshToken == "" {
		return httputil.BadRequest("Refresh token is required")
	}

	userID, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return httputil.Unauthorized("Invalid refresh token")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	account, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.Unauthorized("Account no longer exists")
		}
		return httputil.Internal(err)
	}

	response, err := h.tokenResponse(account)
	if err != nil {
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, response)
}

// HandleMe returns the currently authenticated user's profile
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	userID := auth.GetUserID(r.Context())
	if userID == uuid.Nil {
		return httputil.Unauthorized("Unauthorized")
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	account, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("User not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, toUserResponse(account))
}

// HandleGetUserByID retrieves a user by their UUID
func (h *Handler) HandleGetUserByID(w http.ResponseWriter, r *http.Request) error {
	userID, err := httputil.ParseUUID(r, "id")
	if err != nil {
		return err
	}

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	account, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("User not found")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, toUserResponse(account))
}

func (h *Handler) tokenResponse(account *User) (*TokenResponse, error) {
	accessToken, err := h.authService.GenerateAccessToken(account.ID, account.Email, account.Username)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.authService.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		User:         toUserResponse(account),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

func toUserResponse(account *User) *UserResponse {
	return &UserResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}
