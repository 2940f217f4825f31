package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	timeout time.Duration
	log     *zap.Logger
}

func NewAuthHandler(timeout time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{timeout: timeout, log: logger.OrNop(log)}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponseDTO struct {
	User domain.User `json:"user"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := getState(r.Context())
	u, err := s.Account.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.Watchlist.Load(ctx, u.ID); err != nil {
		logger.FromContext(ctx, h.log).Warn("failed to load price alerts after login",
			zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
	}
	respondJSON(w, http.StatusOK, UserResponseDTO{User: u})
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form account.RegisterForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	u, err := getState(r.Context()).Account.Register(ctx, form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, UserResponseDTO{User: u})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	getState(r.Context()).Account.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, UserResponseDTO{User: u})
}

// GET /api/v1/favorites
func (h *AuthHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	ids := getState(r.Context()).Account.Favorites(r.Context())
	if ids == nil {
		ids = []domain.ID{}
	}
	respondJSON(w, http.StatusOK, map[string][]domain.ID{"favorites": ids})
}

// POST /api/v1/favorites/{id}
func (h *AuthHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := domain.ID(chi.URLParam(r, "id"))
	on, err := getState(r.Context()).Account.ToggleFavorite(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"favorite": on})
}
