package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/pkg/httputil"
	"github.com/ignite/waitlist-service/internal/pkg/logger"
	"github.com/ignite/waitlist-service/internal/service/waitlist"
)

// SignupService is the part of the waitlist service the HTTP layer needs.
type SignupService interface {
	HandleSignup(ctx context.Context, name, email string, userType domain.UserType) waitlist.SignupResult
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	svc   SignupService
	repo  waitlist.Repository
	db    *sql.DB
	redis *redis.Client
}

// NewHandlers creates the handler set. db and redis may be nil; the health
// endpoint reports only the components that are wired.
func NewHandlers(svc SignupService, repo waitlist.Repository, db *sql.DB, redisClient *redis.Client) *Handlers {
	return &Handlers{svc: svc, repo: repo, db: db, redis: redisClient}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// Signup handles POST /api/signup. The endpoint always answers 201 with a
// success-shaped body; emailSent is the only signal of a degraded outcome.
// Even an unreadable request body does not produce an error status, the
// form must never show a failure to the person signing up.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("unreadable signup payload", "error", err)
	}

	result := h.svc.HandleSignup(r.Context(), req.Name, req.Email, domain.ParseUserType(req.UserType))
	httputil.Created(w, result)
}

// ListUsers handles GET /api/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListAll(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.WaitlistEntry{}
	}
	httputil.OK(w, map[string]any{
		"users": entries,
		"count": len(entries),
	})
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.repo.DeleteByID(r.Context(), id)
	switch {
	case errors.Is(err, waitlist.ErrNotFound):
		httputil.NotFound(w, "user not found")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]any{"deleted": id})
	}
}

// DeleteAllUsers handles DELETE /api/users.
func (h *Handlers) DeleteAllUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.DeleteAll(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"deleted": n})
}

// HealthCheck handles GET /health. Reports per-component status; the
// overall status is degraded (503) when the database is unreachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			components["database"] = "down"
			healthy = false
		} else {
			components["database"] = "up"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			// Rate limiting fails open, so Redis being down degrades
			// nothing the caller can observe.
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]any{
		"status":     status,
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}
