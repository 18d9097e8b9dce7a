// Package httphandler is the JSON API driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Accounts is the account surface the API serves.
type Accounts interface {
	Providers() []model.ProviderDefinition
	ListUsers(ctx context.Context) ([]string, error)
	Enroll(ctx context.Context, user, provider string, fields map[string]string) (*application.EnrollResult, error)
	LatestBalances(ctx context.Context, user string) ([]model.CategoryBalances, error)
	History(ctx context.Context, accountID int64, limit int) ([]model.HistoryEntry, error)
	RemoveUser(ctx context.Context, user string) error
}

// Refresher scrapes one account.
type Refresher interface {
	Refresh(ctx context.Context, accountID int64) (model.RefreshOutcome, error)
}

// Notes serves the note of the day.
type Notes interface {
	Today(ctx context.Context, force bool) (*model.Note, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	accounts  Accounts
	refresher Refresher
	notes     Notes
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(accounts Accounts, refresher Refresher, notes Notes, logger *slog.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		refresher: refresher,
		notes:     notes,
		logger:    logger,
	}
}

// NewRouter creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery innermost so panics are caught before logging.
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/providers", h.ListProviders)
		r.Get("/users", h.ListUsers)
		r.Delete("/users/{user}", h.RemoveUser)
		r.Get("/users/{user}/balances", h.LatestBalances)
		r.Post("/users/{user}/accounts", h.Enroll)
		r.Get("/accounts/{id}/history", h.History)
		r.Post("/accounts/{id}/refresh", h.Refresh)
		r.Get("/note", h.Note)
	})

	return r
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListProviders returns the catalog in display order.
func (h *Handler) ListProviders(w http.ResponseWriter, _ *http.Request) {
	providers := h.accounts.Providers()
	resp := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		resp = append(resp, toProviderResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListUsers returns every user with at least one account.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		h.fail(w, "failed to list users", err)
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, users)
}

// RemoveUser deletes a user with all accounts and history.
func (h *Handler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	if err := h.accounts.RemoveUser(r.Context(), user); err != nil {
		h.fail(w, "failed to remove user", err, "user", user)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LatestBalances returns the user's current balances grouped by category.
func (h *Handler) LatestBalances(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	groups, err := h.accounts.LatestBalances(r.Context(), user)
	if err != nil {
		h.fail(w, "failed to load balances", err, "user", user)
		return
	}

	resp := make([]CategoryResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toCategoryResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Enroll adds an account for the user and runs its first refresh. The
// request blocks until the refresh finishes.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Provider) == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	res, err := h.accounts.Enroll(r.Context(), user, req.Provider, req.Fields)
	if err != nil {
		h.fail(w, "failed to enroll account", err, "user", user, "provider", req.Provider)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollResponse(res))
}

// History returns the account's most recent balances, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.accounts.History(r.Context(), id, limit)
	if err != nil {
		h.fail(w, "failed to load history", err, "account_id", id)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(entries))
}

// Refresh scrapes the account now. The request blocks until the adapter
// finishes.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	out, err := h.refresher.Refresh(r.Context(), id)
	if err != nil {
		if errors.Is(err, driven.ErrScrapeFailed) {
			h.logger.Warn("refresh failed", "account_id", id, "error", err)
			writeJSON(w, http.StatusBadGateway, toRefreshResponse(out))
			return
		}
		h.fail(w, "failed to refresh account", err, "account_id", id)
		return
	}
	writeJSON(w, http.StatusOK, toRefreshResponse(out))
}

// Note renders the latest note of the day as HTML.
func (h *Handler) Note(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Today(r.Context(), true)
	if err != nil {
		h.fail(w, "failed to fetch note", err)
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "no note available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(RenderMarkdown(noteMarkdown(note))))
}

// fail maps err to a status code, logs server-side failures and writes the
// error response.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, driven.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, driven.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, driven.ErrInvalidBalance), errors.Is(err, application.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, driven.ErrScrapeFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return 0, false
	}
	return id, true
}
