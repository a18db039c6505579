package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cleared-dev/estatement/internal/accounts"
	"github.com/cleared-dev/estatement/internal/auth"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/statement"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

// TransactionStore supplies stored transactions ("" for every account).
type TransactionStore interface {
	TransactionsByAccount(ctx context.Context, account string) ([]model.Transaction, error)
	TransactionByReference(ctx context.Context, ref string) (model.Transaction, error)
}

// Importer stores an uploaded statement.
type Importer interface {
	Import(ctx context.Context, name, format string, r io.Reader) (statement.ImportResult, error)
}

// Exporter renders the transactions matching criteria.
type Exporter interface {
	Export(ctx context.Context, token string, criteria query.FilterCriteria, format export.Format) (export.Payload, error)
}

// UploadHistory lists past uploads.
type UploadHistory interface {
	Read() ([]uploadlog.Entry, error)
	Find(id string) (uploadlog.Entry, bool, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies collects handler dependencies.
type Dependencies struct {
	Store    TransactionStore
	Importer Importer
	Exporter Exporter
	History  UploadHistory
	Accounts *accounts.Service
	Balances accounts.BalanceStore
	Health   Pinger
	Issuer   *auth.Issuer
	Users    *auth.UserStore

	MaxUploadBytes    int64
	AllowedOrigins    []string
	LoginRate         float64
	LoginBurst        int
	AllowRegistration bool
}

// NewRouter wires the HTTP routes of the API.
func NewRouter(logger *slog.Logger, deps Dependencies) http.Handler {
	h := &handlers{
		logger:  logger,
		deps:    deps,
		limiter: newClientLimiter(deps.LoginRate, deps.LoginBurst),
	}
	if h.deps.MaxUploadBytes <= 0 {
		h.deps.MaxUploadBytes = statement.MaxUploadBytes
	}
	if h.deps.Accounts == nil {
		h.deps.Accounts = accounts.NewService(nil)
	}
	if h.deps.Users == nil {
		h.deps.Users = auth.NewUserStore(nil, "")
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/statements", h.statements)
	api.HandleFunc("GET /api/transactions", h.transactions)
	api.HandleFunc("GET /api/transactions/{ref}", h.transaction)
	api.HandleFunc("POST /api/export/{format}", h.export)
	api.HandleFunc("POST /api/files/upload", h.upload)
	api.HandleFunc("GET /api/files/history", h.history)
	api.HandleFunc("GET /api/files/{id}/status", h.uploadStatus)
	api.HandleFunc("GET /api/accounts", h.accounts)
	api.HandleFunc("GET /api/user/profile", h.profile)
	api.HandleFunc("POST /api/user/change-password", h.changePassword)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.Handle("/api/", bearerMiddleware(deps.Issuer)(api))

	handler := corsMiddleware(deps.AllowedOrigins)(mux)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(logger)(handler)
	return handler
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	payload := map[string]any{"status": "ok"}

	if h.deps.Health != nil {
		if err := h.deps.Health.Ping(ctx); err != nil {
			h.logger.Error("health probe failed", "error", err)
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["error"] = err.Error()
		}
	}
	respondJSON(w, status, payload)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	respondJSON(w, status, errorResponse{Message: message, Errors: details})
}
