package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/statement"
	"github.com/cleared-dev/estatement/internal/storage"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

type handlers struct {
	logger  *slog.Logger
	deps    Dependencies
	limiter *clientLimiter
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientAddr(r)) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.deps.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Info("login rejected", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, exp, err := h.deps.Issuer.Issue(user.Username, user.Role)
	if err != nil {
		h.logger.Error("issuing token", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Username:  user.Username,
		Token:     token,
		Roles:     []string{user.Role},
		ExpiresAt: exp.UTC(),
	})
}

// statements returns the full dataset of an account.
func (h *handlers) statements(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("accountNumber")
	txns, err := h.deps.Store.TransactionsByAccount(r.Context(), account)
	if err != nil {
		h.logger.Error("loading statements", "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	respondJSON(w, http.StatusOK, txns)
}

// PageResponse is one page of a server-side search.
type PageResponse struct {
	Content       []model.Transaction `json:"content"`
	CurrentPage   int                 `json:"currentPage"`
	TotalPages    int                 `json:"totalPages"`
	TotalElements int                 `json:"totalElements"`
	PageSize      int                 `json:"pageSize"`
	First         bool                `json:"first"`
	Last          bool                `json:"last"`
	Empty         bool                `json:"empty"`
	Stats         query.Stats         `json:"stats"`
}

func (h *handlers) transactions(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseValues(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid search parameters", err.Error())
		return
	}
	if errs := query.ValidateCriteria(params.Criteria, params.Sort, params.Pagination); len(errs) > 0 {
		details := make([]string, len(errs))
		for i, e := range errs {
			details[i] = e.Error()
		}
		writeError(w, http.StatusBadRequest, "Invalid search criteria", details...)
		return
	}

	dataset, err := h.deps.Store.TransactionsByAccount(r.Context(), params.Criteria.AccountNumber)
	if err != nil {
		h.logger.Error("loading transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	res, err := query.Query(dataset, params.Criteria, params.Sort, params.Pagination)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid search criteria", err.Error())
		return
	}

	content := res.Page
	if content == nil {
		content = []model.Transaction{}
	}
	respondJSON(w, http.StatusOK, PageResponse{
		Content:       content,
		CurrentPage:   res.PageNumber,
		TotalPages:    res.TotalPages,
		TotalElements: res.TotalItems,
		PageSize:      params.Pagination.PageSize,
		First:         res.PageNumber == 1,
		Last:          res.PageNumber == res.TotalPages,
		Empty:         len(res.Page) == 0,
		Stats:         res.Stats,
	})
}

// transaction returns one transaction by its bank reference.
func (h *handlers) transaction(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	txn, err := h.deps.Store.TransactionByReference(r.Context(), ref)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	case err != nil:
		h.logger.Error("loading transaction", "ref", ref, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load transaction")
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported export format", err.Error())
		return
	}

	criteria := query.DefaultCriteria()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&criteria); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid export criteria", err.Error())
		return
	}
	if criteria.Type == "" {
		criteria.Type = query.TypeAll
	}

	payload, err := h.deps.Exporter.Export(r.Context(), bearerToken(r), criteria, format)
	switch {
	case errors.Is(err, export.ErrNoTransactions):
		writeError(w, http.StatusNotFound, "No transactions found for the specified criteria.")
		return
	case errors.Is(err, export.ErrInvalidCriteria):
		writeError(w, http.StatusBadRequest, "Invalid export criteria", err.Error())
		return
	case err != nil:
		h.logger.Error("exporting transactions", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload.Data); err != nil {
		h.logger.Warn("writing export", "error", err)
	}
}

// UploadResponse reports the outcome of an upload.
type UploadResponse struct {
	UploadID   string   `json:"uploadId"`
	FileName   string   `json:"fileName"`
	Status     string   `json:"status"`
	Parsed     int      `json:"parsed"`
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Accounts   []string `json:"accounts"`
}

const multipartOverhead = 1 << 20

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	limit := h.deps.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if err := statement.ValidateUpload(header.Filename, header.Size, limit, statement.FormatCSV); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, statement.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	res, err := h.deps.Importer.Import(r.Context(), header.Filename, statement.FormatCSV, file)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Failed to process file", err.Error())
		return
	}

	accounts := res.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	respondJSON(w, http.StatusOK, UploadResponse{
		UploadID:   res.UploadID,
		FileName:   header.Filename,
		Status:     string(uploadlog.StatusCompleted),
		Parsed:     res.Parsed,
		Inserted:   res.Inserted,
		Duplicates: res.Duplicates,
		Accounts:   accounts,
	})
}

// history lists past uploads, newest first.
func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.History.Read()
	if err != nil {
		h.logger.Error("reading upload history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload history")
		return
	}
	entries = slices.Clone(entries)
	slices.Reverse(entries)
	if entries == nil {
		entries = []uploadlog.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// UploadStatusResponse reports the outcome of one past upload.
type UploadStatusResponse struct {
	FileID       string           `json:"fileId"`
	FileName     string           `json:"filename"`
	Status       uploadlog.Status `json:"status"`
	RecordCount  int              `json:"recordCount"`
	UploadTime   time.Time        `json:"uploadTime"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

func (h *handlers) uploadStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok, err := h.deps.History.Find(id)
	if err != nil {
		h.logger.Error("reading upload history", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload history")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Upload not found")
		return
	}
	respondJSON(w, http.StatusOK, UploadStatusResponse{
		FileID:       e.ID,
		FileName:     e.FileName,
		Status:       e.Status,
		RecordCount:  e.RecordCount,
		UploadTime:   e.Timestamp,
		ErrorMessage: e.Error,
	})
}

func (h *handlers) accounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Accounts.WithBalances(r.Context(), h.deps.Balances)
	if err != nil {
		h.logger.Error("listing accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	if list == nil {
		list = []model.Account{}
	}
	respondJSON(w, http.StatusOK, list)
}
