package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/estatement/internal/auth"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/logging"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/server"
	"github.com/cleared-dev/estatement/internal/session"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", WithLogger(logging.Discard()), WithRateLimit(1000))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetch(t *testing.T) {
	var gotAuth, gotAccount string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/statements", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.URL.Query().Get("accountNumber")
		writeJSON(w, http.StatusOK, model.SampleTransactions())
	}))

	txns, err := c.Fetch(context.Background(), "tok", model.SampleAccount)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, model.SampleAccount, gotAccount)
	require.Len(t, txns, 5)
	assert.Equal(t, "BNK0001", txns[0].ReferenceID)
	assert.True(t, txns[0].Withdrawal.Valid)
	assert.False(t, txns[0].Credit.Valid)
}

func TestFetch_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid or expired token"})
	}))

	_, err := c.Fetch(context.Background(), "stale", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
	assert.Equal(t, "/api/statements", apiErr.Endpoint)
}

func TestAPIError_PlainBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	_, err := c.Accounts(context.Background(), "tok")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestSearch_EncodesParams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "debit", q.Get("type"))
		assert.Equal(t, "amount", q.Get("sortBy"))
		assert.Equal(t, "asc", q.Get("sortOrder"))
		assert.Equal(t, "2", q.Get("page"))
		writeJSON(w, http.StatusOK, server.PageResponse{CurrentPage: 2, TotalPages: 3, TotalElements: 25, PageSize: 10})
	}))

	p := query.Params{
		Criteria:   query.FilterCriteria{Type: query.TypeDebit},
		Sort:       query.SortSpec{Field: query.SortByAmount, Order: query.Asc},
		Pagination: query.Pagination{PageNumber: 2, PageSize: 10},
	}
	resp, err := c.Search(context.Background(), "tok", p)
	require.NoError(t, err)
	assert.Equal(t, 25, resp.TotalElements)
}

func TestExport_FilenameFromHeader(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/export/pdf", r.URL.Path)
		var criteria query.FilterCriteria
		require.NoError(t, json.NewDecoder(r.Body).Decode(&criteria))
		assert.Equal(t, "pos", criteria.Description)

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="statement-dec.pdf"`)
		_, _ = io.WriteString(w, "%PDF-1.3")
	}))

	payload, err := c.Export(context.Background(), "tok", query.FilterCriteria{Description: "pos"}, export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "statement-dec.pdf", payload.Filename)
	assert.Equal(t, "application/pdf", payload.ContentType)
	assert.Equal(t, []byte("%PDF-1.3"), payload.Data)
}

func TestExport_FilenameFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "xlsx-bytes")
	}))
	c.now = func() time.Time { return time.Date(2024, time.July, 9, 12, 0, 0, 0, time.UTC) }

	payload, err := c.Export(context.Background(), "tok", query.DefaultCriteria(), export.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "transactions-export-2024-07-09.xlsx", payload.Filename)
}

func TestDispositionFilename(t *testing.T) {
	day := time.Date(2024, time.July, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "a.pdf", dispositionFilename(`attachment; filename="a.pdf"`, export.FormatPDF, day))
	assert.Equal(t, "a.pdf", dispositionFilename(`attachment; filename=a.pdf`, export.FormatPDF, day))
	assert.Equal(t, "transactions-export-2024-07-09.pdf", dispositionFilename(`attachment`, export.FormatPDF, day))
	assert.Equal(t, "transactions-export-2024-07-09.pdf", dispositionFilename("", export.FormatPDF, day))
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "dec.csv", header.Filename)
		assert.Equal(t, "a,b\n", string(data))
		writeJSON(w, http.StatusOK, server.UploadResponse{UploadID: "u1", FileName: header.Filename, Inserted: 3})
	}))

	resp, err := c.Upload(context.Background(), "tok", "dec.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UploadID)
	assert.Equal(t, 3, resp.Inserted)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req server.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
			return
		}
		writeJSON(w, http.StatusOK, server.LoginResponse{Username: req.Username, Token: "jwt", Roles: []string{auth.DefaultRole}})
	}))

	resp, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)

	_, err = c.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionOverClient(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, model.SampleTransactions())
	}))

	ctrl := session.New(session.Options{
		Source:      c,
		Exporter:    c,
		Credentials: auth.Token("jwt"),
		PageSize:    2,
		Logger:      logging.Discard(),
	})
	defer ctrl.Close()

	state, err := ctrl.Load(context.Background(), model.SampleAccount)
	require.NoError(t, err)
	assert.Equal(t, 5, state.DatasetLen)
	assert.Equal(t, 3, state.Pagination.TotalPages)
	require.Len(t, state.Visible, 2)
	assert.Equal(t, "BNK0005", state.Visible[0].ReferenceID)

	bad := session.New(session.Options{Source: c, Logger: logging.Discard()})
	defer bad.Close()
	_, err = bad.Load(context.Background(), model.SampleAccount)
	assert.ErrorIs(t, err, session.ErrTransport)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransactionAndUploadStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/transactions/BNK0002":
			writeJSON(w, http.StatusOK, model.SampleTransactions()[1])
		case "/api/files/abc/status":
			writeJSON(w, http.StatusOK, server.UploadStatusResponse{FileID: "abc", FileName: "s.csv", Status: "failed", ErrorMessage: "bad row"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Transaction not found"})
		}
	}))
	ctx := context.Background()

	txn, err := c.Transaction(ctx, "tok", "BNK0002")
	require.NoError(t, err)
	assert.Equal(t, "BNK0002", txn.ReferenceID)

	_, err = c.Transaction(ctx, "tok", "BNK9999")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	st, err := c.UploadStatus(ctx, "tok", "abc")
	require.NoError(t, err)
	assert.Equal(t, "bad row", st.ErrorMessage)
}

func TestUserEndpoints(t *testing.T) {
	var change server.PasswordChangeRequest
	var reg server.RegisterRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/profile":
			writeJSON(w, http.StatusOK, server.ProfileResponse{Username: "alice", Roles: []string{"ROLE_USER"}})
		case "/api/user/change-password":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&change))
			writeJSON(w, http.StatusOK, server.MessageResponse{Message: "Password updated successfully"})
		case "/api/auth/register":
			assert.Empty(t, r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
			writeJSON(w, http.StatusCreated, server.MessageResponse{Message: "User registered successfully"})
		}
	}))
	ctx := context.Background()

	p, err := c.Profile(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	require.NoError(t, c.ChangePassword(ctx, "tok", "old", "new"))
	assert.Equal(t, server.PasswordChangeRequest{CurrentPassword: "old", NewPassword: "new"}, change)

	require.NoError(t, c.Register(ctx, "bob", "bob@example.com", "pw"))
	assert.Equal(t, "bob", reg.Username)
	assert.Equal(t, "bob@example.com", reg.Email)
}
