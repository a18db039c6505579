// Package client talks to a remote estatement server. It implements the
// session collaborators so a browsing session can run against the HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/query"
	"github.com/cleared-dev/estatement/internal/server"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// ErrUnauthorized matches API errors with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// Client calls the estatement HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx reply.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return fmt.Sprintf("estatement API error: %s (status: %d, endpoint: %s)", msg, e.StatusCode, e.Endpoint)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (server.LoginResponse, error) {
	body, err := json.Marshal(server.LoginRequest{Username: username, Password: password})
	if err != nil {
		return server.LoginResponse{}, err
	}
	var resp server.LoginResponse
	err = c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", "application/json", bytes.NewReader(body), &resp)
	return resp, err
}

// Fetch returns the full dataset of account ("" for every account).
func (c *Client) Fetch(ctx context.Context, token, account string) ([]model.Transaction, error) {
	path := "/api/statements"
	if account != "" {
		path += "?" + url.Values{"accountNumber": {account}}.Encode()
	}
	var txns []model.Transaction
	if err := c.doJSON(ctx, http.MethodGet, path, token, "", nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// Search runs a paginated search on the server.
func (c *Client) Search(ctx context.Context, token string, p query.Params) (server.PageResponse, error) {
	var resp server.PageResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/transactions?"+p.Values().Encode(), token, "", nil, &resp)
	return resp, err
}

// Export asks the server to render criteria in format. The file name comes
// from Content-Disposition, falling back to the dated default.
func (c *Client) Export(ctx context.Context, token string, criteria query.FilterCriteria, format export.Format) (export.Payload, error) {
	body, err := json.Marshal(criteria)
	if err != nil {
		return export.Payload{}, fmt.Errorf("encoding criteria: %w", err)
	}

	path := "/api/export/" + url.PathEscape(string(format))
	resp, err := c.do(ctx, http.MethodPost, path, token, "application/json", bytes.NewReader(body))
	if err != nil {
		return export.Payload{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return export.Payload{}, fmt.Errorf("reading export: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = format.ContentType()
	}
	return export.Payload{
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition"), format, c.now()),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func dispositionFilename(header string, format export.Format, now time.Time) string {
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return export.Filename(format, now)
}

// Upload sends a statement file for import.
func (c *Client) Upload(ctx context.Context, token, name string, r io.Reader) (server.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return server.UploadResponse{}, fmt.Errorf("creating form: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return server.UploadResponse{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return server.UploadResponse{}, fmt.Errorf("closing form: %w", err)
	}

	var resp server.UploadResponse
	err = c.doJSON(ctx, http.MethodPost, "/api/files/upload", token, mw.FormDataContentType(), &buf, &resp)
	return resp, err
}

// History lists past uploads, newest first.
func (c *Client) History(ctx context.Context, token string) ([]uploadlog.Entry, error) {
	var entries []uploadlog.Entry
	err := c.doJSON(ctx, http.MethodGet, "/api/files/history", token, "", nil, &entries)
	return entries, err
}

// Accounts lists the accounts with their balances.
func (c *Client) Accounts(ctx context.Context, token string) ([]model.Account, error) {
	var list []model.Account
	err := c.doJSON(ctx, http.MethodGet, "/api/accounts", token, "", nil, &list)
	return list, err
}

// Transaction returns one transaction by its bank reference.
func (c *Client) Transaction(ctx context.Context, token, ref string) (model.Transaction, error) {
	var txn model.Transaction
	err := c.doJSON(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(ref), token, "", nil, &txn)
	return txn, err
}

// UploadStatus returns the outcome of the upload with id.
func (c *Client) UploadStatus(ctx context.Context, token, id string) (server.UploadStatusResponse, error) {
	var resp server.UploadStatusResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id)+"/status", token, "", nil, &resp)
	return resp, err
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context, token string) (server.ProfileResponse, error) {
	var resp server.ProfileResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/user/profile", token, "", nil, &resp)
	return resp, err
}

// ChangePassword replaces the password of the signed-in user.
func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	body, err := json.Marshal(server.PasswordChangeRequest{CurrentPassword: current, NewPassword: next})
	if err != nil {
		return err
	}
	var resp server.MessageResponse
	return c.doJSON(ctx, http.MethodPost, "/api/user/change-password", token, "application/json", bytes.NewReader(body), &resp)
}

// Register creates a user on servers that allow self-registration.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body, err := json.Marshal(server.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return err
	}
	var resp server.MessageResponse
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", "application/json", bytes.NewReader(body), &resp)
}

func (c *Client) doJSON(ctx context.Context, method, path, token, contentType string, body io.Reader, result any) error {
	resp, err := c.do(ctx, method, path, token, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// do sends a request and returns the response when its status is 2xx.
func (c *Client) do(ctx context.Context, method, path, token, contentType string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp, path)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: path}

	var body struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Details = body.Errors
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
