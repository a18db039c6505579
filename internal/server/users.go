package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cleared-dev/estatement/internal/auth"
)

// ProfileResponse describes the signed-in user.
type ProfileResponse struct {
	Username  string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	user, ok := h.deps.Users.Find(claims.Subject)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, ProfileResponse{
		Username:  user.Username,
		Email:     user.Email,
		Roles:     []string{user.Role},
		UpdatedAt: user.UpdatedAt,
	})
}

// PasswordChangeRequest is the body of POST /api/user/change-password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordChangeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid password change request")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	err := h.deps.Users.ChangePassword(claims.Subject, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "Invalid current password")
		return
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		h.logger.Error("changing password", "username", claims.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	h.logger.Info("password changed", "username", claims.Subject)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if !h.deps.AllowRegistration {
		writeError(w, http.StatusForbidden, "Registration is disabled")
		return
	}
	if !h.limiter.Allow(clientAddr(r)) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many attempts")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid registration request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.deps.Users.Register(req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusBadRequest, "Username is already taken")
		return
	case err != nil:
		h.logger.Error("registering user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.logger.Info("user registered", "username", user.Username)
	respondJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}
