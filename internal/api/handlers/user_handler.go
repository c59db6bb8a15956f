package handlers

import (
	"net/http"

	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles registration, login and session requests.
type UserHandler struct {
	service services.UserServiceProvider
	issuer  *auth.Issuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, issuer *auth.Issuer) *UserHandler {
	return &UserHandler{service: service, issuer: issuer}
}

// CredentialsPayload defines the structure for register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type usernameResponse struct {
	Username string `json:"username"`
}

// Register handles new user registration and starts a session.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(w, r, err, "Registration failed")
		return
	}

	if !h.startSession(w, r, user.ID, user.Username) {
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	writeJSON(w, http.StatusCreated, usernameResponse{Username: user.Username})
}

// Login handles user authentication and session issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			hlog.FromRequest(r).Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		}
		respondError(w, r, err, "Login failed")
		return
	}

	if !h.startSession(w, r, user.ID, user.Username) {
		return
	}
	writeJSON(w, http.StatusOK, usernameResponse{Username: user.Username})
}

// Logout clears the session cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.issuer.Revoke(w)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Me returns the username of the current session.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		Unauthorized(w, r)
		return
	}
	writeJSON(w, http.StatusOK, usernameResponse{Username: claims.Username})
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, userID, username string) bool {
	token, err := h.issuer.Issue(userID, username)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", userID).Msg("Failed to generate JWT")
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return false
	}
	h.issuer.SetCookie(w, token)
	return true
}
