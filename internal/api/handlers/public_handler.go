package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/message-drop-be/internal/models"
	"github.com/isdelr/message-drop-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// PublicHandler serves the anonymous receiver side of a drop.
type PublicHandler struct {
	drops    services.DropServiceProvider
	messages services.MessageServiceProvider
	unlock   services.UnlockServiceProvider
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(drops services.DropServiceProvider, messages services.MessageServiceProvider, unlock services.UnlockServiceProvider) *PublicHandler {
	return &PublicHandler{drops: drops, messages: messages, unlock: unlock}
}

type checkPayload struct {
	Nickname string `json:"nickname"`
	Passcode string `json:"passcode"`
}

// Get returns the public view of a drop.
func (h *PublicHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	drop, err := h.drops.GetPublicByUsername(r.Context(), username)
	if err != nil {
		respondError(w, r, err, "Failed to fetch drop")
		return
	}
	writeJSON(w, http.StatusOK, drop)
}

// Autocomplete suggests nicknames once the query has at least four characters.
func (h *PublicHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	nicknames, err := h.messages.Autocomplete(r.Context(), username, r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err, "Autocomplete failed")
		return
	}
	writeJSON(w, http.StatusOK, nicknames)
}

// Check verifies a nickname and passcode and reveals the content on a match.
func (h *PublicHandler) Check(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var payload checkPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	result, err := h.unlock.Check(r.Context(), username, payload.Nickname, payload.Passcode)
	if err != nil {
		respondError(w, r, err, "Failed to check inbox")
		return
	}

	if result.Stage == models.Resolved {
		hlog.FromRequest(r).Info().Str("username", username).Str("nickname", payload.Nickname).Msg("Message unlocked")
	}
	writeJSON(w, http.StatusOK, result)
}
