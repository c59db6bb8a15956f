package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/models"
	"github.com/isdelr/message-drop-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// DropHandler handles the sender's own drop, its messages and views.
type DropHandler struct {
	drops    services.DropServiceProvider
	messages services.MessageServiceProvider
	views    services.ViewServiceProvider
}

// NewDropHandler creates a new DropHandler.
func NewDropHandler(drops services.DropServiceProvider, messages services.MessageServiceProvider, views services.ViewServiceProvider) *DropHandler {
	return &DropHandler{drops: drops, messages: messages, views: views}
}

// messageResponse is the owner-facing projection of a message. It has no
// passcode hash field.
type messageResponse struct {
	ID        string    `json:"id"`
	DropID    string    `json:"drop_id"`
	Nickname  string    `json:"nickname"`
	Question  string    `json:"question"`
	Hint      *string   `json:"hint"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ViewCount int       `json:"view_count"`
}

func toMessageResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		DropID:    m.DropID,
		Nickname:  m.Nickname,
		Question:  m.Question,
		Hint:      m.Hint,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		ViewCount: m.ViewCount,
	}
}

type upsertDropPayload struct {
	GenericMessage string `json:"genericMessage"`
}

type upsertDropResponse struct {
	DropID   string `json:"dropId"`
	Username string `json:"username"`
}

type mineResponse struct {
	Drop     *models.Drop      `json:"drop"`
	Messages []messageResponse `json:"messages"`
	Views    []models.View     `json:"views"`
}

// Upsert creates the caller's drop (201) or updates its generic message (200).
func (h *DropHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var payload upsertDropPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	drop, created, err := h.drops.CreateOrUpdate(r.Context(), claims.UserID, payload.GenericMessage)
	if err != nil {
		respondError(w, r, err, "Failed to create drop")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		hlog.FromRequest(r).Info().Str("user_id", claims.UserID).Str("drop_id", drop.ID).Msg("Drop created")
	}
	writeJSON(w, status, upsertDropResponse{DropID: drop.ID, Username: claims.Username})
}

// Mine returns the caller's drop with its messages and views.
func (h *DropHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	ctx := r.Context()

	resp := mineResponse{Messages: []messageResponse{}, Views: []models.View{}}

	drop, err := h.drops.GetByUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		respondError(w, r, err, "Failed to fetch drop")
		return
	}
	resp.Drop = &drop

	messages, err := h.messages.ListByDrop(ctx, drop.ID)
	if err != nil {
		respondError(w, r, err, "Failed to fetch drop")
		return
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}

	views, err := h.views.ListByDrop(ctx, drop.ID)
	if err != nil {
		respondError(w, r, err, "Failed to fetch drop")
		return
	}
	resp.Views = views

	writeJSON(w, http.StatusOK, resp)
}

// AddMessage adds a personalized message to the caller's drop.
func (h *DropHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var payload models.NewMessage
	if !decodeBody(w, r, &payload) {
		return
	}

	msg, err := h.messages.Add(r.Context(), claims.UserID, payload)
	if err != nil {
		respondError(w, r, err, "Failed to add message")
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", claims.UserID).Str("drop_id", msg.DropID).Str("message_id", msg.ID).Msg("Message added")
	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// DeleteMessage removes a message from the caller's drop. The id comes from
// the "id" query parameter.
func (h *DropHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Message ID required")
		return
	}

	drop, err := h.drops.GetByUser(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, err, "Failed to delete message")
		return
	}

	if err := h.messages.Delete(r.Context(), id, drop.ID); err != nil {
		respondError(w, r, err, "Failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
