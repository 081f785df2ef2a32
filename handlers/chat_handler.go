package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gameport/arena/services"
)

type ChatHandler struct {
	service services.ChatService
}

func NewChatHandler(service services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// ResolveChatHandler returns the canonical chat id for a participant pair;
// either order of the two ids resolves to the same chat.
// @Summary Resolve the canonical chat id for two users
// @Tags chats
// @Produce json
// @Param user1 query string true "First participant id"
// @Param user2 query string true "Second participant id"
// @Success 200 {object} map[string]string
// @Router /chats/resolve [get]
func (h *ChatHandler) ResolveChatHandler(w http.ResponseWriter, r *http.Request) {
	user1 := r.URL.Query().Get("user1")
	user2 := r.URL.Query().Get("user2")

	chatID, err := h.service.ChatIDFor(user1, user2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"chat_id": chatID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMessagesHandler returns the whole message list for a chat.
// @Summary List chat messages
// @Tags chats
// @Produce json
// @Param chatID path string true "Chat ID"
// @Success 200 {array} models.ChatMessage
// @Router /chats/{chatID}/messages [get]
func (h *ChatHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		badRequestResponse(w, r, errors.New("missing chatID"))
		return
	}

	messages, err := h.service.History(r.Context(), chatID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": messages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type sendMessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// SendMessageHandler appends one message to the chat. Blank text is
// rejected here; the store layer does not validate content.
// @Summary Send a chat message
// @Tags chats
// @Accept json
// @Produce json
// @Param chatID path string true "Chat ID"
// @Success 201 {object} models.ChatMessage
// @Router /chats/{chatID}/messages [post]
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		badRequestResponse(w, r, errors.New("missing chatID"))
		return
	}

	var input sendMessageRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.SenderID == "" {
		mapServiceErrorToHTTP(w, r, services.ErrSenderRequired)
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		mapServiceErrorToHTTP(w, r, services.ErrEmptyMessage)
		return
	}

	message, err := h.service.Send(r.Context(), chatID, input.SenderID, input.Text)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": message}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
