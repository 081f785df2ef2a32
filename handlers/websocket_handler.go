package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/gameport/arena/realtime"
	"github.com/gameport/arena/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Deployments restrict Origin at the proxy; the service itself
		// accepts any.
		return true
	},
}

type WebSocketHandler struct {
	hub        *realtime.Hub
	tournament services.TournamentService
	logger     *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, tournament services.TournamentService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		tournament: tournament,
		logger:     logger,
	}
}

// ServeTournamentWs streams TournamentData snapshots for one tournament:
// the current value on connect, then every change. The data is seeded first
// so a spectator never waits on an empty path.
func (h *WebSocketHandler) ServeTournamentWs(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		http.Error(w, "missing tournamentID", http.StatusBadRequest)
		return
	}

	if err := h.tournament.EnsureSeeded(r.Context(), tournamentID); err != nil {
		h.logger.Error("failed to seed tournament for websocket",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		http.Error(w, "failed to prepare tournament data", http.StatusInternalServerError)
		return
	}

	h.serve(w, r, "tournaments/"+tournamentID)
}

// ServeChatWs streams the whole message list of one chat on every change.
func (h *WebSocketHandler) ServeChatWs(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		http.Error(w, "missing chatID", http.StatusBadRequest)
		return
	}

	h.serve(w, r, "chats/"+chatID)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, path string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Error("websocket upgrade failed", slog.String("path", path), slog.Any("error", err))
		return
	}

	// Join replays the current snapshot synchronously; the pumps it
	// starts own the connection from here on.
	if err := h.hub.Join(r.Context(), path, conn); err != nil {
		h.logger.Error("failed to join room", slog.String("path", path), slog.Any("error", err))
		conn.Close()
	}
}
