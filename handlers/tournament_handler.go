package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gameport/arena/brackets"
	"github.com/gameport/arena/models"
	"github.com/gameport/arena/services"
)

type TournamentHandler struct {
	service services.TournamentService
}

func NewTournamentHandler(service services.TournamentService) *TournamentHandler {
	return &TournamentHandler{service: service}
}

// GetDataHandler returns the current bracket and leaderboard, seeding the
// canonical empty structure on first access.
// @Summary Get tournament data
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} models.TournamentData
// @Router /tournaments/{tournamentID}/data [get]
func (h *TournamentHandler) GetDataHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	data, err := h.service.GetData(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SeedHandler creates the empty bracket if nothing is stored yet; a second
// call is a no-op.
// @Summary Seed tournament data
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 204
// @Router /tournaments/{tournamentID}/data/seed [post]
func (h *TournamentHandler) SeedHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	if err := h.service.EnsureSeeded(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchUpdateRequest struct {
	Player1 *string `json:"player1"`
	Player2 *string `json:"player2"`
	Score1  *int    `json:"score1"`
	Score2  *int    `json:"score2"`
	Winner  *string `json:"winner"`
}

// UpdateMatchHandler applies a partial match update; a winner field also
// advances the winner's name into the next match.
// @Summary Update a bracket match
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param matchID path string true "Match ID (qf1..qf4, semi1, semi2, final)"
// @Success 200 {object} models.TournamentData
// @Router /tournaments/{tournamentID}/matches/{matchID} [patch]
func (h *TournamentHandler) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	matchID := chi.URLParam(r, "matchID")
	if tournamentID == "" || matchID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID or matchID"))
		return
	}

	var input matchUpdateRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	upd := brackets.MatchUpdate{
		Player1: input.Player1,
		Player2: input.Player2,
		Score1:  input.Score1,
		Score2:  input.Score2,
	}
	if input.Winner != nil {
		winner := models.WinnerSlot(*input.Winner)
		upd.Winner = &winner
	}

	data, err := h.service.ApplyMatchUpdate(r.Context(), tournamentID, matchID, upd)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type leaderboardUpdateRequest struct {
	Rank     *int    `json:"rank"`
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
	Score    *int    `json:"score"`
	Coins    *int    `json:"coins"`
}

// UpdateLeaderboardEntryHandler applies a partial leaderboard entry update.
// @Summary Update a leaderboard entry
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param entryID path string true "Leaderboard entry ID"
// @Success 200 {object} models.TournamentData
// @Router /tournaments/{tournamentID}/leaderboard/{entryID} [patch]
func (h *TournamentHandler) UpdateLeaderboardEntryHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	entryID := chi.URLParam(r, "entryID")
	if tournamentID == "" || entryID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID or entryID"))
		return
	}

	var input leaderboardUpdateRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	data, err := h.service.ApplyLeaderboardUpdate(r.Context(), tournamentID, entryID, services.LeaderboardUpdate{
		Rank:     input.Rank,
		Username: input.Username,
		Avatar:   input.Avatar,
		Score:    input.Score,
		Coins:    input.Coins,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type autoFillRequest struct {
	Participants []string `json:"participants"`
	Confirm      bool     `json:"confirm"`
}

// AutoFillHandler bulk-overwrites the quarterfinal slots and the whole
// leaderboard from the given roster. Requires confirm=true because the
// overwrite is destructive.
// @Summary Auto-fill bracket from participants
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} models.TournamentData
// @Router /tournaments/{tournamentID}/autofill [post]
func (h *TournamentHandler) AutoFillHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID"))
		return
	}

	var input autoFillRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Confirm {
		badRequestResponse(w, r, errors.New("auto-fill overwrites the bracket and leaderboard; set confirm to true"))
		return
	}

	data, err := h.service.AutoFill(r.Context(), tournamentID, input.Participants)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatarHandler stores an avatar image for a leaderboard entry and
// updates the entry's avatar URL.
// @Summary Upload a leaderboard avatar
// @Tags tournaments
// @Accept png,jpeg
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param entryID path string true "Leaderboard entry ID"
// @Success 200 {object} models.TournamentData
// @Router /tournaments/{tournamentID}/leaderboard/{entryID}/avatar [post]
func (h *TournamentHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	entryID := chi.URLParam(r, "entryID")
	if tournamentID == "" || entryID == "" {
		badRequestResponse(w, r, errors.New("missing tournamentID or entryID"))
		return
	}

	const maxAvatarBytes = 5 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)

	contentType := r.Header.Get("Content-Type")
	data, err := h.service.UploadLeaderboardAvatar(r.Context(), tournamentID, entryID, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": data}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
