// Package brackets holds the fixed single-elimination bracket and its
// winner-advancement rules. The bracket is a binary tree of seven matches:
// four quarterfinals feeding two semifinals feeding one final.
package brackets

import (
	"errors"
	"fmt"

	"github.com/gameport/arena/models"
)

// PlaceholderName fills any slot without a known participant.
const PlaceholderName = "TBD"

const (
	MatchQF1   = "qf1"
	MatchQF2   = "qf2"
	MatchQF3   = "qf3"
	MatchQF4   = "qf4"
	MatchSemi1 = "semi1"
	MatchSemi2 = "semi2"
	MatchFinal = "final"
)

// quarterfinals in slot-filling order: qf1 takes participants 0 and 1,
// qf2 takes 2 and 3, and so on.
var quarterfinals = []string{MatchQF1, MatchQF2, MatchQF3, MatchQF4}

var ErrUnknownMatch = errors.New("unknown bracket match")

// MatchUpdate carries the changed fields of one match; nil fields are left
// as stored.
type MatchUpdate struct {
	Player1 *string
	Player2 *string
	Score1  *int
	Score2  *int
	Winner  *models.WinnerSlot
}

// SeedData builds the canonical empty bracket plus an empty leaderboard.
func SeedData() models.TournamentData {
	next := func(id string) *string { return &id }

	return models.TournamentData{
		Matches: map[string]models.BracketMatch{
			MatchQF1:   {ID: MatchQF1, NextMatchID: next(MatchSemi1), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchQF2:   {ID: MatchQF2, NextMatchID: next(MatchSemi1), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchQF3:   {ID: MatchQF3, NextMatchID: next(MatchSemi2), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchQF4:   {ID: MatchQF4, NextMatchID: next(MatchSemi2), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchSemi1: {ID: MatchSemi1, NextMatchID: next(MatchFinal), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchSemi2: {ID: MatchSemi2, NextMatchID: next(MatchFinal), Player1: PlaceholderName, Player2: PlaceholderName},
			MatchFinal: {ID: MatchFinal, Player1: PlaceholderName, Player2: PlaceholderName},
		},
		Leaderboard: []models.LeaderboardEntry{},
	}
}

// ApplyMatchUpdate merges upd into the identified match and, when the merged
// record carries a winner and a successor, advances the winner's display
// name into the successor's fixed slot. Both mutations land in data.Matches
// so the caller persists them as one write.
//
// Advancement fires on every update whose merged record carries a winner,
// even when the update itself did not change the winner. Re-selecting the
// same winner re-advances, and renaming a decided match's player advances
// the new name on that same update.
func ApplyMatchUpdate(data *models.TournamentData, matchID string, upd MatchUpdate) error {
	match, ok := data.Matches[matchID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMatch, matchID)
	}

	if upd.Player1 != nil {
		match.Player1 = *upd.Player1
	}
	if upd.Player2 != nil {
		match.Player2 = *upd.Player2
	}
	if upd.Score1 != nil {
		match.Score1 = *upd.Score1
	}
	if upd.Score2 != nil {
		match.Score2 = *upd.Score2
	}
	if upd.Winner != nil {
		winner := *upd.Winner
		match.Winner = &winner
	}
	data.Matches[matchID] = match

	if match.Winner == nil || match.NextMatchID == nil {
		return nil
	}

	successor, ok := data.Matches[*match.NextMatchID]
	if !ok {
		return fmt.Errorf("%w: successor %q of %q", ErrUnknownMatch, *match.NextMatchID, matchID)
	}

	winnerName := match.Player1
	if *match.Winner != models.WinnerPlayer1 {
		winnerName = match.Player2
	}

	if feedsPlayer2Slot(matchID) {
		successor.Player2 = winnerName
	} else {
		successor.Player1 = winnerName
	}
	data.Matches[*match.NextMatchID] = successor

	return nil
}

// feedsPlayer2Slot encodes the fixed slot convention: qf2, qf4 and semi2
// advance into the player2 slot of their successor, everything else into
// player1.
func feedsPlayer2Slot(matchID string) bool {
	return matchID == MatchQF2 || matchID == MatchQF4 || matchID == MatchSemi2
}

// AutoFill overwrites the quarterfinal slots with participants taken
// two-at-a-time in order, padding with the placeholder, and replaces the
// leaderboard with one zero-score entry per participant ranked by input
// position. Semifinals and the final are left as they are.
func AutoFill(data *models.TournamentData, participants []string) {
	idx := 0
	for _, matchID := range quarterfinals {
		match, ok := data.Matches[matchID]
		if !ok {
			continue
		}
		match.Player1 = participantAt(participants, idx)
		match.Player2 = participantAt(participants, idx+1)
		data.Matches[matchID] = match
		idx += 2
	}

	leaderboard := make([]models.LeaderboardEntry, 0, len(participants))
	for i, name := range participants {
		leaderboard = append(leaderboard, models.LeaderboardEntry{
			ID:       fmt.Sprintf("p_%d", i),
			Rank:     i + 1,
			Username: name,
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name),
			Score:    0,
			Coins:    0,
		})
	}
	data.Leaderboard = leaderboard
}

func participantAt(participants []string, i int) string {
	if i < len(participants) {
		return participants[i]
	}
	return PlaceholderName
}
