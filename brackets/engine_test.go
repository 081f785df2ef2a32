package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameport/arena/models"
)

func strPtr(s string) *string                      { return &s }
func intPtr(i int) *int                            { return &i }
func winnerPtr(w models.WinnerSlot) *models.WinnerSlot { return &w }

func TestSeedDataShape(t *testing.T) {
	data := SeedData()

	require.Len(t, data.Matches, 7)
	assert.Empty(t, data.Leaderboard)

	successors := map[string]string{
		MatchQF1:   MatchSemi1,
		MatchQF2:   MatchSemi1,
		MatchQF3:   MatchSemi2,
		MatchQF4:   MatchSemi2,
		MatchSemi1: MatchFinal,
		MatchSemi2: MatchFinal,
	}
	for id, next := range successors {
		match := data.Matches[id]
		require.NotNil(t, match.NextMatchID, id)
		assert.Equal(t, next, *match.NextMatchID, id)
	}
	assert.Nil(t, data.Matches[MatchFinal].NextMatchID, "the final has no successor")

	for id, match := range data.Matches {
		assert.Equal(t, id, match.ID)
		assert.Equal(t, PlaceholderName, match.Player1)
		assert.Equal(t, PlaceholderName, match.Player2)
		assert.Zero(t, match.Score1)
		assert.Zero(t, match.Score2)
		assert.Nil(t, match.Winner)
	}
}

func TestApplyMatchUpdateMergesFields(t *testing.T) {
	data := SeedData()

	err := ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{
		Player1: strPtr("Alice"),
		Score1:  intPtr(12),
	})
	require.NoError(t, err)

	match := data.Matches[MatchQF1]
	assert.Equal(t, "Alice", match.Player1)
	assert.Equal(t, 12, match.Score1)
	assert.Equal(t, PlaceholderName, match.Player2, "untouched fields keep their values")
	assert.Zero(t, match.Score2)
}

func TestApplyMatchUpdateUnknownMatch(t *testing.T) {
	data := SeedData()

	err := ApplyMatchUpdate(&data, "qf9", MatchUpdate{Score1: intPtr(1)})
	assert.ErrorIs(t, err, ErrUnknownMatch)
}

func TestWinnerAdvancesIntoCorrectSlot(t *testing.T) {
	cases := []struct {
		matchID     string
		successor   string
		player2Slot bool
	}{
		{MatchQF1, MatchSemi1, false},
		{MatchQF2, MatchSemi1, true},
		{MatchQF3, MatchSemi2, false},
		{MatchQF4, MatchSemi2, true},
		{MatchSemi1, MatchFinal, false},
		{MatchSemi2, MatchFinal, true},
	}

	for _, tc := range cases {
		t.Run(tc.matchID, func(t *testing.T) {
			data := SeedData()
			require.NoError(t, ApplyMatchUpdate(&data, tc.matchID, MatchUpdate{Player1: strPtr("Winner A")}))
			require.NoError(t, ApplyMatchUpdate(&data, tc.matchID, MatchUpdate{Player2: strPtr("Loser B")}))

			before := data.Matches[tc.successor]
			require.NoError(t, ApplyMatchUpdate(&data, tc.matchID, MatchUpdate{Winner: winnerPtr(models.WinnerPlayer1)}))

			after := data.Matches[tc.successor]
			if tc.player2Slot {
				assert.Equal(t, "Winner A", after.Player2)
				assert.Equal(t, before.Player1, after.Player1)
			} else {
				assert.Equal(t, "Winner A", after.Player1)
				assert.Equal(t, before.Player2, after.Player2)
			}
			assert.Equal(t, before.Score1, after.Score1, "no other successor field changes")
			assert.Equal(t, before.Score2, after.Score2)
			assert.Equal(t, before.Winner, after.Winner)
		})
	}
}

func TestWinnerPlayer2Advances(t *testing.T) {
	data := SeedData()
	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{
		Player1: strPtr("Alice"),
		Player2: strPtr("Bob"),
	}))

	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Winner: winnerPtr(models.WinnerPlayer2)}))

	assert.Equal(t, "Bob", data.Matches[MatchSemi1].Player1)
}

func TestFinalWinnerDoesNotAdvance(t *testing.T) {
	data := SeedData()

	require.NoError(t, ApplyMatchUpdate(&data, MatchFinal, MatchUpdate{
		Player1: strPtr("Alice"),
		Winner:  winnerPtr(models.WinnerPlayer1),
	}))

	winner := data.Matches[MatchFinal].Winner
	require.NotNil(t, winner)
	assert.Equal(t, models.WinnerPlayer1, *winner)
}

func TestReselectingWinnerRepropagates(t *testing.T) {
	data := SeedData()
	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Player1: strPtr("Alice")}))
	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Winner: winnerPtr(models.WinnerPlayer1)}))

	// Manually clobber the advanced slot, then re-select the same winner.
	semi := data.Matches[MatchSemi1]
	semi.Player1 = "Nobody"
	data.Matches[MatchSemi1] = semi

	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Winner: winnerPtr(models.WinnerPlayer1)}))
	assert.Equal(t, "Alice", data.Matches[MatchSemi1].Player1)
}

func TestRenameOfDecidedMatchAdvancesNewName(t *testing.T) {
	data := SeedData()
	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Player1: strPtr("Alice")}))
	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Winner: winnerPtr(models.WinnerPlayer1)}))
	require.Equal(t, "Alice", data.Matches[MatchSemi1].Player1)

	require.NoError(t, ApplyMatchUpdate(&data, MatchQF1, MatchUpdate{Player1: strPtr("Alicia")}))
	assert.Equal(t, "Alicia", data.Matches[MatchSemi1].Player1,
		"the merged record still carries the winner, so the rename advances too")
}

func TestAutoFillDeterminism(t *testing.T) {
	data := SeedData()
	AutoFill(&data, []string{"A", "B", "C"})

	assert.Equal(t, "A", data.Matches[MatchQF1].Player1)
	assert.Equal(t, "B", data.Matches[MatchQF1].Player2)
	assert.Equal(t, "C", data.Matches[MatchQF2].Player1)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF2].Player2)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF3].Player1)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF3].Player2)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF4].Player1)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF4].Player2)

	require.Len(t, data.Leaderboard, 3)
	for i, name := range []string{"A", "B", "C"} {
		entry := data.Leaderboard[i]
		assert.Equal(t, i+1, entry.Rank)
		assert.Equal(t, name, entry.Username)
		assert.Zero(t, entry.Score)
		assert.Zero(t, entry.Coins)
	}
}

func TestAutoFillOverwritesPreviousRoster(t *testing.T) {
	data := SeedData()
	AutoFill(&data, []string{"A", "B", "C", "D", "E", "F", "G", "H"})
	require.Equal(t, "H", data.Matches[MatchQF4].Player2)

	AutoFill(&data, []string{"X", "Y"})
	assert.Equal(t, "X", data.Matches[MatchQF1].Player1)
	assert.Equal(t, "Y", data.Matches[MatchQF1].Player2)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF2].Player1)
	assert.Equal(t, PlaceholderName, data.Matches[MatchQF4].Player2)
	require.Len(t, data.Leaderboard, 2, "leaderboard is replaced, not merged")
}

func TestAutoFillLeavesLaterRoundsAlone(t *testing.T) {
	data := SeedData()
	require.NoError(t, ApplyMatchUpdate(&data, MatchSemi1, MatchUpdate{Player1: strPtr("Carried")}))

	AutoFill(&data, []string{"A", "B"})
	assert.Equal(t, "Carried", data.Matches[MatchSemi1].Player1)
}
