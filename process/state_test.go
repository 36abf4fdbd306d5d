package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/cardroom/services/orchestrator/domain"
)

func testHandStarted(players int) domain.HandStartedEvent {
	e := domain.HandStartedEvent{
		HandNumber:         1,
		Variant:            domain.TexasHoldem,
		DealerPosition:     0,
		SmallBlindPosition: 1,
		BigBlindPosition:   2,
		SmallBlind:         5,
		BigBlind:           10,
	}
	if players == 2 {
		// Heads-up: the dealer posts the small blind.
		e.SmallBlindPosition = 0
		e.BigBlindPosition = 1
	}
	for i := 0; i < players; i++ {
		e.Players = append(e.Players, domain.SeatSnapshot{
			Position:   i,
			PlayerRoot: "player-" + string(rune('a'+i)),
			Chips:      1000,
		})
	}
	return e
}

func TestNewHandProcessTracksEverySeat(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)

	require.Equal(t, domain.HandRoot("table-1", 1), p.HandRoot)
	require.Equal(t, PhaseDealing, p.Phase)
	require.Len(t, p.Players, 3)
	require.Equal(t, []int{0, 1, 2}, p.ActivePositions)
	require.Equal(t, NoPosition, p.ActionOn)

	for i := 0; i < 3; i++ {
		pl := p.Players[i]
		require.Equal(t, i, pl.Position)
		require.Equal(t, int64(1000), pl.Chips)
		require.Zero(t, pl.BetThisRound)
		require.False(t, pl.HasActed)
		require.False(t, pl.HasFolded)
	}
}

func TestNextActivePositionWrapsAround(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)

	require.Equal(t, 1, p.NextActivePosition(0))
	require.Equal(t, 2, p.NextActivePosition(1))
	require.Equal(t, 0, p.NextActivePosition(2))
	require.Equal(t, 0, p.NextActivePosition(7))
}

func TestNextActivePositionSkipsFoldedAndAllIn(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(4), 30*time.Second)
	p.Players[1].HasFolded = true
	p.Players[2].IsAllIn = true

	require.Equal(t, 3, p.NextActivePosition(0))
	require.Equal(t, 0, p.NextActivePosition(3))
}

func TestNextActivePositionNoLiveSeats(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(2), 30*time.Second)
	p.Players[0].HasFolded = true
	p.Players[1].IsAllIn = true

	require.Equal(t, NoPosition, p.NextActivePosition(0))
}

func TestRoundCompleteSingleSurvivor(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)
	p.Players[0].HasFolded = true
	p.Players[2].HasFolded = true

	require.True(t, p.RoundComplete())
}

func TestRoundCompleteRequiresEveryoneActedAndMatched(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)
	p.CurrentBet = 50
	p.Players[0].HasActed = true
	p.Players[0].BetThisRound = 50
	p.Players[1].HasActed = true
	p.Players[1].BetThisRound = 50

	// Seat 2 has not acted yet.
	require.False(t, p.RoundComplete())

	p.Players[2].HasActed = true
	p.Players[2].BetThisRound = 20
	// Acted but short of the current bet.
	require.False(t, p.RoundComplete())

	p.Players[2].BetThisRound = 50
	require.True(t, p.RoundComplete())
}

func TestRoundCompleteIgnoresAllInSeats(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)
	p.CurrentBet = 100
	p.Players[0].HasActed = true
	p.Players[0].BetThisRound = 100
	p.Players[1].HasActed = true
	p.Players[1].BetThisRound = 100
	p.Players[2].IsAllIn = true
	p.Players[2].BetThisRound = 60

	require.True(t, p.RoundComplete())
}

func TestResetForRoundLeavesFoldedAndAllInAlone(t *testing.T) {
	p := newHandProcess("table-1", testHandStarted(3), 30*time.Second)
	for _, pl := range p.Players {
		pl.BetThisRound = 40
		pl.HasActed = true
	}
	p.Players[1].HasFolded = true
	p.Players[2].IsAllIn = true

	for _, pos := range p.ActivePositions {
		p.Players[pos].ResetForRound()
	}

	require.Zero(t, p.Players[0].BetThisRound)
	require.False(t, p.Players[0].HasActed)
	require.Equal(t, int64(40), p.Players[1].BetThisRound)
	require.Equal(t, int64(40), p.Players[2].BetThisRound)
}
