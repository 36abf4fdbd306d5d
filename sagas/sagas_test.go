package sagas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/saga"
)

// stubOracle hands out consecutive sequence numbers per stream.
type stubOracle struct {
	next map[string]uint32
}

func newStubOracle() *stubOracle {
	return &stubOracle{next: make(map[string]uint32)}
}

func (o *stubOracle) NextSequence(ctx context.Context, aggregateDomain, root string) (uint32, error) {
	key := aggregateDomain + "/" + root
	seq := o.next[key]
	o.next[key] = seq + 1
	return seq, nil
}

func route(t *testing.T, s saga.Saga, aggregateDomain, root string, events ...domain.Event) []*domain.CommandBook {
	t.Helper()
	router := saga.NewRouter(newStubOracle())
	router.Register(s)

	book := &domain.EventBook{
		Cover: domain.Cover{Domain: aggregateDomain, Root: root},
	}
	for i, e := range events {
		book.Pages = append(book.Pages, &domain.EventPage{
			Sequence: uint32(i),
			Event:    e,
		})
	}
	return router.Route(context.Background(), book)
}

func TestTableHandSyncDealsCardsForNewHand(t *testing.T) {
	started := domain.HandStartedEvent{
		HandNumber: 7,
		Variant:    domain.TexasHoldem,
		Players: []domain.SeatSnapshot{
			{Position: 0, PlayerRoot: "player-a", Chips: 500},
			{Position: 1, PlayerRoot: "player-b", Chips: 800},
		},
		DealerPosition:     0,
		SmallBlindPosition: 0,
		BigBlindPosition:   1,
		SmallBlind:         5,
		BigBlind:           10,
	}

	books := route(t, NewTableHandSync(), domain.TableDomain, "table-1", started)
	require.Len(t, books, 1)

	book := books[0]
	require.Equal(t, domain.HandDomain, book.Cover.Domain)
	require.Equal(t, domain.HandRoot("table-1", 7), book.Cover.Root)
	require.Len(t, book.Pages, 1)

	cmd, ok := book.Pages[0].Command.(domain.DealCardsCommand)
	require.True(t, ok)
	require.Equal(t, "table-1", cmd.TableRoot)
	require.Equal(t, uint64(7), cmd.HandNumber)
	require.Equal(t, domain.TexasHoldem, cmd.Variant)
	require.Equal(t, started.Players, cmd.Players)
	require.Equal(t, int64(10), cmd.BigBlind)
}

func TestTableHandSyncDerivesStableHandRoots(t *testing.T) {
	first := route(t, NewTableHandSync(), domain.TableDomain, "table-1", domain.HandStartedEvent{HandNumber: 7})
	second := route(t, NewTableHandSync(), domain.TableDomain, "table-1", domain.HandStartedEvent{HandNumber: 7})
	other := route(t, NewTableHandSync(), domain.TableDomain, "table-1", domain.HandStartedEvent{HandNumber: 8})

	require.Equal(t, first[0].Cover.Root, second[0].Cover.Root)
	require.NotEqual(t, first[0].Cover.Root, other[0].Cover.Root)
}

func TestTableHandSyncReportsResultsBackToTable(t *testing.T) {
	complete := domain.HandCompleteEvent{
		TableRoot:  "table-1",
		HandNumber: 7,
		Results: []domain.PotResult{
			{Position: 1, PlayerRoot: "player-b", Amount: 120, PotType: "main"},
		},
	}

	books := route(t, NewTableHandSync(), domain.HandDomain, domain.HandRoot("table-1", 7), complete)
	require.Len(t, books, 1)
	require.Equal(t, domain.TableDomain, books[0].Cover.Domain)
	require.Equal(t, "table-1", books[0].Cover.Root)

	cmd, ok := books[0].Pages[0].Command.(domain.EndHandCommand)
	require.True(t, ok)
	require.Equal(t, uint64(7), cmd.HandNumber)
	require.Equal(t, complete.Results, cmd.Results)
}

func TestTableHandSyncSkipsHandCompleteWithoutTableRoot(t *testing.T) {
	books := route(t, NewTableHandSync(), domain.HandDomain, "hand-1", domain.HandCompleteEvent{HandNumber: 7})
	require.Empty(t, books)
}

func TestHandPlayerSettlementReleasesFundsPerPlayer(t *testing.T) {
	ended := domain.HandEndedEvent{
		HandNumber: 7,
		StackChanges: map[string]int64{
			"player-b": 120,
			"player-a": -120,
		},
	}

	books := route(t, NewHandPlayerSettlement(), domain.TableDomain, "table-1", ended)
	require.Len(t, books, 2)

	// One book per player, in sorted root order.
	require.Equal(t, "player-a", books[0].Cover.Root)
	require.Equal(t, "player-b", books[1].Cover.Root)
	for _, book := range books {
		require.Equal(t, domain.PlayerDomain, book.Cover.Domain)
		cmd, ok := book.Pages[0].Command.(domain.ReleaseFundsCommand)
		require.True(t, ok)
		require.Equal(t, "table-1", cmd.TableRoot)
	}
}

func TestHandPlayerSettlementDepositsPotShares(t *testing.T) {
	awarded := domain.PotAwardedEvent{
		Position:   1,
		PlayerRoot: "player-b",
		Amount:     120,
		PotType:    "main",
	}

	books := route(t, NewHandPlayerSettlement(), domain.HandDomain, "hand-1", awarded)
	require.Len(t, books, 1)
	require.Equal(t, domain.PlayerDomain, books[0].Cover.Domain)
	require.Equal(t, "player-b", books[0].Cover.Root)

	cmd, ok := books[0].Pages[0].Command.(domain.DepositFundsCommand)
	require.True(t, ok)
	require.Equal(t, int64(120), cmd.Amount)
}

func TestHandPlayerSettlementSkipsAwardsWithoutPlayerRoot(t *testing.T) {
	books := route(t, NewHandPlayerSettlement(), domain.HandDomain, "hand-1", domain.PotAwardedEvent{Position: 1, Amount: 120})
	require.Empty(t, books)
}
