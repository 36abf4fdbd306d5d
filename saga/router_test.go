package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/cardroom/services/orchestrator/domain"
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

// stubSaga records how often it is invoked and delegates to a handle func.
type stubSaga struct {
	name       string
	eventTypes []string
	calls      int
	handle     func(ctx context.Context, sc *Context) ([]*domain.CommandBook, error)
}

func (s *stubSaga) Name() string         { return s.name }
func (s *stubSaga) EventTypes() []string { return s.eventTypes }

func (s *stubSaga) Handle(ctx context.Context, sc *Context) ([]*domain.CommandBook, error) {
	s.calls++
	if s.handle == nil {
		return nil, nil
	}
	return s.handle(ctx, sc)
}

func eventBook(aggregateDomain, root string, events ...domain.Event) *domain.EventBook {
	book := &domain.EventBook{
		Cover: domain.Cover{Domain: aggregateDomain, Root: root},
	}
	for i, e := range events {
		book.Pages = append(book.Pages, &domain.EventPage{
			Sequence: uint32(i),
			Event:    e,
		})
	}
	return book
}

func TestRouterInvokesSagaOncePerBatch(t *testing.T) {
	router := NewRouter(newStubOracle())

	s := &stubSaga{
		name:       "test-saga",
		eventTypes: []string{domain.BlindPostedType, domain.ActionTakenType},
	}
	router.Register(s)

	// Both subscribed types appear in the batch; the saga still runs once.
	book := eventBook(domain.HandDomain, "hand-1",
		domain.BlindPostedEvent{Position: 0, Blind: domain.SmallBlind, Amount: 5},
		domain.ActionTakenEvent{Position: 1, Action: domain.ActionCheck},
	)

	router.Route(context.Background(), book)
	require.Equal(t, 1, s.calls)
}

func TestRouterSkipsUnsubscribedSagas(t *testing.T) {
	router := NewRouter(newStubOracle())

	s := &stubSaga{
		name:       "test-saga",
		eventTypes: []string{domain.HandEndedType},
	}
	router.Register(s)

	book := eventBook(domain.HandDomain, "hand-1",
		domain.ActionTakenEvent{Position: 1, Action: domain.ActionCheck},
	)

	commands := router.Route(context.Background(), book)
	require.Zero(t, s.calls)
	require.Empty(t, commands)
}

func TestRouterIsolatesSagaFailures(t *testing.T) {
	oracle := newStubOracle()
	router := NewRouter(oracle)

	failing := &stubSaga{
		name:       "failing-saga",
		eventTypes: []string{domain.ActionTakenType},
		handle: func(ctx context.Context, sc *Context) ([]*domain.CommandBook, error) {
			return nil, errors.New("boom")
		},
	}
	healthy := &stubSaga{
		name:       "healthy-saga",
		eventTypes: []string{domain.ActionTakenType},
		handle: func(ctx context.Context, sc *Context) ([]*domain.CommandBook, error) {
			book, err := sc.NewCommandBook(ctx, domain.HandDomain, sc.Root,
				domain.PlayerActionCommand{Position: 0, Action: domain.ActionCheck})
			if err != nil {
				return nil, err
			}
			return []*domain.CommandBook{book}, nil
		},
	}
	router.Register(failing)
	router.Register(healthy)

	book := eventBook(domain.HandDomain, "hand-1",
		domain.ActionTakenEvent{Position: 1, Action: domain.ActionCheck},
	)

	commands := router.Route(context.Background(), book)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, healthy.calls)
	require.Len(t, commands, 1)
	require.Equal(t, domain.HandDomain, commands[0].Cover.Domain)
}

func TestRouterAggregatesCommandsAcrossSagas(t *testing.T) {
	router := NewRouter(newStubOracle())

	makeSaga := func(name, destRoot string) *stubSaga {
		return &stubSaga{
			name:       name,
			eventTypes: []string{domain.PotAwardedType},
			handle: func(ctx context.Context, sc *Context) ([]*domain.CommandBook, error) {
				book, err := sc.NewCommandBook(ctx, domain.PlayerDomain, destRoot,
					domain.DepositFundsCommand{Amount: 10})
				if err != nil {
					return nil, err
				}
				return []*domain.CommandBook{book}, nil
			},
		}
	}
	router.Register(makeSaga("saga-a", "player-a"))
	router.Register(makeSaga("saga-b", "player-b"))

	book := eventBook(domain.HandDomain, "hand-1",
		domain.PotAwardedEvent{Position: 0, PlayerRoot: "player-a", Amount: 10},
	)

	commands := router.Route(context.Background(), book)
	require.Len(t, commands, 2)
	require.Equal(t, "player-a", commands[0].Cover.Root)
	require.Equal(t, "player-b", commands[1].Cover.Root)
}

func TestBuildCommandBookAssignsConsecutiveSequences(t *testing.T) {
	oracle := newStubOracle()

	book, err := BuildCommandBook(context.Background(), oracle, domain.HandDomain, "hand-1", "corr-1",
		domain.PostBlindCommand{Position: 0, Blind: domain.SmallBlind, Amount: 5},
		domain.PostBlindCommand{Position: 1, Blind: domain.BigBlind, Amount: 10},
	)
	require.NoError(t, err)
	require.Equal(t, "corr-1", book.Cover.CorrelationID)
	require.Len(t, book.Pages, 2)
	require.Equal(t, uint32(0), book.Pages[0].Sequence)
	require.Equal(t, uint32(1), book.Pages[1].Sequence)
}
