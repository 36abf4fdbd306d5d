package sagas

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/saga"
)

// HandPlayerSettlement settles player bankrolls when a hand finishes:
// reserved funds are released when the table ends the hand, and pot shares
// are deposited when the hand aggregate pays out.
type HandPlayerSettlement struct{}

// NewHandPlayerSettlement creates the saga.
func NewHandPlayerSettlement() *HandPlayerSettlement { return &HandPlayerSettlement{} }

// Name implements saga.Saga.
func (s *HandPlayerSettlement) Name() string { return "hand-player-settlement" }

// EventTypes implements saga.Saga.
func (s *HandPlayerSettlement) EventTypes() []string {
	return []string{domain.HandEndedType, domain.PotAwardedType}
}

// Handle implements saga.Saga.
func (s *HandPlayerSettlement) Handle(ctx context.Context, sc *saga.Context) ([]*domain.CommandBook, error) {
	var books []*domain.CommandBook

	for _, page := range sc.Events.Pages {
		switch e := page.Event.(type) {
		case domain.HandEndedEvent:
			// One ReleaseFunds per player, in a stable order so command
			// sequences are deterministic.
			players := make([]string, 0, len(e.StackChanges))
			for playerRoot := range e.StackChanges {
				players = append(players, playerRoot)
			}
			sort.Strings(players)

			for _, playerRoot := range players {
				book, err := sc.NewCommandBook(ctx, domain.PlayerDomain, playerRoot, domain.ReleaseFundsCommand{
					TableRoot: sc.Root,
				})
				if err != nil {
					return nil, err
				}
				books = append(books, book)
			}

			log.Info().
				Str("tableRoot", sc.Root).
				Int("players", len(players)).
				Msg("Releasing table funds after hand end")

		case domain.PotAwardedEvent:
			if e.PlayerRoot == "" {
				log.Warn().
					Str("handRoot", sc.Root).
					Int("position", e.Position).
					Msg("PotAwarded without player root, cannot deposit")
				continue
			}

			book, err := sc.NewCommandBook(ctx, domain.PlayerDomain, e.PlayerRoot, domain.DepositFundsCommand{
				Amount: e.Amount,
			})
			if err != nil {
				return nil, err
			}
			books = append(books, book)
		}
	}

	return books, nil
}
