// Package sagas holds the thin cross-domain sagas that translate one
// domain's lifecycle events into commands against another domain.
package sagas

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/saga"
)

// TableHandSync keeps the table and hand aggregates in step: a hand started
// at the table gets its cards dealt, and a settled hand reports its results
// back to the table.
type TableHandSync struct{}

// NewTableHandSync creates the saga.
func NewTableHandSync() *TableHandSync { return &TableHandSync{} }

// Name implements saga.Saga.
func (s *TableHandSync) Name() string { return "table-hand-sync" }

// EventTypes implements saga.Saga.
func (s *TableHandSync) EventTypes() []string {
	return []string{domain.HandStartedType, domain.HandCompleteType}
}

// Handle implements saga.Saga.
func (s *TableHandSync) Handle(ctx context.Context, sc *saga.Context) ([]*domain.CommandBook, error) {
	var books []*domain.CommandBook

	for _, page := range sc.Events.Pages {
		switch e := page.Event.(type) {
		case domain.HandStartedEvent:
			handRoot := domain.HandRoot(sc.Root, e.HandNumber)
			book, err := sc.NewCommandBook(ctx, domain.HandDomain, handRoot, domain.DealCardsCommand{
				TableRoot:          sc.Root,
				HandNumber:         e.HandNumber,
				Variant:            e.Variant,
				Players:            e.Players,
				DealerPosition:     e.DealerPosition,
				SmallBlindPosition: e.SmallBlindPosition,
				BigBlindPosition:   e.BigBlindPosition,
				SmallBlind:         e.SmallBlind,
				BigBlind:           e.BigBlind,
			})
			if err != nil {
				return nil, err
			}
			books = append(books, book)

			log.Info().
				Str("tableRoot", sc.Root).
				Str("handRoot", handRoot).
				Uint64("handNumber", e.HandNumber).
				Msg("Dealing cards for new hand")

		case domain.HandCompleteEvent:
			if e.TableRoot == "" {
				log.Warn().
					Str("handRoot", sc.Root).
					Msg("HandComplete without table root, cannot route EndHand")
				continue
			}

			book, err := sc.NewCommandBook(ctx, domain.TableDomain, e.TableRoot, domain.EndHandCommand{
				HandNumber: e.HandNumber,
				Results:    e.Results,
			})
			if err != nil {
				return nil, err
			}
			books = append(books, book)
		}
	}

	return books, nil
}
