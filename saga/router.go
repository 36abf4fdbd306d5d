package saga

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/domain"
)

// Router dispatches event batches to registered sagas. Registration is fixed
// at startup; the router keeps no other state between calls.
type Router struct {
	subscriptions map[string][]Saga
	oracle        SequenceOracle
}

// NewRouter creates a router that assigns outgoing command sequences through
// the given oracle.
func NewRouter(oracle SequenceOracle) *Router {
	return &Router{
		subscriptions: make(map[string][]Saga),
		oracle:        oracle,
	}
}

// Register adds a saga, indexing it by each event type it declares.
func (r *Router) Register(s Saga) {
	for _, eventType := range s.EventTypes() {
		name := domain.ShortTypeName(eventType)
		r.subscriptions[name] = append(r.subscriptions[name], s)
	}
}

// Route dispatches one event batch to every subscribed saga and returns the
// aggregated commands. Each saga is invoked at most once per batch, even when
// it subscribes to several event types present in it. A saga failure is
// logged and does not prevent the remaining sagas from running.
func (r *Router) Route(ctx context.Context, book *domain.EventBook) []*domain.CommandBook {
	var commands []*domain.CommandBook
	invoked := make(map[string]bool)

	for _, eventType := range book.EventTypes() {
		for _, s := range r.subscriptions[eventType] {
			if invoked[s.Name()] {
				continue
			}
			invoked[s.Name()] = true

			sc := &Context{
				Events:        book,
				EventType:     eventType,
				AggregateType: book.Cover.Domain,
				Root:          book.Cover.Root,
				oracle:        r.oracle,
			}

			produced, err := s.Handle(ctx, sc)
			if err != nil {
				log.Error().
					Err(err).
					Str("saga", s.Name()).
					Str("aggregateType", book.Cover.Domain).
					Str("root", book.Cover.Root).
					Str("eventType", eventType).
					Msg("Saga failed to process event batch")
				continue
			}

			commands = append(commands, produced...)
		}
	}

	return commands
}
