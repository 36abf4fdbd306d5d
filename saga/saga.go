package saga

import (
	"context"

	"example.com/cardroom/services/orchestrator/domain"
)

// Saga reacts to events from one or more aggregates and produces commands
// that drive cross-aggregate workflows. Implementations must be safe to
// invoke from the router's dispatch goroutine; they hold no reference to the
// context after Handle returns.
type Saga interface {
	// Name identifies the saga in logs and in the router's invocation
	// bookkeeping.
	Name() string

	// EventTypes returns the event type names the saga subscribes to.
	EventTypes() []string

	// Handle reacts to one event batch and returns the commands to send.
	Handle(ctx context.Context, sc *Context) ([]*domain.CommandBook, error)
}

// SequenceOracle returns the next unused sequence number for a destination
// aggregate's stream, for building valid outgoing commands.
type SequenceOracle interface {
	NextSequence(ctx context.Context, aggregateDomain, root string) (uint32, error)
}

// Context carries one dispatch's view of an event batch. It is created fresh
// per (saga, batch) pair and not retained.
type Context struct {
	// Events is the batch being handled.
	Events *domain.EventBook

	// EventType is the subscribed event type name that triggered this
	// dispatch.
	EventType string

	// AggregateType is the domain of the aggregate that produced the batch.
	AggregateType string

	// Root is the producing aggregate's root identifier.
	Root string

	oracle SequenceOracle
}

// NextSequenceFor returns the next sequence number for the given destination
// aggregate instance.
func (c *Context) NextSequenceFor(ctx context.Context, aggregateDomain, root string) (uint32, error) {
	return c.oracle.NextSequence(ctx, aggregateDomain, root)
}

// NewCommandBook builds a command book addressed to the given destination,
// assigning consecutive sequence numbers starting at the stream's next slot.
func (c *Context) NewCommandBook(ctx context.Context, aggregateDomain, root string, commands ...domain.Command) (*domain.CommandBook, error) {
	return BuildCommandBook(ctx, c.oracle, aggregateDomain, root, c.Events.Cover.CorrelationID, commands...)
}

// BuildCommandBook assembles a command book for a destination aggregate,
// reserving sequence numbers through the oracle.
func BuildCommandBook(ctx context.Context, oracle SequenceOracle, aggregateDomain, root, correlationID string, commands ...domain.Command) (*domain.CommandBook, error) {
	book := &domain.CommandBook{
		Cover: domain.Cover{
			Domain:        aggregateDomain,
			Root:          root,
			CorrelationID: correlationID,
		},
		Pages: make([]*domain.CommandPage, 0, len(commands)),
	}

	for _, cmd := range commands {
		seq, err := oracle.NextSequence(ctx, aggregateDomain, root)
		if err != nil {
			return nil, err
		}
		book.Pages = append(book.Pages, &domain.CommandPage{
			Sequence: seq,
			Command:  cmd,
		})
	}

	return book, nil
}
