package eventstore

import (
	"context"

	"example.com/cardroom/services/orchestrator/domain"
)

// EventStore journals observed event batches and hands out destination
// sequence numbers for outgoing commands. NextSequence satisfies
// saga.SequenceOracle.
type EventStore interface {
	// RecordBatch journals an observed event batch and advances the source
	// stream's sequence cursor.
	RecordBatch(ctx context.Context, book *domain.EventBook) error

	// NextSequence reserves and returns the next unused sequence number for
	// a destination aggregate's stream.
	NextSequence(ctx context.Context, aggregateDomain, root string) (uint32, error)
}
