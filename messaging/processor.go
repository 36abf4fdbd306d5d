package messaging

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/eventstore"
	"example.com/cardroom/services/orchestrator/saga"
)

// CommandSender delivers command books to the aggregates. Fire-and-forget
// from the orchestrator's perspective.
type CommandSender interface {
	Publish(ctx context.Context, books []*domain.CommandBook) error
}

// MessageProcessor handles one received bus message.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Processor decodes event-batch messages, journals them, routes them through
// the saga router, and publishes whatever commands come back.
type Processor struct {
	router *saga.Router
	store  eventstore.EventStore
	sender CommandSender
}

// NewProcessor creates a processor.
func NewProcessor(router *saga.Router, store eventstore.EventStore, sender CommandSender) *Processor {
	return &Processor{
		router: router,
		store:  store,
		sender: sender,
	}
}

// ProcessMessage implements MessageProcessor.
func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	return p.ProcessEnvelope(ctx, message.Body)
}

// ProcessEnvelope runs one wire-format event batch through the full
// dispatch cycle.
func (p *Processor) ProcessEnvelope(ctx context.Context, body []byte) error {
	book, err := domain.DecodeEventBook(body)
	if err != nil {
		return fmt.Errorf("error decoding event book: %w", err)
	}

	log.Info().
		Str("domain", book.Cover.Domain).
		Str("root", book.Cover.Root).
		Int("pages", len(book.Pages)).
		Msg("Processing event batch")

	if p.store != nil {
		if err := p.store.RecordBatch(ctx, book); err != nil {
			return fmt.Errorf("error journaling event batch: %w", err)
		}
	}

	commands := p.router.Route(ctx, book)
	if len(commands) == 0 || p.sender == nil {
		return nil
	}

	if err := p.sender.Publish(ctx, commands); err != nil {
		return fmt.Errorf("error publishing commands: %w", err)
	}
	return nil
}
