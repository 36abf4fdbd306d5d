package messaging

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/config"
	"example.com/cardroom/services/orchestrator/domain"
)

// Publisher sends command books to the command queue. It implements
// CommandSender.
type Publisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
}

// NewPublisher creates a publisher for the configured command queue.
func NewPublisher(cfg config.Config) (*Publisher, error) {
	if cfg.AzureQueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.AzureQueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.AzureCommandQueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &Publisher{client: client, sender: sender}, nil
}

// Publish sends each command book as one message. The destination domain
// travels in the subject so aggregate services can filter their own
// commands; the destination root is the session ID, keeping per-aggregate
// ordering.
func (p *Publisher) Publish(ctx context.Context, books []*domain.CommandBook) error {
	for _, book := range books {
		data, err := domain.EncodeCommandBook(book)
		if err != nil {
			return fmt.Errorf("failed to encode command book: %w", err)
		}

		subject := book.Cover.Domain
		sessionID := book.Cover.Root
		msg := &azservicebus.Message{
			Body:      data,
			Subject:   &subject,
			SessionID: &sessionID,
		}
		if book.Cover.CorrelationID != "" {
			correlationID := book.Cover.CorrelationID
			msg.CorrelationID = &correlationID
		}

		if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
			return fmt.Errorf("failed to send command book: %w", err)
		}

		log.Info().
			Str("domain", book.Cover.Domain).
			Str("root", book.Cover.Root).
			Int("commands", len(book.Pages)).
			Msg("Command book published")
	}
	return nil
}

// Close releases the sender and client.
func (p *Publisher) Close(ctx context.Context) error {
	if p.sender != nil {
		if err := p.sender.Close(ctx); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(ctx)
	}
	return nil
}
