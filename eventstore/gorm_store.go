package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/models"
)

// GormEventStore implements EventStore using GORM.
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM event store.
func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

// RecordBatch journals an observed event batch and advances the source
// stream's cursor past the highest journaled sequence.
func (s *GormEventStore) RecordBatch(ctx context.Context, book *domain.EventBook) error {
	if len(book.Pages) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var highest uint32
		for _, page := range book.Pages {
			data, err := json.Marshal(page.Event)
			if err != nil {
				return fmt.Errorf("failed to marshal event data: %w", err)
			}

			dbEvent := models.Event{
				EventID:       uuid.New().String(),
				Domain:        book.Cover.Domain,
				Root:          book.Cover.Root,
				EventType:     page.Event.EventType(),
				Sequence:      page.Sequence,
				Data:          data,
				CorrelationID: book.Cover.CorrelationID,
				Timestamp:     page.CreatedAt,
			}

			if err := tx.Create(&dbEvent).Error; err != nil {
				return fmt.Errorf("failed to save event: %w", err)
			}

			if page.Sequence >= highest {
				highest = page.Sequence + 1
			}

			log.Debug().
				Str("domain", book.Cover.Domain).
				Str("root", book.Cover.Root).
				Str("eventType", dbEvent.EventType).
				Uint32("sequence", page.Sequence).
				Msg("Event journaled")
		}

		return advanceStream(tx, book.Cover.Domain, book.Cover.Root, highest)
	})
}

// NextSequence reserves the next unused sequence number for a destination
// stream.
func (s *GormEventStore) NextSequence(ctx context.Context, aggregateDomain, root string) (uint32, error) {
	var next uint32
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stream models.Stream
		if err := tx.Where(models.Stream{Domain: aggregateDomain, Root: root}).
			FirstOrCreate(&stream).Error; err != nil {
			return fmt.Errorf("failed to load stream: %w", err)
		}

		next = stream.NextSequence
		stream.NextSequence = next + 1
		stream.UpdatedAt = time.Now()

		if err := tx.Save(&stream).Error; err != nil {
			return fmt.Errorf("failed to advance stream: %w", err)
		}
		return nil
	})
	return next, err
}

// advanceStream moves a stream's cursor forward, never backward.
func advanceStream(tx *gorm.DB, aggregateDomain, root string, next uint32) error {
	var stream models.Stream
	if err := tx.Where(models.Stream{Domain: aggregateDomain, Root: root}).
		FirstOrCreate(&stream).Error; err != nil {
		return fmt.Errorf("failed to load stream: %w", err)
	}

	if next <= stream.NextSequence {
		return nil
	}

	stream.NextSequence = next
	stream.UpdatedAt = time.Now()
	if err := tx.Save(&stream).Error; err != nil {
		return fmt.Errorf("failed to advance stream: %w", err)
	}
	return nil
}
