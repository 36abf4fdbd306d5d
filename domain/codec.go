package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// eventPageEnvelope is the wire form of one event page.
type eventPageEnvelope struct {
	Sequence  uint32          `json:"sequence"`
	CreatedAt time.Time       `json:"created_at"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
}

// eventBookEnvelope is the wire form of an event batch.
type eventBookEnvelope struct {
	Cover Cover               `json:"cover"`
	Pages []eventPageEnvelope `json:"pages"`
}

// commandPageEnvelope is the wire form of one command page.
type commandPageEnvelope struct {
	Sequence uint32          `json:"sequence"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
}

// commandBookEnvelope is the wire form of an outgoing command batch.
type commandBookEnvelope struct {
	Cover Cover                 `json:"cover"`
	Pages []commandPageEnvelope `json:"pages"`
}

// eventDecoders maps short event type names to payload decoders. The set is
// closed; dispatch never matches on arbitrary suffixes.
var eventDecoders = map[string]func(json.RawMessage) (Event, error){
	HandStartedType:         decodeInto[HandStartedEvent],
	HandEndedType:           decodeInto[HandEndedEvent],
	CardsDealtType:          decodeInto[CardsDealtEvent],
	BlindPostedType:         decodeInto[BlindPostedEvent],
	ActionTakenType:         decodeInto[ActionTakenEvent],
	CommunityCardsDealtType: decodeInto[CommunityCardsDealtEvent],
	DrawCompletedType:       decodeInto[DrawCompletedEvent],
	PotAwardedType:          decodeInto[PotAwardedEvent],
	HandCompleteType:        decodeInto[HandCompleteEvent],
}

func decodeInto[E Event](data json.RawMessage) (Event, error) {
	var event E
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// DecodeEventBook parses a wire-format event batch into typed events. Pages
// with event types outside the known vocabulary are skipped; the remaining
// pages are still decoded.
func DecodeEventBook(data []byte) (*EventBook, error) {
	var envelope eventBookEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event book: %w", err)
	}

	book := &EventBook{
		Cover: envelope.Cover,
		Pages: make([]*EventPage, 0, len(envelope.Pages)),
	}

	for _, page := range envelope.Pages {
		name := ShortTypeName(page.Type)
		decode, ok := eventDecoders[name]
		if !ok {
			log.Warn().
				Str("domain", envelope.Cover.Domain).
				Str("eventType", page.Type).
				Msg("Skipping event of unknown type")
			continue
		}

		event, err := decode(page.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", name, err)
		}

		book.Pages = append(book.Pages, &EventPage{
			Sequence:  page.Sequence,
			CreatedAt: page.CreatedAt,
			Event:     event,
		})
	}

	return book, nil
}

// EncodeCommandBook serializes a command batch for publishing.
func EncodeCommandBook(book *CommandBook) ([]byte, error) {
	envelope := commandBookEnvelope{
		Cover: book.Cover,
		Pages: make([]commandPageEnvelope, 0, len(book.Pages)),
	}

	for _, page := range book.Pages {
		data, err := json.Marshal(page.Command)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s command: %w", page.Command.CommandType(), err)
		}
		envelope.Pages = append(envelope.Pages, commandPageEnvelope{
			Sequence: page.Sequence,
			Type:     page.Command.CommandType(),
			Data:     data,
		})
	}

	return json.Marshal(envelope)
}
