package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEventBook(t *testing.T) {
	raw := []byte(`{
		"cover": {"domain": "hand", "root": "hand-1", "correlation_id": "corr-1"},
		"pages": [
			{"sequence": 3, "type": "V1_BLIND_POSTED", "data": {"position": 0, "blind": "SMALL", "amount": 5, "remaining_chips": 995, "pot_total": 5}},
			{"sequence": 4, "type": "V1_ACTION_TAKEN", "data": {"position": 1, "action": "CHECK"}}
		]
	}`)

	book, err := DecodeEventBook(raw)
	require.NoError(t, err)
	require.Equal(t, "hand", book.Cover.Domain)
	require.Equal(t, "hand-1", book.Cover.Root)
	require.Equal(t, "corr-1", book.Cover.CorrelationID)
	require.Len(t, book.Pages, 2)

	blind, ok := book.Pages[0].Event.(BlindPostedEvent)
	require.True(t, ok)
	require.Equal(t, SmallBlind, blind.Blind)
	require.Equal(t, int64(995), blind.RemainingChips)
	require.Equal(t, uint32(3), book.Pages[0].Sequence)

	action, ok := book.Pages[1].Event.(ActionTakenEvent)
	require.True(t, ok)
	require.Equal(t, ActionCheck, action.Action)
}

func TestDecodeEventBookHandlesQualifiedTypeNames(t *testing.T) {
	raw := []byte(`{
		"cover": {"domain": "table", "root": "table-1"},
		"pages": [
			{"sequence": 0, "type": "cardroom.table.V1_HAND_STARTED", "data": {"hand_number": 7, "variant": "TEXAS_HOLDEM"}}
		]
	}`)

	book, err := DecodeEventBook(raw)
	require.NoError(t, err)
	require.Len(t, book.Pages, 1)

	started, ok := book.Pages[0].Event.(HandStartedEvent)
	require.True(t, ok)
	require.Equal(t, uint64(7), started.HandNumber)
}

func TestDecodeEventBookSkipsUnknownTypes(t *testing.T) {
	raw := []byte(`{
		"cover": {"domain": "hand", "root": "hand-1"},
		"pages": [
			{"sequence": 0, "type": "V1_SOMETHING_NEW", "data": {"whatever": true}},
			{"sequence": 1, "type": "V1_ACTION_TAKEN", "data": {"position": 1, "action": "FOLD"}}
		]
	}`)

	book, err := DecodeEventBook(raw)
	require.NoError(t, err)
	// The unknown page is dropped, the known one survives.
	require.Len(t, book.Pages, 1)
	require.Equal(t, ActionTakenType, book.Pages[0].Event.EventType())
}

func TestDecodeEventBookRejectsMalformedKnownPayload(t *testing.T) {
	raw := []byte(`{
		"cover": {"domain": "hand", "root": "hand-1"},
		"pages": [
			{"sequence": 0, "type": "V1_ACTION_TAKEN", "data": {"position": "not-a-number"}}
		]
	}`)

	_, err := DecodeEventBook(raw)
	require.Error(t, err)
}

func TestEncodeCommandBook(t *testing.T) {
	book := &CommandBook{
		Cover: Cover{Domain: HandDomain, Root: "hand-1", CorrelationID: "corr-1"},
		Pages: []*CommandPage{
			{Sequence: 5, Command: PostBlindCommand{Position: 0, Blind: SmallBlind, Amount: 5}},
			{Sequence: 6, Command: PlayerActionCommand{Position: 1, Action: ActionFold}},
		},
	}

	data, err := EncodeCommandBook(book)
	require.NoError(t, err)

	var envelope struct {
		Cover Cover `json:"cover"`
		Pages []struct {
			Sequence uint32          `json:"sequence"`
			Type     string          `json:"type"`
			Data     json.RawMessage `json:"data"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Equal(t, book.Cover, envelope.Cover)
	require.Len(t, envelope.Pages, 2)
	require.Equal(t, PostBlindType, envelope.Pages[0].Type)
	require.Equal(t, uint32(5), envelope.Pages[0].Sequence)
	require.Equal(t, PlayerActionType, envelope.Pages[1].Type)

	var blind PostBlindCommand
	require.NoError(t, json.Unmarshal(envelope.Pages[0].Data, &blind))
	require.Equal(t, SmallBlind, blind.Blind)
	require.Equal(t, int64(5), blind.Amount)
}

func TestEventBookTypesAreDistinctInFirstAppearanceOrder(t *testing.T) {
	book := &EventBook{
		Pages: []*EventPage{
			{Event: ActionTakenEvent{Position: 0, Action: ActionCheck}},
			{Event: ActionTakenEvent{Position: 1, Action: ActionCheck}},
			{Event: CommunityCardsDealtEvent{Phase: PhaseFlop, Count: 3}},
			{Event: ActionTakenEvent{Position: 0, Action: ActionBet}},
		},
	}

	require.Equal(t, []string{ActionTakenType, CommunityCardsDealtType}, book.EventTypes())
}

func TestShortTypeName(t *testing.T) {
	require.Equal(t, "V1_HAND_STARTED", ShortTypeName("cardroom.table.V1_HAND_STARTED"))
	require.Equal(t, "V1_HAND_STARTED", ShortTypeName("V1_HAND_STARTED"))
}

func TestHandRootIsDeterministic(t *testing.T) {
	require.Equal(t, HandRoot("table-1", 7), HandRoot("table-1", 7))
	require.NotEqual(t, HandRoot("table-1", 7), HandRoot("table-1", 8))
	require.NotEqual(t, HandRoot("table-1", 7), HandRoot("table-2", 7))
}
