package domain

// Aggregate domains that publish events consumed by this service.
const (
	TableDomain  = "table"
	HandDomain   = "hand"
	PlayerDomain = "player"
)

// EventType constants
const (
	// Table events
	HandStartedType = "V1_HAND_STARTED"
	HandEndedType   = "V1_HAND_ENDED"

	// Hand events
	CardsDealtType          = "V1_CARDS_DEALT"
	BlindPostedType         = "V1_BLIND_POSTED"
	ActionTakenType         = "V1_ACTION_TAKEN"
	CommunityCardsDealtType = "V1_COMMUNITY_CARDS_DEALT"
	DrawCompletedType       = "V1_DRAW_COMPLETED"
	PotAwardedType          = "V1_POT_AWARDED"
	HandCompleteType        = "V1_HAND_COMPLETE"
)

// GameVariant identifies the poker variant a hand is played under.
type GameVariant string

const (
	TexasHoldem  GameVariant = "TEXAS_HOLDEM"
	Omaha        GameVariant = "OMAHA"
	FiveCardDraw GameVariant = "FIVE_CARD_DRAW"
)

// ActionType identifies a player betting action.
type ActionType string

const (
	ActionFold  ActionType = "FOLD"
	ActionCheck ActionType = "CHECK"
	ActionCall  ActionType = "CALL"
	ActionBet   ActionType = "BET"
	ActionRaise ActionType = "RAISE"
	ActionAllIn ActionType = "ALL_IN"
)

// BlindType identifies which forced bet is being posted.
type BlindType string

const (
	SmallBlind BlindType = "SMALL"
	BigBlind   BlindType = "BIG"
)

// BettingPhase identifies the street a betting round belongs to.
type BettingPhase string

const (
	PhasePreflop  BettingPhase = "PREFLOP"
	PhaseFlop     BettingPhase = "FLOP"
	PhaseTurn     BettingPhase = "TURN"
	PhaseRiver    BettingPhase = "RIVER"
	PhaseDraw     BettingPhase = "DRAW"
	PhaseShowdown BettingPhase = "SHOWDOWN"
)

// Event is implemented by every domain event this service consumes.
type Event interface {
	EventType() string
}

// SeatSnapshot is one seat in the active-player snapshot carried by
// HandStartedEvent and the DealCards command.
type SeatSnapshot struct {
	Position   int    `json:"position"`
	PlayerRoot string `json:"player_root"`
	Chips      int64  `json:"chips"`
}

// PotResult is one player's share of a settled pot.
type PotResult struct {
	Position   int    `json:"position"`
	PlayerRoot string `json:"player_root"`
	Amount     int64  `json:"amount"`
	PotType    string `json:"pot_type"`
}

// Table Events

// HandStartedEvent is emitted by the table aggregate when a new hand begins.
// It carries the snapshot of seated players and blind positions the hand is
// played with; seating is fixed for the duration of the hand.
type HandStartedEvent struct {
	HandNumber         uint64         `json:"hand_number"`
	Variant            GameVariant    `json:"variant"`
	Players            []SeatSnapshot `json:"players"`
	DealerPosition     int            `json:"dealer_position"`
	SmallBlindPosition int            `json:"small_blind_position"`
	BigBlindPosition   int            `json:"big_blind_position"`
	SmallBlind         int64          `json:"small_blind"`
	BigBlind           int64          `json:"big_blind"`
}

func (HandStartedEvent) EventType() string { return HandStartedType }

// HandEndedEvent is emitted by the table aggregate once a hand's results have
// been applied to the seats. StackChanges maps player roots to their net chip
// movement for the hand.
type HandEndedEvent struct {
	HandNumber   uint64           `json:"hand_number"`
	StackChanges map[string]int64 `json:"stack_changes"`
}

func (HandEndedEvent) EventType() string { return HandEndedType }

// Hand Events

// CardsDealtEvent is emitted by the hand aggregate when hole cards have been
// dealt to every seat.
type CardsDealtEvent struct {
	HandNumber     uint64 `json:"hand_number"`
	CardsPerPlayer int    `json:"cards_per_player"`
}

func (CardsDealtEvent) EventType() string { return CardsDealtType }

// BlindPostedEvent is emitted by the hand aggregate when a forced bet is
// accepted. RemainingChips and PotTotal are the aggregate's authoritative
// totals after the post.
type BlindPostedEvent struct {
	Position       int       `json:"position"`
	Blind          BlindType `json:"blind"`
	Amount         int64     `json:"amount"`
	RemainingChips int64     `json:"remaining_chips"`
	PotTotal       int64     `json:"pot_total"`
}

func (BlindPostedEvent) EventType() string { return BlindPostedType }

// ActionTakenEvent is emitted by the hand aggregate when a player action is
// accepted. Amount is the chips wagered by this action; RemainingChips and
// PotTotal are authoritative totals after the action.
type ActionTakenEvent struct {
	Position       int        `json:"position"`
	Action         ActionType `json:"action"`
	Amount         int64      `json:"amount"`
	RemainingChips int64      `json:"remaining_chips"`
	PotTotal       int64      `json:"pot_total"`
}

func (ActionTakenEvent) EventType() string { return ActionTakenType }

// CommunityCardsDealtEvent is emitted by the hand aggregate after community
// cards for a street have been dealt.
type CommunityCardsDealtEvent struct {
	Phase BettingPhase `json:"phase"`
	Count int          `json:"count"`
}

func (CommunityCardsDealtEvent) EventType() string { return CommunityCardsDealtType }

// DrawCompletedEvent is emitted by the hand aggregate when one player has
// finished exchanging cards in a draw game.
type DrawCompletedEvent struct {
	Position       int `json:"position"`
	CardsExchanged int `json:"cards_exchanged"`
}

func (DrawCompletedEvent) EventType() string { return DrawCompletedType }

// PotAwardedEvent is emitted by the hand aggregate when a pot share is paid
// out to a winner.
type PotAwardedEvent struct {
	Position   int    `json:"position"`
	PlayerRoot string `json:"player_root"`
	Amount     int64  `json:"amount"`
	PotType    string `json:"pot_type"`
}

func (PotAwardedEvent) EventType() string { return PotAwardedType }

// HandCompleteEvent is emitted by the hand aggregate when the hand has fully
// settled. TableRoot points back at the table the hand was dealt for; the
// hand aggregate learns it from the DealCards command.
type HandCompleteEvent struct {
	TableRoot  string      `json:"table_root"`
	HandNumber uint64      `json:"hand_number"`
	Results    []PotResult `json:"results"`
}

func (HandCompleteEvent) EventType() string { return HandCompleteType }
