package domain

// CommandType constants
const (
	// Hand commands
	PostBlindType          = "PostBlind"
	PlayerActionType       = "PlayerAction"
	DealCommunityCardsType = "DealCommunityCards"
	AwardPotType           = "AwardPot"
	DealCardsType          = "DealCards"

	// Table commands
	EndHandType = "EndHand"

	// Player commands
	ReleaseFundsType = "ReleaseFunds"
	DepositFundsType = "DepositFunds"
)

// Command is implemented by every command this service emits. Commands are
// fire-and-forget; delivery is the command sender's responsibility.
type Command interface {
	CommandType() string
}

// PostBlindCommand asks the hand aggregate to post a forced bet for the seat
// at Position.
type PostBlindCommand struct {
	Position int       `json:"position"`
	Blind    BlindType `json:"blind"`
	Amount   int64     `json:"amount"`
}

func (PostBlindCommand) CommandType() string { return PostBlindType }

// PlayerActionCommand submits a betting action on behalf of the seat at
// Position. The orchestrator uses it to synthesize default actions on
// timeout.
type PlayerActionCommand struct {
	Position int        `json:"position"`
	Action   ActionType `json:"action"`
	Amount   int64      `json:"amount"`
}

func (PlayerActionCommand) CommandType() string { return PlayerActionType }

// DealCommunityCardsCommand asks the hand aggregate to deal the next street.
type DealCommunityCardsCommand struct {
	Phase BettingPhase `json:"phase"`
	Count int          `json:"count"`
}

func (DealCommunityCardsCommand) CommandType() string { return DealCommunityCardsType }

// AwardPotCommand pays one winner their share of the pot.
type AwardPotCommand struct {
	Position   int    `json:"position"`
	PlayerRoot string `json:"player_root"`
	Amount     int64  `json:"amount"`
	PotType    string `json:"pot_type"`
}

func (AwardPotCommand) CommandType() string { return AwardPotType }

// DealCardsCommand bootstraps a hand aggregate with the table's player
// snapshot and blind structure.
type DealCardsCommand struct {
	TableRoot          string         `json:"table_root"`
	HandNumber         uint64         `json:"hand_number"`
	Variant            GameVariant    `json:"variant"`
	Players            []SeatSnapshot `json:"players"`
	DealerPosition     int            `json:"dealer_position"`
	SmallBlindPosition int            `json:"small_blind_position"`
	BigBlindPosition   int            `json:"big_blind_position"`
	SmallBlind         int64          `json:"small_blind"`
	BigBlind           int64          `json:"big_blind"`
}

func (DealCardsCommand) CommandType() string { return DealCardsType }

// EndHandCommand reports a settled hand's results back to the table
// aggregate.
type EndHandCommand struct {
	HandNumber uint64      `json:"hand_number"`
	Results    []PotResult `json:"results"`
}

func (EndHandCommand) CommandType() string { return EndHandType }

// ReleaseFundsCommand returns a player's reserved table funds to their
// bankroll after a hand ends.
type ReleaseFundsCommand struct {
	TableRoot string `json:"table_root"`
}

func (ReleaseFundsCommand) CommandType() string { return ReleaseFundsType }

// DepositFundsCommand credits a pot share to a player's bankroll.
type DepositFundsCommand struct {
	Amount int64 `json:"amount"`
}

func (DepositFundsCommand) CommandType() string { return DepositFundsType }
