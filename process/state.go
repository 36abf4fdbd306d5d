package process

import (
	"sort"
	"time"

	"example.com/cardroom/services/orchestrator/domain"
)

// Phase is the orchestration state of one hand.
type Phase string

const (
	PhaseWaitingForStart  Phase = "WAITING_FOR_START"
	PhaseDealing          Phase = "DEALING"
	PhasePostingBlinds    Phase = "POSTING_BLINDS"
	PhaseBetting          Phase = "BETTING"
	PhaseDealingCommunity Phase = "DEALING_COMMUNITY"
	PhaseDraw             Phase = "DRAW"
	PhaseShowdown         Phase = "SHOWDOWN"
	PhaseAwardingPot      Phase = "AWARDING_POT"
	PhaseComplete         Phase = "COMPLETE"
)

// NoPosition marks an empty action pointer: no seat is required to act.
const NoPosition = -1

// HandProcess is the per-hand orchestration record. It is not persisted in
// any aggregate; the Manager is its sole mutator. All fields are exported so
// the record can be snapshotted as-is.
type HandProcess struct {
	HandRoot   string             `json:"hand_root"`
	TableRoot  string             `json:"table_root"`
	HandNumber uint64             `json:"hand_number"`
	Variant    domain.GameVariant `json:"variant"`

	Phase        Phase               `json:"phase"`
	BettingPhase domain.BettingPhase `json:"betting_phase"`

	Players         map[int]*PlayerTracking `json:"players"`
	ActivePositions []int                   `json:"active_positions"`

	DealerPosition     int `json:"dealer_position"`
	SmallBlindPosition int `json:"small_blind_position"`
	BigBlindPosition   int `json:"big_blind_position"`

	ActionOn      int `json:"action_on"`
	LastAggressor int `json:"last_aggressor"`

	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	CurrentBet int64 `json:"current_bet"`
	MinRaise   int64 `json:"min_raise"`
	Pot        int64 `json:"pot"`

	SmallBlindPosted bool `json:"small_blind_posted"`
	BigBlindPosted   bool `json:"big_blind_posted"`

	Drawn map[int]bool `json:"drawn,omitempty"`

	ActionTimeout   time.Duration `json:"action_timeout"`
	ActionStartedAt time.Time     `json:"action_started_at"`
	CompletedAt     time.Time     `json:"completed_at"`
}

// newHandProcess builds the orchestration record for a freshly started hand
// from the table's snapshot.
func newHandProcess(tableRoot string, e domain.HandStartedEvent, actionTimeout time.Duration) *HandProcess {
	p := &HandProcess{
		HandRoot:           domain.HandRoot(tableRoot, e.HandNumber),
		TableRoot:          tableRoot,
		HandNumber:         e.HandNumber,
		Variant:            e.Variant,
		Phase:              PhaseDealing,
		Players:            make(map[int]*PlayerTracking, len(e.Players)),
		ActivePositions:    make([]int, 0, len(e.Players)),
		DealerPosition:     e.DealerPosition,
		SmallBlindPosition: e.SmallBlindPosition,
		BigBlindPosition:   e.BigBlindPosition,
		ActionOn:           NoPosition,
		LastAggressor:      NoPosition,
		SmallBlind:         e.SmallBlind,
		BigBlind:           e.BigBlind,
		ActionTimeout:      actionTimeout,
	}

	for _, seat := range e.Players {
		p.Players[seat.Position] = &PlayerTracking{
			Position:   seat.Position,
			PlayerRoot: seat.PlayerRoot,
			Chips:      seat.Chips,
		}
		p.ActivePositions = append(p.ActivePositions, seat.Position)
	}
	sort.Ints(p.ActivePositions)

	return p
}

// NextActivePosition finds the next seat required to act after the given
// reference position: the smallest active position strictly greater than the
// reference (wrapping to the start of the list), scanning forward from there
// for the first seat that is neither folded nor all-in. Returns NoPosition if
// no such seat exists.
func (h *HandProcess) NextActivePosition(after int) int {
	n := len(h.ActivePositions)
	if n == 0 {
		return NoPosition
	}

	start := n
	for i, pos := range h.ActivePositions {
		if pos > after {
			start = i
			break
		}
	}
	if start == n {
		start = 0
	}

	for i := 0; i < n; i++ {
		pos := h.ActivePositions[(start+i)%n]
		if h.Players[pos].Live() {
			return pos
		}
	}
	return NoPosition
}

// NonFolded returns the positions still contesting the pot, in seat order.
func (h *HandProcess) NonFolded() []int {
	positions := make([]int, 0, len(h.ActivePositions))
	for _, pos := range h.ActivePositions {
		if !h.Players[pos].HasFolded {
			positions = append(positions, pos)
		}
	}
	return positions
}

// RoundComplete reports whether the current betting round is over: at most
// one non-folded player remains, or every live player has acted and matched
// the current bet.
func (h *HandProcess) RoundComplete() bool {
	if len(h.NonFolded()) <= 1 {
		return true
	}
	for _, pos := range h.ActivePositions {
		p := h.Players[pos]
		if !p.Live() {
			continue
		}
		if !p.HasActed || p.BetThisRound != h.CurrentBet {
			return false
		}
	}
	return true
}

// allDrawn reports whether every live player has completed their draw.
func (h *HandProcess) allDrawn() bool {
	for _, pos := range h.ActivePositions {
		if h.Players[pos].Live() && !h.Drawn[pos] {
			return false
		}
	}
	return true
}
