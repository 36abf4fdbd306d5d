package process

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/cardroom/services/orchestrator/domain"
	"example.com/cardroom/services/orchestrator/saga"
)

// ManagerName is the saga name the Manager registers under.
const ManagerName = "hand-process-manager"

// SnapshotSink persists HandProcess records so a restarted instance can
// resume in-flight hands. Saving is best effort; failures are logged, not
// propagated.
type SnapshotSink interface {
	Save(ctx context.Context, process *HandProcess) error
	Delete(ctx context.Context, handRoot string) error
}

// Manager owns the table of HandProcess records and implements the
// betting-round state machine. It reacts to table and hand events, mutating
// its private orchestration state and returning commands for the hand
// aggregate. One mutex serializes all mutation; each hand behaves like a
// single-threaded actor.
type Manager struct {
	mu            sync.Mutex
	processes     map[string]*HandProcess
	oracle        saga.SequenceOracle
	scheduler     TimeoutScheduler
	snapshots     SnapshotSink
	actionTimeout time.Duration
}

// NewManager creates a manager with the given default action timeout.
func NewManager(oracle saga.SequenceOracle, actionTimeout time.Duration) *Manager {
	return &Manager{
		processes:     make(map[string]*HandProcess),
		oracle:        oracle,
		actionTimeout: actionTimeout,
	}
}

// SetScheduler injects the cancellable-timer capability. Without one, action
// timeouts are simply never armed.
func (m *Manager) SetScheduler(scheduler TimeoutScheduler) {
	m.scheduler = scheduler
}

// SetSnapshotSink injects the snapshot store.
func (m *Manager) SetSnapshotSink(sink SnapshotSink) {
	m.snapshots = sink
}

// Name implements saga.Saga.
func (m *Manager) Name() string { return ManagerName }

// EventTypes implements saga.Saga.
func (m *Manager) EventTypes() []string {
	return []string{
		domain.HandStartedType,
		domain.CardsDealtType,
		domain.BlindPostedType,
		domain.ActionTakenType,
		domain.CommunityCardsDealtType,
		domain.DrawCompletedType,
		domain.PotAwardedType,
	}
}

// Handle implements saga.Saga. It walks every page in the batch, applies the
// events it knows to the addressed hand, and returns the produced commands in
// one book addressed to that hand. Events for a hand this instance does not
// track are ignored; the hand may belong to a process never seen here, e.g.
// after a restart.
func (m *Manager) Handle(ctx context.Context, sc *saga.Context) ([]*domain.CommandBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var commands []domain.Command
	var touched *HandProcess

	for _, page := range sc.Events.Pages {
		switch e := page.Event.(type) {
		case domain.HandStartedEvent:
			touched = m.startHand(sc.Root, e)

		case domain.CardsDealtEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			commands = append(commands, m.handleCardsDealt(p)...)
			touched = p

		case domain.BlindPostedEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			commands = append(commands, m.handleBlindPosted(p, e)...)
			touched = p

		case domain.ActionTakenEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			commands = append(commands, m.handleActionTaken(p, e)...)
			touched = p

		case domain.CommunityCardsDealtEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			commands = append(commands, m.startBetting(p, e.Phase)...)
			touched = p

		case domain.DrawCompletedEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			commands = append(commands, m.handleDrawCompleted(p, e)...)
			touched = p

		case domain.PotAwardedEvent:
			p, ok := m.lookup(sc.Root)
			if !ok {
				continue
			}
			m.handlePotAwarded(p)
			touched = p
		}
	}

	if touched != nil {
		m.saveSnapshot(ctx, touched)
	}

	if len(commands) == 0 || touched == nil {
		return nil, nil
	}

	book, err := sc.NewCommandBook(ctx, domain.HandDomain, touched.HandRoot, commands...)
	if err != nil {
		return nil, err
	}
	return []*domain.CommandBook{book}, nil
}

// HandleTimeout synthesizes the default action for a seat whose action timer
// expired: CHECK when nothing is owed, otherwise FOLD. A stale timer, one
// firing after a real action already moved the action pointer, produces
// nothing.
func (m *Manager) HandleTimeout(ctx context.Context, handRoot string, position int) ([]*domain.CommandBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.processes[handRoot]
	if !ok {
		return nil, nil
	}
	if p.ActionOn != position {
		return nil, nil
	}
	pl, ok := p.Players[position]
	if !ok {
		return nil, nil
	}

	action := domain.ActionFold
	if p.CurrentBet-pl.BetThisRound == 0 {
		action = domain.ActionCheck
	}

	log.Warn().
		Str("handRoot", handRoot).
		Int("position", position).
		Str("action", string(action)).
		Msg("Action timed out, submitting default action")

	book, err := saga.BuildCommandBook(ctx, m.oracle, domain.HandDomain, handRoot, "",
		domain.PlayerActionCommand{Position: position, Action: action})
	if err != nil {
		return nil, err
	}
	return []*domain.CommandBook{book}, nil
}

// lookup finds a tracked hand. Unknown hands are not an error.
func (m *Manager) lookup(handRoot string) (*HandProcess, bool) {
	p, ok := m.processes[handRoot]
	if !ok {
		log.Debug().Str("handRoot", handRoot).Msg("Ignoring event for untracked hand")
	}
	return p, ok
}

// startHand creates a fresh orchestration record for the hand announced by
// the table. A new hand always gets a new record; completed ones are never
// reused.
func (m *Manager) startHand(tableRoot string, e domain.HandStartedEvent) *HandProcess {
	p := newHandProcess(tableRoot, e, m.actionTimeout)
	m.processes[p.HandRoot] = p

	log.Info().
		Str("handRoot", p.HandRoot).
		Str("tableRoot", tableRoot).
		Uint64("handNumber", e.HandNumber).
		Int("players", len(p.Players)).
		Msg("Tracking new hand")

	return p
}

// handleCardsDealt moves the hand into blind posting.
func (m *Manager) handleCardsDealt(p *HandProcess) []domain.Command {
	p.Phase = PhasePostingBlinds
	p.MinRaise = p.BigBlind
	return m.postNextBlind(p)
}

// postNextBlind emits the next outstanding blind command. Exactly one blind
// is outstanding at a time; big is never requested before small is posted.
func (m *Manager) postNextBlind(p *HandProcess) []domain.Command {
	if !p.SmallBlindPosted {
		return []domain.Command{domain.PostBlindCommand{
			Position: p.SmallBlindPosition,
			Blind:    domain.SmallBlind,
			Amount:   p.SmallBlind,
		}}
	}
	if !p.BigBlindPosted {
		return []domain.Command{domain.PostBlindCommand{
			Position: p.BigBlindPosition,
			Blind:    domain.BigBlind,
			Amount:   p.BigBlind,
		}}
	}
	return nil
}

// handleBlindPosted applies the aggregate's authoritative totals for a posted
// blind and either requests the next blind or opens the first betting round.
func (m *Manager) handleBlindPosted(p *HandProcess, e domain.BlindPostedEvent) []domain.Command {
	pl, ok := p.Players[e.Position]
	if !ok {
		return nil
	}

	pl.Chips = e.RemainingChips
	pl.BetThisRound += e.Amount
	pl.TotalInvested += e.Amount
	p.Pot = e.PotTotal

	switch e.Blind {
	case domain.SmallBlind:
		p.SmallBlindPosted = true
		return m.postNextBlind(p)
	case domain.BigBlind:
		p.BigBlindPosted = true
		p.CurrentBet = e.Amount
		return m.startBetting(p, domain.PhasePreflop)
	}
	return nil
}

// startBetting resets per-round player state and hands the action to the
// first actor: under the gun (first live seat after the big blind) preflop,
// the first live seat after the dealer on every later street.
func (m *Manager) startBetting(p *HandProcess, phase domain.BettingPhase) []domain.Command {
	p.Phase = PhaseBetting
	p.BettingPhase = phase
	for _, pos := range p.ActivePositions {
		p.Players[pos].ResetForRound()
	}
	p.CurrentBet = 0

	reference := p.DealerPosition
	if phase == domain.PhasePreflop {
		reference = p.BigBlindPosition
	}

	next := p.NextActivePosition(reference)
	if next == NoPosition {
		return m.endBettingRound(p)
	}
	m.requestAction(p, next)
	return nil
}

// requestAction points the action at a seat and arms its timeout.
func (m *Manager) requestAction(p *HandProcess, position int) {
	p.ActionOn = position
	p.ActionStartedAt = time.Now()
	if m.scheduler != nil {
		m.scheduler.Arm(p.HandRoot, position, p.ActionTimeout)
	}
}

// handleActionTaken applies one accepted player action. An aggressive action
// that raises the current bet reopens the round: every other live seat must
// act again.
func (m *Manager) handleActionTaken(p *HandProcess, e domain.ActionTakenEvent) []domain.Command {
	pl, ok := p.Players[e.Position]
	if !ok {
		return nil
	}

	if m.scheduler != nil {
		m.scheduler.Cancel(p.HandRoot)
	}

	pl.Chips = e.RemainingChips
	pl.HasActed = true

	switch e.Action {
	case domain.ActionFold:
		pl.HasFolded = true
	case domain.ActionAllIn:
		pl.IsAllIn = true
		pl.BetThisRound += e.Amount
		pl.TotalInvested += e.Amount
	case domain.ActionCall, domain.ActionBet, domain.ActionRaise:
		pl.BetThisRound += e.Amount
		pl.TotalInvested += e.Amount
	}

	if isAggressive(e.Action) && pl.BetThisRound > p.CurrentBet {
		raisedBy := pl.BetThisRound - p.CurrentBet
		if raisedBy > p.MinRaise {
			p.MinRaise = raisedBy
		}
		p.CurrentBet = pl.BetThisRound
		p.LastAggressor = e.Position

		// Reopen the action: everyone still live must respond to the raise.
		for _, pos := range p.ActivePositions {
			other := p.Players[pos]
			if pos == e.Position || !other.Live() {
				continue
			}
			other.HasActed = false
		}
	}

	p.Pot = e.PotTotal

	if p.RoundComplete() {
		return m.endBettingRound(p)
	}

	next := p.NextActivePosition(e.Position)
	if next == NoPosition {
		return m.endBettingRound(p)
	}
	m.requestAction(p, next)
	return nil
}

func isAggressive(action domain.ActionType) bool {
	switch action {
	case domain.ActionBet, domain.ActionRaise, domain.ActionAllIn:
		return true
	}
	return false
}

// endBettingRound settles a finished round: a lone survivor takes the whole
// pot immediately; otherwise the hand advances to the next street for its
// variant.
func (m *Manager) endBettingRound(p *HandProcess) []domain.Command {
	p.ActionOn = NoPosition
	if m.scheduler != nil {
		m.scheduler.Cancel(p.HandRoot)
	}

	remaining := p.NonFolded()
	if len(remaining) == 1 {
		winner := p.Players[remaining[0]]
		return m.awardPot(p, []domain.Command{domain.AwardPotCommand{
			Position:   winner.Position,
			PlayerRoot: winner.PlayerRoot,
			Amount:     p.Pot,
			PotType:    "main",
		}})
	}

	next, dealCount := nextStreet(p.Variant, p.BettingPhase)
	switch next {
	case domain.PhaseShowdown:
		return m.showdown(p)
	case domain.PhaseDraw:
		// The draw itself runs through per-player commands outside this
		// manager; betting resumes once every live seat has drawn.
		p.Phase = PhaseDraw
		p.Drawn = make(map[int]bool)
		return nil
	default:
		p.Phase = PhaseDealingCommunity
		return []domain.Command{domain.DealCommunityCardsCommand{
			Phase: next,
			Count: dealCount,
		}}
	}
}

// nextStreet returns the street after the current one for the variant, and
// how many community cards it needs.
func nextStreet(variant domain.GameVariant, current domain.BettingPhase) (domain.BettingPhase, int) {
	if variant == domain.FiveCardDraw {
		if current == domain.PhasePreflop {
			return domain.PhaseDraw, 0
		}
		return domain.PhaseShowdown, 0
	}

	switch current {
	case domain.PhasePreflop:
		return domain.PhaseFlop, 3
	case domain.PhaseFlop:
		return domain.PhaseTurn, 1
	case domain.PhaseTurn:
		return domain.PhaseRiver, 1
	}
	return domain.PhaseShowdown, 0
}

// handleDrawCompleted records one player's finished draw and opens the draw
// betting round once all live players are done.
func (m *Manager) handleDrawCompleted(p *HandProcess, e domain.DrawCompletedEvent) []domain.Command {
	if p.Phase != PhaseDraw {
		return nil
	}
	if p.Drawn == nil {
		p.Drawn = make(map[int]bool)
	}
	p.Drawn[e.Position] = true

	if p.allDrawn() {
		return m.startBetting(p, domain.PhaseDraw)
	}
	return nil
}

// showdown splits the pot equally among the remaining players, the odd
// remainder going to the earliest position. Real hand ranking belongs to the
// external hand evaluator; this split is the orchestrator's stand-in.
func (m *Manager) showdown(p *HandProcess) []domain.Command {
	p.Phase = PhaseShowdown
	p.BettingPhase = domain.PhaseShowdown

	remaining := p.NonFolded()
	share := p.Pot / int64(len(remaining))
	remainder := p.Pot % int64(len(remaining))

	commands := make([]domain.Command, 0, len(remaining))
	for i, pos := range remaining {
		amount := share
		if i == 0 {
			amount += remainder
		}
		commands = append(commands, domain.AwardPotCommand{
			Position:   pos,
			PlayerRoot: p.Players[pos].PlayerRoot,
			Amount:     amount,
			PotType:    "main",
		})
	}

	return m.awardPot(p, commands)
}

// awardPot emits the award commands and parks the hand until the aggregate
// confirms the payout.
func (m *Manager) awardPot(p *HandProcess, commands []domain.Command) []domain.Command {
	p.Phase = PhaseAwardingPot
	p.ActionOn = NoPosition
	return commands
}

// handlePotAwarded marks the hand terminal once the aggregate confirms a
// payout.
func (m *Manager) handlePotAwarded(p *HandProcess) {
	if p.Phase != PhaseAwardingPot {
		return
	}
	p.Phase = PhaseComplete
	p.CompletedAt = time.Now()

	log.Info().
		Str("handRoot", p.HandRoot).
		Uint64("handNumber", p.HandNumber).
		Int64("pot", p.Pot).
		Msg("Hand complete")
}

// saveSnapshot persists the record best effort.
func (m *Manager) saveSnapshot(ctx context.Context, p *HandProcess) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.Save(ctx, p); err != nil {
		log.Warn().Err(err).Str("handRoot", p.HandRoot).Msg("Failed to snapshot hand process")
	}
}

// HandSummary is a read-only view of one tracked hand.
type HandSummary struct {
	HandRoot     string              `json:"hand_root"`
	TableRoot    string              `json:"table_root"`
	HandNumber   uint64              `json:"hand_number"`
	Phase        Phase               `json:"phase"`
	BettingPhase domain.BettingPhase `json:"betting_phase,omitempty"`
	Pot          int64               `json:"pot"`
	ActionOn     int                 `json:"action_on"`
	Players      int                 `json:"players"`
}

// ActiveHands lists every tracked hand, ordered by hand root.
func (m *Manager) ActiveHands() []HandSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summaries := make([]HandSummary, 0, len(m.processes))
	for _, p := range m.processes {
		summaries = append(summaries, HandSummary{
			HandRoot:     p.HandRoot,
			TableRoot:    p.TableRoot,
			HandNumber:   p.HandNumber,
			Phase:        p.Phase,
			BettingPhase: p.BettingPhase,
			Pot:          p.Pot,
			ActionOn:     p.ActionOn,
			Players:      len(p.Players),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].HandRoot < summaries[j].HandRoot })
	return summaries
}

// GetHand returns a copy of one tracked hand's record.
func (m *Manager) GetHand(handRoot string) (*HandProcess, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.processes[handRoot]
	if !ok {
		return nil, false
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, false
	}
	var clone HandProcess
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, false
	}
	return &clone, true
}

// Restore re-adds snapshotted hand records, re-arming the action timer for
// any hand that was waiting on a seat. The timer restarts from zero; the
// restarted instance has no way to know how long the seat already had.
func (m *Manager) Restore(processes []*HandProcess) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range processes {
		m.processes[p.HandRoot] = p
		if p.ActionOn != NoPosition && m.scheduler != nil {
			m.scheduler.Arm(p.HandRoot, p.ActionOn, p.ActionTimeout)
		}
	}

	log.Info().Int("hands", len(processes)).Msg("Restored hand processes from snapshots")
}

// SweepCompleted drops terminal hand records older than the retention window
// and returns how many were removed.
func (m *Manager) SweepCompleted(ctx context.Context, retention time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	removed := 0
	for root, p := range m.processes {
		if p.Phase != PhaseComplete || p.CompletedAt.After(cutoff) {
			continue
		}
		delete(m.processes, root)
		removed++
		if m.snapshots != nil {
			if err := m.snapshots.Delete(ctx, root); err != nil {
				log.Warn().Err(err).Str("handRoot", root).Msg("Failed to delete hand snapshot")
			}
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Swept completed hands")
	}
	return removed
}
