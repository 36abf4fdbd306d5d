package process

// PlayerTracking records orchestration-only state for one seat, for the life
// of a hand. It is mutated exclusively by the Manager.
type PlayerTracking struct {
	Position      int    `json:"position"`
	PlayerRoot    string `json:"player_root"`
	Chips         int64  `json:"chips"`
	BetThisRound  int64  `json:"bet_this_round"`
	TotalInvested int64  `json:"total_invested"`
	HasActed      bool   `json:"has_acted"`
	HasFolded     bool   `json:"has_folded"`
	IsAllIn       bool   `json:"is_all_in"`
}

// Live reports whether the player can still act this hand. Folded and all-in
// players are permanently excluded from further action.
func (p *PlayerTracking) Live() bool {
	return !p.HasFolded && !p.IsAllIn
}

// ResetForRound clears the per-round fields at the start of a new betting
// round. The folded and all-in flags are never un-set.
func (p *PlayerTracking) ResetForRound() {
	if !p.Live() {
		return
	}
	p.BetThisRound = 0
	p.HasActed = false
}
