package round

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/mines"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
)

// reconstruct rebuilds the display of a settled offer. It returns the round
// seed, the signature of the settled vector and the artifact.
func (s *Service) reconstruct(o *Offer, req RevealRequest) (string, string, Artifact, error) {
	g, ok := s.catalog.Game(o.GameID)
	if !ok {
		return "", "", Artifact{}, fmt.Errorf("%w: %q", ErrUnknownGame, o.GameID)
	}
	st := req.Settlement
	rs := engine.RoundSeed{
		GameID:       o.GameID,
		Wager:        o.Wager.String(),
		BetSignature: o.Signature,
		ResultIndex:  st.ResultIndex,
		Multiplier:   st.Multiplier,
		Nonce:        o.Nonce,
	}

	bet := o.Vector
	if o.Ladder() {
		if req.Level < 0 || req.Level >= len(o.Levels) {
			return "", "", Artifact{}, fmt.Errorf("%w: level %d of %d", ErrInvalidReveal, req.Level, len(o.Levels))
		}
		lvl := o.Levels[req.Level]
		bet = lvl.Bet
		rs.Wager = lvl.Wager.String()
		rs.BetSignature = payout.Signature(bet)
	}
	seed := rs.String()

	var art Artifact
	switch o.Family {
	case config.FamilySlots:
		grid := s.recon.Reels(seed, st.ResultIndex, st.Multiplier, g.Layout)
		art = Artifact{Slot: st.ResultIndex, Fallback: grid.Fallback, Reels: &grid}

	case config.FamilyTarget:
		art = s.slotArtifact(seed, bet, st)
		chart := reconstruct.Chart(seed, art.Slot, payout.AdjustedTarget(o.Params.Target, s.catalog.HouseFactor), st.Won())
		art.Chart = &chart

	case config.FamilyMines:
		art = s.slotArtifact(seed, bet, st)
		board := g.Boards[o.Params.MineCount]
		set, err := s.board(seed, board, req, st.Won())
		if err != nil {
			return "", "", Artifact{}, err
		}
		art.Board = &set
		art.Cells = set.Grid(board.Columns)
		art.Ladder = ladderStep(o, req.Level, st)

	case config.FamilyDouble:
		art = s.slotArtifact(seed, bet, st)
		w, err := reconstruct.UniformWheel(len(bet))
		if err != nil {
			return "", "", Artifact{}, err
		}
		spin := s.recon.Wheel(seed, art.Slot, w)
		art.Wheel = &spin

	case config.FamilyRoulette, config.FamilyWheel:
		art = s.slotArtifact(seed, bet, st)
		spin := s.recon.Wheel(seed, art.Slot, g.Wheel)
		art.Wheel = &spin

	case config.FamilyRace:
		art = s.slotArtifact(seed, bet, st)
		race, err := reconstruct.Race(seed, art.Slot, len(bet))
		if err != nil {
			return "", "", Artifact{}, err
		}
		art.Race = &race

	case config.FamilyDice:
		art = s.slotArtifact(seed, bet, st)
		art.Dice = &DiceRoll{Value: art.Slot, Under: o.Params.RollUnder}

	case config.FamilyLadder:
		art = s.slotArtifact(seed, bet, st)
		art.Ladder = ladderStep(o, req.Level, st)

	default:
		return "", "", Artifact{}, fmt.Errorf("%w: %q", config.ErrUnknownFamily, o.Family)
	}
	return seed, rs.BetSignature, art, nil
}

// board places the hazards of a mines round. A loss puts a mine under the
// picked cell; a win keeps every uncovered cell safe.
func (s *Service) board(seed string, board mines.Game, req RevealRequest, won bool) (mines.CellSet, error) {
	if len(req.Revealed) != req.Level {
		return mines.CellSet{}, fmt.Errorf("%w: %d cells revealed before level %d", ErrInvalidReveal, len(req.Revealed), req.Level)
	}
	if won {
		safe := req.Revealed
		if req.Cell != nil {
			safe = append(append([]int(nil), req.Revealed...), *req.Cell)
		}
		set, err := mines.PlaceMinesAvoiding(seed, safe, board.MineCount, board.GridSize)
		if err != nil {
			return mines.CellSet{}, fmt.Errorf("%w: %w", ErrInvalidReveal, err)
		}
		return set, nil
	}
	if req.Cell == nil {
		return mines.CellSet{}, fmt.Errorf("%w: a lost mines round needs the picked cell", ErrInvalidReveal)
	}
	set, err := mines.PlaceMinesAround(seed, *req.Cell, req.Revealed, board.MineCount, board.GridSize)
	if err != nil {
		return mines.CellSet{}, fmt.Errorf("%w: %w", ErrInvalidReveal, err)
	}
	return set, nil
}

func ladderStep(o *Offer, level int, st engine.Settlement) *LadderStep {
	lvl := o.Levels[level]
	step := &LadderStep{Level: level, Multiplier: lvl.Multiplier, Busted: !st.Won(), Balance: decimal.Zero}
	if st.Won() {
		step.Balance = lvl.Balance
	}
	return step
}

func (s *Service) slotArtifact(seed string, bet payout.Vector, st engine.Settlement) Artifact {
	slot, fallback := s.resolveSlot(seed, bet, st)
	return Artifact{Slot: slot, Fallback: fallback}
}

// resolveSlot picks the vector slot the display shows. The settled
// multiplier wins over the result index: a mismatched index is replaced by a
// seeded pick among the slots paying that multiplier. When no slot pays it,
// a slot on the same side of win/loss is used and the artifact is flagged.
func (s *Service) resolveSlot(seed string, bet payout.Vector, st engine.Settlement) (int, bool) {
	idx := st.ResultIndex
	if idx >= 0 && idx < len(bet) && sameMultiplier(bet[idx], st.Multiplier) {
		return idx, false
	}
	if len(bet) == 0 {
		return idx, true
	}

	g := engine.New(engine.Child(seed, "slot"))
	var matches []int
	for i, m := range bet {
		if sameMultiplier(m, st.Multiplier) {
			matches = append(matches, i)
		}
	}
	if len(matches) > 0 {
		pick := matches[g.Intn(len(matches))]
		s.log.Warn("result index does not match settled multiplier",
			zap.String("seed", seed),
			zap.Int("result_index", idx),
			zap.Int("slot", pick),
			zap.Float64("multiplier", st.Multiplier))
		return pick, false
	}

	won := st.Won()
	for i, m := range bet {
		if (m > 0) == won {
			matches = append(matches, i)
		}
	}
	pick := 0
	if len(matches) > 0 {
		pick = matches[g.Intn(len(matches))]
	}
	s.log.Warn("settled multiplier matches no slot, using fallback",
		zap.String("seed", seed),
		zap.Int("result_index", idx),
		zap.Int("slot", pick),
		zap.Float64("multiplier", st.Multiplier))
	return pick, true
}

func sameMultiplier(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
