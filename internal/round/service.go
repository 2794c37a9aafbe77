package round

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/pool"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
	"github.com/MJE43/outcome-engine-go/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Journal is the part of the round store the service writes to.
type Journal interface {
	SaveRound(ctx context.Context, round *store.Round) error
	SettleRound(ctx context.Context, round *store.Round) error
	GetRound(ctx context.Context, id string) (*store.Round, error)
	ListRounds(ctx context.Context, query store.RoundsQuery) (*store.RoundsList, error)
}

// Service offers rounds against the live pool cap and reconstructs their
// displays once settled.
type Service struct {
	catalog *config.Catalog
	pools   pool.Source
	journal Journal
	recon   *reconstruct.Reconstructor
	log     *zap.Logger
	version string
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithEngineVersion stamps journaled rounds with v.
func WithEngineVersion(v string) Option {
	return func(s *Service) { s.version = v }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a round service. A nil logger discards output.
func NewService(catalog *config.Catalog, pools pool.Source, journal Journal, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		catalog: catalog,
		pools:   pools,
		journal: journal,
		recon:   reconstruct.New(log),
		log:     log,
		version: "dev",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the game catalog the service offers from.
func (s *Service) Catalog() *config.Catalog { return s.catalog }

// Offer builds the payout vector, or the ladder of vectors, for a new round.
// The pool cap is read once here; the offer stands even if the cap later
// shrinks.
func (s *Service) Offer(ctx context.Context, req OfferRequest) (*Offer, error) {
	g, ok := s.catalog.Game(req.GameID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, req.GameID)
	}
	if !req.Wager.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWager, req.Wager)
	}

	maxPayout, err := s.pools.MaxPayout(ctx, g.Config.ID)
	if err != nil {
		return nil, fmt.Errorf("pool cap for %s: %w", g.Config.ID, err)
	}

	o := &Offer{
		ID:        uuid.NewString(),
		GameID:    g.Config.ID,
		Family:    g.Config.Family,
		Wager:     req.Wager,
		MaxPayout: maxPayout,
		Nonce:     uuid.NewString(),
		Params:    req.Params,
		CreatedAt: s.now().UTC(),
	}

	if o.Ladder() {
		levels, err := s.levels(g, req.Params, req.Wager, maxPayout)
		if err != nil {
			return nil, err
		}
		o.Levels = levels
	} else {
		v, err := s.vector(g, req.Params)
		if err != nil {
			return nil, err
		}
		limits := payout.Limits{RTPCeiling: s.catalog.RTPCeiling, Wager: req.Wager, MaxPayout: maxPayout}
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}
		o.Vector, o.Signature = v, payout.Signature(v)
	}

	rec, err := s.offerRecord(o)
	if err != nil {
		return nil, err
	}
	if err := s.journal.SaveRound(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("round offered",
		zap.String("round_id", o.ID),
		zap.String("game", o.GameID),
		zap.String("wager", o.Wager.String()),
		zap.String("max_payout", maxPayout.String()),
		zap.Int("levels", len(o.Levels)))
	return o, nil
}

func (s *Service) vector(g *config.Game, p Params) (payout.Vector, error) {
	rtp := g.RTP(s.catalog)
	var (
		v   payout.Vector
		err error
	)
	switch g.Config.Family {
	case config.FamilyTarget:
		t := g.Config.Target
		if p.Target < t.Min || p.Target > t.Max {
			return nil, fmt.Errorf("%w: target %v outside %v..%v", ErrInvalidParams, p.Target, t.Min, t.Max)
		}
		v, err = payout.Target(p.Target, payout.WithHouseFactor(s.catalog.HouseFactor), payout.WithRTPCeiling(rtp))
	case config.FamilySlots, config.FamilyWheel:
		v = g.Vector.Clone()
	case config.FamilyDouble:
		v, err = payout.FindMode(g.Config.Modes, p.Mode)
	case config.FamilyRoulette:
		v, err = payout.Roulette(p.BetType, p.Numbers, rtp)
	case config.FamilyRace:
		v, err = payout.PickOne(g.Config.Race.Runners, p.Runner, rtp)
	case config.FamilyDice:
		v, err = payout.RollUnder(p.RollUnder, rtp)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownFamily, g.Config.Family)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return v, nil
}

func (s *Service) levels(g *config.Game, p Params, wager, maxPayout decimal.Decimal) ([]cascade.Level, error) {
	switch g.Config.Family {
	case config.FamilyMines:
		board, ok := g.Boards[p.MineCount]
		if !ok {
			return nil, fmt.Errorf("%w: %d mines not offered", ErrInvalidParams, p.MineCount)
		}
		return board.Levels(wager, maxPayout)
	case config.FamilyLadder:
		rtp := g.RTP(s.catalog)
		return cascade.Compute(cascade.Request{
			InitialWager: wager,
			LevelCount:   len(g.Ladder),
			Multiplier:   cascade.Table(g.Ladder),
			Bet: func(_ int, m float64) payout.Vector {
				// Every level was checked when the catalog loaded.
				v, _ := config.LadderBet(m, rtp)
				return v
			},
			MaxPayout: maxPayout,
		})
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownFamily, g.Config.Family)
}

// Reveal derives the round seed from the offer and its settlement, builds
// the display and journals it. A round is revealed once.
func (s *Service) Reveal(ctx context.Context, id string, req RevealRequest) (*Reveal, error) {
	rec, err := s.journal.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == store.StatusSettled {
		return nil, fmt.Errorf("%w: %s", store.ErrAlreadySettled, id)
	}
	o, err := decodeOffer(rec)
	if err != nil {
		return nil, err
	}

	seed, signature, art, err := s.reconstruct(o, req)
	if err != nil {
		return nil, err
	}

	rv := &Reveal{
		RoundID:       o.ID,
		Request:       req,
		Seed:          seed,
		Artifact:      art,
		EngineVersion: rec.EngineVersion,
		SettledAt:     s.now().UTC(),
	}
	if err := s.settleRecord(rec, rv, signature); err != nil {
		return nil, err
	}
	if err := s.journal.SettleRound(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("round revealed",
		zap.String("round_id", o.ID),
		zap.String("game", o.GameID),
		zap.Int("result_index", req.Settlement.ResultIndex),
		zap.Float64("multiplier", req.Settlement.Multiplier),
		zap.Bool("fallback", art.Fallback))
	return rv, nil
}

// Get reads a journaled round back.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.journal.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := decodeOffer(rec)
	if err != nil {
		return nil, err
	}
	out := &Record{Offer: o}
	if rec.Status == store.StatusSettled {
		rv, err := decodeReveal(rec)
		if err != nil {
			return nil, err
		}
		out.Reveal = rv
	}
	return out, nil
}

// List pages through journaled rounds.
func (s *Service) List(ctx context.Context, q store.RoundsQuery) (*store.RoundsList, error) {
	return s.journal.ListRounds(ctx, q)
}

// Replay rebuilds a settled round's display from its journaled inputs and
// compares it byte for byte with what was shown.
func (s *Service) Replay(ctx context.Context, id string) (*ReplayResult, error) {
	rec, err := s.journal.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != store.StatusSettled {
		return nil, fmt.Errorf("%w: %s", ErrNotSettled, id)
	}
	o, err := decodeOffer(rec)
	if err != nil {
		return nil, err
	}
	stored, err := decodeReveal(rec)
	if err != nil {
		return nil, err
	}

	seed, _, art, err := s.reconstruct(o, stored.Request)
	if err != nil {
		return nil, err
	}
	fresh, err := json.Marshal(art)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}

	res := &ReplayResult{
		RoundID:  id,
		Seed:     seed,
		Match:    seed == rec.Seed && string(fresh) == rec.ArtifactJSON,
		Stored:   stored.Artifact,
		Replayed: art,
	}
	if !res.Match {
		s.log.Warn("replay differs from journaled display",
			zap.String("round_id", id),
			zap.String("stored_seed", rec.Seed),
			zap.String("seed", seed))
	}
	return res, nil
}

func (s *Service) offerRecord(o *Offer) (*store.Round, error) {
	params, err := json.MarshalToString(o.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	body, err := json.MarshalToString(o)
	if err != nil {
		return nil, fmt.Errorf("encode offer: %w", err)
	}
	return &store.Round{
		ID:            o.ID,
		Game:          o.GameID,
		Family:        string(o.Family),
		Wager:         o.Wager.String(),
		MaxPayout:     o.MaxPayout.String(),
		Nonce:         o.Nonce,
		Signature:     o.Signature,
		ParamsJSON:    params,
		OfferJSON:     body,
		EngineVersion: s.version,
		CreatedAt:     o.CreatedAt,
	}, nil
}

func (s *Service) settleRecord(rec *store.Round, rv *Reveal, signature string) error {
	req, err := json.MarshalToString(rv.Request)
	if err != nil {
		return fmt.Errorf("encode reveal: %w", err)
	}
	art, err := json.MarshalToString(rv.Artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	idx, mult := rv.Request.Settlement.ResultIndex, rv.Request.Settlement.Multiplier
	settledAt := rv.SettledAt

	rec.RevealJSON = req
	rec.ResultIndex = &idx
	rec.Multiplier = &mult
	rec.Payout = rv.Request.Settlement.Payout.String()
	rec.Seed = rv.Seed
	rec.ArtifactJSON = art
	rec.Signature = signature
	rec.SettledAt = &settledAt
	return nil
}

func decodeOffer(rec *store.Round) (*Offer, error) {
	var o Offer
	if err := json.UnmarshalFromString(rec.OfferJSON, &o); err != nil {
		return nil, fmt.Errorf("decode offer %s: %w", rec.ID, err)
	}
	return &o, nil
}

func decodeReveal(rec *store.Round) (*Reveal, error) {
	rv := &Reveal{RoundID: rec.ID, Seed: rec.Seed, EngineVersion: rec.EngineVersion}
	if err := json.UnmarshalFromString(rec.RevealJSON, &rv.Request); err != nil {
		return nil, fmt.Errorf("decode reveal %s: %w", rec.ID, err)
	}
	if err := json.UnmarshalFromString(rec.ArtifactJSON, &rv.Artifact); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", rec.ID, err)
	}
	if rec.SettledAt != nil {
		rv.SettledAt = *rec.SettledAt
	}
	return rv, nil
}
