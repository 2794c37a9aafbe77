package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/mines"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/round"
	"github.com/MJE43/outcome-engine-go/internal/script"
	"github.com/MJE43/outcome-engine-go/internal/sim"
	"github.com/MJE43/outcome-engine-go/internal/store"
)

const (
	maxSimulationRounds = 1_000_000
	maxCascadeLevels    = script.MaxLevels
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	c := s.rounds.Catalog()
	games := make([]GameInfo, 0, len(c.Games()))
	for _, g := range c.Games() {
		games = append(games, GameInfo{GameSpec: g.Spec(), Config: g.Config})
	}
	writeJSON(w, http.StatusOK, GamesResponse{
		Games:         games,
		CatalogVer:    c.Version,
		RTPCeiling:    c.RTPCeiling,
		HouseFactor:   c.HouseFactor,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Target <= 0 {
		s.errorHandler.HandleValidationError(w, r, "target", "target must be positive")
		return
	}

	c := s.rounds.Catalog()
	houseFactor := c.HouseFactor
	if req.HouseFactor > 0 {
		houseFactor = req.HouseFactor
	}
	ceiling := c.RTPCeiling
	if req.RTPCeiling > 0 {
		ceiling = req.RTPCeiling
	}

	v, err := payout.Target(req.Target, payout.WithHouseFactor(houseFactor), payout.WithRTPCeiling(ceiling))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TargetResponse{
		Vector:        v,
		Signature:     payout.Signature(v),
		Adjusted:      payout.AdjustedTarget(req.Target, houseFactor),
		Mean:          v.Mean(),
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	var req CascadeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.LevelCount > maxCascadeLevels {
		s.errorHandler.HandleValidationError(w, r, "level_count", "at most "+strconv.Itoa(maxCascadeLevels)+" levels")
		return
	}

	var multiplier cascade.MultiplierFunc
	switch {
	case req.Expression != "":
		expr, err := script.Compile(req.Expression)
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		ms, err := expr.Multipliers(r.Context(), req.LevelCount)
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		multiplier = cascade.Table(ms)
	case len(req.Multipliers) > 0:
		multiplier = cascade.Table(req.Multipliers)
	case req.Multiplier > 0:
		multiplier = cascade.Constant(req.Multiplier)
	default:
		s.errorHandler.HandleValidationError(w, r, "multiplier", "one of expression, multipliers or multiplier is required")
		return
	}

	levels, err := cascade.Compute(cascade.Request{
		InitialWager: req.InitialWager,
		LevelCount:   req.LevelCount,
		Multiplier:   multiplier,
		MaxPayout:    req.MaxPayout,
	})
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CascadeResponse{
		Levels:        levels,
		TotalProfit:   cascade.TotalProfit(levels),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleMinesPlace(w http.ResponseWriter, r *http.Request) {
	var req MinesPlaceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Seed == "" {
		s.errorHandler.HandleValidationError(w, r, "seed", "seed is required")
		return
	}

	var (
		set mines.CellSet
		err error
	)
	if req.LosingCell != nil {
		set, err = mines.PlaceMinesAround(req.Seed, *req.LosingCell, req.Revealed, req.MineCount, req.GridSize)
	} else {
		set, err = mines.PlaceMinesAvoiding(req.Seed, req.Revealed, req.MineCount, req.GridSize)
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MinesPlaceResponse{
		Mines:         set.Mines,
		Losing:        set.Losing,
		Cells:         set.Grid(req.Columns),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req sim.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Rounds > maxSimulationRounds {
		s.errorHandler.HandleValidationError(w, r, "rounds", "at most "+strconv.Itoa(maxSimulationRounds)+" rounds")
		return
	}
	rep, err := s.simulator.Run(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req round.OfferRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.GameID == "" {
		s.errorHandler.HandleValidationError(w, r, "gameId", "gameId is required")
		return
	}
	o, err := s.rounds.Offer(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := store.RoundsQuery{Game: q.Get("game"), Status: q.Get("status")}
	for field, dst := range map[string]*int{"page": &query.Page, "per_page": &query.PerPage} {
		raw := q.Get(field)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorHandler.HandleValidationError(w, r, field, field+" must be a positive integer")
			return
		}
		*dst = n
	}
	if query.PerPage > 500 {
		query.PerPage = 500
	}

	list, err := s.rounds.List(r.Context(), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	rec, err := s.rounds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req round.RevealRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rv, err := s.rounds.Reveal(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	res, err := s.rounds.Replay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
