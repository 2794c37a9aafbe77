package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/pool"
	"github.com/MJE43/outcome-engine-go/internal/round"
	"github.com/MJE43/outcome-engine-go/internal/sim"
	"github.com/MJE43/outcome-engine-go/internal/store"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, opts ...ServerOption) http.Handler {
	t.Helper()
	catalog, err := config.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	svc := round.NewService(catalog, pool.NewStatic(decimal.NewFromInt(100_000)), store.NewMemory(), nil)
	return NewServer(svc, nil, opts...).Routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Status != HealthStatusHealthy || resp.Games == 0 {
		t.Errorf("unexpected health %+v", resp)
	}

	w = do(t, newTestServer(t, WithHealthCheck("redis", failingPinger{})), "GET", "/health", nil)
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded 200, got %d %+v", w.Code, resp)
	}
}

func TestVersionEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), "GET", "/api/v1/version", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp VersionInfo
	decode(t, w, &resp)
	if resp.EngineVersion != EngineVersion || resp.GoVersion == "" {
		t.Errorf("unexpected version %+v", resp)
	}
}

func TestGamesEndpoint(t *testing.T) {
	w := do(t, newTestServer(t), "GET", "/api/v1/games", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("X-Engine-Version") == "" {
		t.Error("Expected engine version header")
	}
	var resp GamesResponse
	decode(t, w, &resp)
	if len(resp.Games) == 0 {
		t.Fatal("Expected at least one game in response")
	}
	if resp.Games[0].ID != "crypto-chart" || resp.Games[0].Family != "target" {
		t.Errorf("unexpected first game %+v", resp.Games[0].GameSpec)
	}
}

func TestTargetEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "POST", "/api/v1/payout/target", TargetRequest{Target: 1.5})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var resp TargetResponse
	decode(t, w, &resp)
	if len(resp.Vector) != 2 || resp.Vector[0] != 1.425 || resp.Adjusted != 1.425 {
		t.Errorf("unexpected vector %+v", resp)
	}

	w = do(t, h, "POST", "/api/v1/payout/target", TargetRequest{Target: 1.02})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a degenerate target, got %d", w.Code)
	}
	var engineErr EngineError
	decode(t, w, &engineErr)
	if engineErr.Type != ErrTypeInvalidParams {
		t.Errorf("error type %q", engineErr.Type)
	}

	w = do(t, h, "POST", "/api/v1/payout/target", TargetRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a missing target, got %d", w.Code)
	}
}

func TestCascadeEndpoint(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name       string
		req        CascadeRequest
		wantStatus int
		wantLevels int
	}{
		{
			name:       "constant",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(100), LevelCount: 10, Multiplier: 2, MaxPayout: decimal.NewFromInt(10_000)},
			wantStatus: http.StatusOK,
			wantLevels: 6,
		},
		{
			name:       "expression",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(100), LevelCount: 10, Expression: "2", MaxPayout: decimal.NewFromInt(10_000)},
			wantStatus: http.StatusOK,
			wantLevels: 6,
		},
		{
			name:       "table",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(1), LevelCount: 3, Multipliers: []float64{1.5, 2, 3}, MaxPayout: decimal.NewFromInt(100)},
			wantStatus: http.StatusOK,
			wantLevels: 3,
		},
		{
			name:       "pool too small",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(100), LevelCount: 5, Multiplier: 2, MaxPayout: decimal.NewFromInt(150)},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad expression",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(1), LevelCount: 3, Expression: "level +", MaxPayout: decimal.NewFromInt(100)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too many levels",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(1), LevelCount: 1 << 62, Expression: "2", MaxPayout: decimal.NewFromInt(100)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no multiplier",
			req:        CascadeRequest{InitialWager: decimal.NewFromInt(1), LevelCount: 3, MaxPayout: decimal.NewFromInt(100)},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/v1/cascade", tt.req)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp CascadeResponse
			decode(t, w, &resp)
			if len(resp.Levels) != tt.wantLevels {
				t.Errorf("expected %d levels, got %d", tt.wantLevels, len(resp.Levels))
			}
		})
	}
}

func TestMinesPlaceEndpoint(t *testing.T) {
	h := newTestServer(t)
	losing := 7
	w := do(t, h, "POST", "/api/v1/mines/place", MinesPlaceRequest{
		Seed: "mines:10:sig:7:0:nonce-1", LosingCell: &losing, MineCount: 5, GridSize: 25, Columns: 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var resp MinesPlaceResponse
	decode(t, w, &resp)
	if len(resp.Mines) != 5 || resp.Losing != 7 || len(resp.Cells) != 5 {
		t.Errorf("unexpected board %+v", resp)
	}
	if resp.Cells[1][2] != "mine" {
		t.Errorf("losing cell not a mine: %v", resp.Cells)
	}

	w = do(t, h, "POST", "/api/v1/mines/place", MinesPlaceRequest{Seed: "s", MineCount: 25, GridSize: 25})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestRoundLifecycle(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "POST", "/api/v1/rounds", round.OfferRequest{GameID: "double-or-nothing", Wager: decimal.NewFromInt(5), Params: round.Params{Mode: "2x"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body)
	}
	var offer round.Offer
	decode(t, w, &offer)
	if len(offer.Vector) != 2 {
		t.Fatalf("unexpected offer %+v", offer)
	}

	w = do(t, h, "POST", "/api/v1/rounds/"+offer.ID+"/replay", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 replaying an open round, got %d", w.Code)
	}

	reveal := round.RevealRequest{Settlement: engine.Settlement{ResultIndex: 0, Multiplier: 1.9, Payout: decimal.RequireFromString("9.5")}}
	w = do(t, h, "POST", "/api/v1/rounds/"+offer.ID+"/reveal", reveal)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var rv round.Reveal
	decode(t, w, &rv)
	if rv.Artifact.Wheel == nil || rv.Artifact.Wheel.ResultIndex != 0 {
		t.Errorf("unexpected artifact %+v", rv.Artifact)
	}

	w = do(t, h, "POST", "/api/v1/rounds/"+offer.ID+"/reveal", reveal)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on a second reveal, got %d", w.Code)
	}

	w = do(t, h, "GET", "/api/v1/rounds/"+offer.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var rec round.Record
	decode(t, w, &rec)
	if rec.Reveal == nil || rec.Reveal.Seed != rv.Seed {
		t.Errorf("journaled reveal differs: %+v", rec.Reveal)
	}

	w = do(t, h, "POST", "/api/v1/rounds/"+offer.ID+"/replay", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var replay round.ReplayResult
	decode(t, w, &replay)
	if !replay.Match {
		t.Errorf("replay did not match: %+v", replay)
	}

	w = do(t, h, "GET", "/api/v1/rounds?game=double-or-nothing&status=settled", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list store.RoundsList
	decode(t, w, &list)
	if list.TotalCount != 1 || list.Rounds[0].ID != offer.ID {
		t.Errorf("unexpected list %+v", list)
	}

	w = do(t, h, "GET", "/api/v1/rounds?page=zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bad page, got %d", w.Code)
	}
}

func TestRoundErrors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantType   string
	}{
		{name: "unknown game", method: "POST", path: "/api/v1/rounds", body: round.OfferRequest{GameID: "baccarat", Wager: decimal.NewFromInt(1)}, wantStatus: http.StatusNotFound, wantType: ErrTypeGameNotFound},
		{name: "missing game", method: "POST", path: "/api/v1/rounds", body: round.OfferRequest{Wager: decimal.NewFromInt(1)}, wantStatus: http.StatusBadRequest, wantType: ErrTypeValidation},
		{name: "over cap", method: "POST", path: "/api/v1/rounds", body: round.OfferRequest{GameID: "slots", Wager: decimal.NewFromInt(1000)}, wantStatus: http.StatusUnprocessableEntity, wantType: ErrTypeCapacity},
		{name: "bad params", method: "POST", path: "/api/v1/rounds", body: round.OfferRequest{GameID: "dice", Wager: decimal.NewFromInt(1), Params: round.Params{RollUnder: 100}}, wantStatus: http.StatusBadRequest, wantType: ErrTypeInvalidParams},
		{name: "unknown round", method: "GET", path: "/api/v1/rounds/nope", wantStatus: http.StatusNotFound, wantType: ErrTypeRoundNotFound},
		{name: "reveal unknown round", method: "POST", path: "/api/v1/rounds/nope/reveal", body: round.RevealRequest{}, wantStatus: http.StatusNotFound, wantType: ErrTypeRoundNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body)
			}
			var engineErr EngineError
			decode(t, w, &engineErr)
			if engineErr.Type != tt.wantType {
				t.Errorf("error type %q, want %q", engineErr.Type, tt.wantType)
			}
			if w.Header().Get("X-Error-Category") != string(GetErrorCategory(tt.wantType)) {
				t.Errorf("category header %q", w.Header().Get("X-Error-Category"))
			}
		})
	}

	req := httptest.NewRequest("POST", "/api/v1/rounds", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed JSON, got %d", w.Code)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "POST", "/api/v1/simulate", sim.Request{GameID: "wheel", Rounds: 2000})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var rep sim.Report
	decode(t, w, &rep)
	if rep.Rounds != 2000 || rep.Misses != 0 {
		t.Errorf("unexpected report %+v", rep)
	}

	w = do(t, h, "POST", "/api/v1/simulate", sim.Request{GameID: "wheel", Rounds: maxSimulationRounds + 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantType   string
	}{
		{err: pool.ErrNoPool, wantStatus: http.StatusServiceUnavailable, wantType: ErrTypeServiceUnavailable},
		{err: context.DeadlineExceeded, wantStatus: http.StatusRequestTimeout, wantType: ErrTypeTimeout},
		{err: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantType: ErrTypeInternal},
	}
	for _, tt := range tests {
		status, errType := classify(tt.err)
		if status != tt.wantStatus || errType != tt.wantType {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, errType, tt.wantStatus, tt.wantType)
		}
	}
}
