package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a DB kept in process memory, used when no database path is
// configured and in tests.
type Memory struct {
	mu     sync.RWMutex
	rounds map[string]Round
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{rounds: make(map[string]Round)}
}

func (m *Memory) Close() error   { return nil }
func (m *Memory) Migrate() error { return nil }

func (m *Memory) SaveRound(_ context.Context, round *Round) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}
	if round.Status == "" {
		round.Status = StatusOffered
	}
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[round.ID]; ok {
		return fmt.Errorf("failed to save round: duplicate id %s", round.ID)
	}
	m.rounds[round.ID] = *round
	return nil
}

func (m *Memory) SettleRound(_ context.Context, round *Round) error {
	if round.SettledAt == nil {
		now := time.Now().UTC()
		round.SettledAt = &now
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rounds[round.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, round.ID)
	}
	if stored.Status != StatusOffered {
		return fmt.Errorf("%w: %s", ErrAlreadySettled, round.ID)
	}
	stored.Status = StatusSettled
	stored.RevealJSON = round.RevealJSON
	stored.ResultIndex = round.ResultIndex
	stored.Multiplier = round.Multiplier
	stored.Payout = round.Payout
	stored.Seed = round.Seed
	stored.ArtifactJSON = round.ArtifactJSON
	stored.Signature = round.Signature
	stored.SettledAt = round.SettledAt
	m.rounds[round.ID] = stored
	round.Status = StatusSettled
	return nil
}

func (m *Memory) GetRound(_ context.Context, id string) (*Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	round, ok := m.rounds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &round, nil
}

func (m *Memory) ListRounds(_ context.Context, query RoundsQuery) (*RoundsList, error) {
	query = normalizeQuery(query)

	m.mu.RLock()
	matched := make([]Round, 0, len(m.rounds))
	for _, r := range m.rounds {
		if query.Game != "" && r.Game != query.Game {
			continue
		}
		if query.Status != "" && r.Status != query.Status {
			continue
		}
		matched = append(matched, r)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	from := (query.Page - 1) * query.PerPage
	if from > total {
		from = total
	}
	to := from + query.PerPage
	if to > total {
		to = total
	}

	return &RoundsList{
		Rounds:     append([]Round{}, matched[from:to]...),
		TotalCount: total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: (total + query.PerPage - 1) / query.PerPage,
	}, nil
}
