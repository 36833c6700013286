package learning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// Memory is an in-memory Store, used in tests and wherever persistence is
// not wanted.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]*model.CarrierFormatProfile
	keys     *keyedLocks
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]*model.CarrierFormatProfile),
		keys:     newKeyedLocks(),
	}
}

func (m *Memory) GetProfile(_ context.Context, carrier string) (*model.CarrierFormatProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[carrierKey(carrier)]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (m *Memory) RecordOutcome(_ context.Context, carrier string, o Outcome) (*model.CarrierFormatProfile, error) {
	key := carrierKey(carrier)
	unlock := m.keys.lock(key)
	defer unlock()

	m.mu.RLock()
	existing := m.profiles[key]
	m.mu.RUnlock()

	staged := &model.CarrierFormatProfile{CarrierCode: key}
	if existing != nil {
		staged = existing.Clone()
	}
	applyOutcome(staged, o, time.Now())

	m.mu.Lock()
	m.profiles[key] = staged
	m.mu.Unlock()

	return staged.Clone(), nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]model.CarrierFormatProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.CarrierFormatProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CarrierCode < out[j].CarrierCode })
	return out, nil
}

func (m *Memory) Migrate(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
