// Package learning holds the per-carrier format-learning store: persisted
// structural fingerprints and success statistics that improve future column
// recognition without per-carrier branching in code.
package learning

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// StructureHints carries the qualitative structural attributes observed
// during one extraction. Hints overwrite the corresponding profile fields:
// the store favors recency over averaging, since a carrier's statement
// format is stable within a processing period but may change between them.
type StructureHints struct {
	DocumentType           model.DocumentType
	DataQuality            model.DataQuality
	PrimaryIdentifierField string
	// FixedMapping, when set, records a non-standard header layout the
	// mapper should prefer over alias search on the next run.
	FixedMapping map[string]int
}

// Outcome is the result of one extraction/match attempt for a carrier.
type Outcome struct {
	Success          bool
	ObservedPatterns []string
	Hints            *StructureHints
}

// Store is the persistence contract for carrier format profiles. Profiles
// are created on first encounter and never deleted. GetProfile returns
// (nil, nil) for a carrier with no profile yet.
//
// Implementations serialize RecordOutcome per carrier code: a profile has at
// most one concurrent writer, while distinct carriers proceed without
// coordination. An update either fully commits or fully rolls back.
type Store interface {
	GetProfile(ctx context.Context, carrier string) (*model.CarrierFormatProfile, error)
	RecordOutcome(ctx context.Context, carrier string, o Outcome) (*model.CarrierFormatProfile, error)
	ListProfiles(ctx context.Context) ([]model.CarrierFormatProfile, error)
	Migrate(ctx context.Context) error
	Close() error
}

// carrierKey normalizes a carrier code for keying: profiles are shared
// across casing variants of the same carrier.
func carrierKey(carrier string) string {
	return strings.ToLower(strings.TrimSpace(carrier))
}

// applyOutcome folds one outcome into a staged profile copy. Callers commit
// the returned profile as a whole, so a cancelled run never leaves a
// half-written profile behind.
func applyOutcome(p *model.CarrierFormatProfile, o Outcome, now time.Time) {
	p.Attempts++
	if o.Success {
		p.Successes++
		p.ObservePatterns(o.ObservedPatterns)
	}
	if o.Hints != nil {
		if o.Hints.DocumentType != "" {
			p.DocumentType = o.Hints.DocumentType
		}
		if o.Hints.DataQuality != "" {
			p.DataQuality = o.Hints.DataQuality
		}
		if o.Hints.PrimaryIdentifierField != "" {
			p.PrimaryIdentifierField = o.Hints.PrimaryIdentifierField
		}
		if o.Hints.FixedMapping != nil {
			p.FixedMapping = make(map[string]int, len(o.Hints.FixedMapping))
			for k, v := range o.Hints.FixedMapping {
				p.FixedMapping[k] = v
			}
		}
	}
	p.UpdatedAt = now.UTC()
}

// keyedLocks serializes writers per carrier key while letting distinct
// carriers proceed concurrently.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
