package learning

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// Postgres is a Store backed by pgxpool, for deployments where several
// processing nodes share one learning state.
type Postgres struct {
	pool *pgxpool.Pool
	keys *keyedLocks
}

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "learning: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "learning: ping postgres")
	}
	return &Postgres{pool: pool, keys: newKeyedLocks()}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS carrier_profiles (
	carrier_code TEXT PRIMARY KEY,
	profile      JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "learning: migrate postgres")
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) GetProfile(ctx context.Context, carrier string) (*model.CarrierFormatProfile, error) {
	var profileJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM carrier_profiles WHERE carrier_code = $1`,
		carrierKey(carrier),
	).Scan(&profileJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "learning: get profile %s", carrier)
	}
	return unmarshalProfile(string(profileJSON))
}

// RecordOutcome stages the update and commits the whole profile in a single
// upsert, inside the per-carrier lock.
func (s *Postgres) RecordOutcome(ctx context.Context, carrier string, o Outcome) (*model.CarrierFormatProfile, error) {
	key := carrierKey(carrier)
	unlock := s.keys.lock(key)
	defer unlock()

	staged, err := s.GetProfile(ctx, key)
	if err != nil {
		return nil, err
	}
	if staged == nil {
		staged = &model.CarrierFormatProfile{CarrierCode: key}
	}
	applyOutcome(staged, o, time.Now())

	profileJSON, err := json.Marshal(staged)
	if err != nil {
		return nil, eris.Wrap(err, "learning: marshal profile")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO carrier_profiles (carrier_code, profile, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (carrier_code) DO UPDATE SET profile = EXCLUDED.profile, updated_at = EXCLUDED.updated_at`,
		key, profileJSON, staged.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "learning: upsert profile %s", key)
	}
	return staged, nil
}

func (s *Postgres) ListProfiles(ctx context.Context) ([]model.CarrierFormatProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT profile FROM carrier_profiles ORDER BY carrier_code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "learning: list profiles")
	}
	defer rows.Close()

	var profiles []model.CarrierFormatProfile
	for rows.Next() {
		var profileJSON []byte
		if err := rows.Scan(&profileJSON); err != nil {
			return nil, eris.Wrap(err, "learning: scan profile")
		}
		p, err := unmarshalProfile(string(profileJSON))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "learning: list profiles iterate")
}
