package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/model"
)

// SQLite is a Store backed by modernc.org/sqlite. Each profile lives in one
// row as JSON so it round-trips losslessly across restarts.
type SQLite struct {
	db   *sql.DB
	keys *keyedLocks
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "learning: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "learning: exec %s", pragma)
		}
	}
	return &SQLite{db: db, keys: newKeyedLocks()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS carrier_profiles (
	carrier_code TEXT PRIMARY KEY,
	profile      TEXT NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "learning: migrate sqlite")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) GetProfile(ctx context.Context, carrier string) (*model.CarrierFormatProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT profile FROM carrier_profiles WHERE carrier_code = ?`,
		carrierKey(carrier),
	)

	var profileJSON string
	err := row.Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "learning: get profile %s", carrier)
	}
	return unmarshalProfile(profileJSON)
}

// RecordOutcome stages the update on a copy and commits the whole profile in
// a single upsert, inside the per-carrier lock. Cancellation between read
// and write leaves the stored profile untouched.
func (s *SQLite) RecordOutcome(ctx context.Context, carrier string, o Outcome) (*model.CarrierFormatProfile, error) {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO carrier_profiles (carrier_code, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(carrier_code) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		key, string(profileJSON), staged.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "learning: upsert profile %s", key)
	}
	return staged, nil
}

func (s *SQLite) ListProfiles(ctx context.Context) ([]model.CarrierFormatProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile FROM carrier_profiles ORDER BY carrier_code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "learning: list profiles")
	}
	defer rows.Close()

	var profiles []model.CarrierFormatProfile
	for rows.Next() {
		var profileJSON string
		if err := rows.Scan(&profileJSON); err != nil {
			return nil, eris.Wrap(err, "learning: scan profile")
		}
		p, err := unmarshalProfile(profileJSON)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "learning: list profiles iterate")
}

func unmarshalProfile(profileJSON string) (*model.CarrierFormatProfile, error) {
	var p model.CarrierFormatProfile
	if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
		return nil, eris.Wrap(err, "learning: unmarshal profile")
	}
	return &p, nil
}
