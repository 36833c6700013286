package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "compisure.db", cfg.Store.Path)
	assert.InDelta(t, 5.0, cfg.Tolerance.PercentThreshold, 1e-9)
	assert.InDelta(t, 10.00, cfg.Tolerance.AbsoluteThreshold, 1e-9)
	assert.Equal(t, "any", cfg.Tolerance.Mode)
	assert.Equal(t, "enrollment_info.csv", cfg.Enrollment.Path)
	assert.Equal(t, 4, cfg.Recon.MaxConcurrentCarriers)
	assert.Equal(t, 30, cfg.Watch.IntervalSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Carriers)
}

func TestLoad_FromFile(t *testing.T) {
	t.Chdir(t.TempDir())

	yaml := `
tolerance:
  percent_threshold: 2.5
  mode: all
carriers:
  hc:
    table_identifiers: ["policy no", "commission"]
    aliases:
      member_id: ["subscriber ref"]
    fixed_mapping:
      member_id: 0
      payout: 4
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.Tolerance.PercentThreshold, 1e-9)
	assert.Equal(t, "all", cfg.Tolerance.Mode)
	// Unset keys keep their defaults.
	assert.InDelta(t, 10.00, cfg.Tolerance.AbsoluteThreshold, 1e-9)

	hc, ok := cfg.Carriers["hc"]
	require.True(t, ok)
	assert.Equal(t, []string{"policy no", "commission"}, hc.TableIdentifiers)
	assert.Equal(t, []string{"subscriber ref"}, hc.Aliases["member_id"])
	assert.Equal(t, map[string]int{"member_id": 0, "payout": 4}, hc.FixedMapping)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
