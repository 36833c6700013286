package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig              `yaml:"store" mapstructure:"store"`
	Tolerance  ToleranceConfig          `yaml:"tolerance" mapstructure:"tolerance"`
	Enrollment EnrollmentConfig         `yaml:"enrollment" mapstructure:"enrollment"`
	Recon      ReconConfig              `yaml:"recon" mapstructure:"recon"`
	Watch      WatchConfig              `yaml:"watch" mapstructure:"watch"`
	Server     ServerConfig             `yaml:"server" mapstructure:"server"`
	Log        LogConfig                `yaml:"log" mapstructure:"log"`
	Carriers   map[string]CarrierConfig `yaml:"carriers" mapstructure:"carriers"`
}

// StoreConfig configures the format-learning store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ToleranceConfig configures variance classification thresholds.
type ToleranceConfig struct {
	PercentThreshold  float64 `yaml:"percent_threshold" mapstructure:"percent_threshold"`
	AbsoluteThreshold float64 `yaml:"absolute_threshold" mapstructure:"absolute_threshold"`
	// Mode selects how the two thresholds combine: "any" (either suffices)
	// or "all" (both must hold).
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// EnrollmentConfig configures the enrollment book source.
type EnrollmentConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReconConfig configures the reconciliation run.
type ReconConfig struct {
	MaxConcurrentCarriers int `yaml:"max_concurrent_carriers" mapstructure:"max_concurrent_carriers"`
}

// WatchConfig configures the statement directory watcher.
type WatchConfig struct {
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CarrierConfig holds per-carrier overrides. Aliases are merged ahead of the
// built-in alias table; TableIdentifiers locate the commission table inside
// raw extracted rows; FixedMapping pins canonical fields to column indexes
// for carriers whose headers never resolve by alias, consulted before the
// learned profile.
type CarrierConfig struct {
	TableIdentifiers []string            `yaml:"table_identifiers" mapstructure:"table_identifiers"`
	Aliases          map[string][]string `yaml:"aliases" mapstructure:"aliases"`
	FixedMapping     map[string]int      `yaml:"fixed_mapping" mapstructure:"fixed_mapping"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPISURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "compisure.db")
	v.SetDefault("tolerance.percent_threshold", 5.0)
	v.SetDefault("tolerance.absolute_threshold", 10.00)
	v.SetDefault("tolerance.mode", "any")
	v.SetDefault("enrollment.path", "enrollment_info.csv")
	v.SetDefault("recon.max_concurrent_carriers", 4)
	v.SetDefault("watch.interval_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
