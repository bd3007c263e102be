package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Matching MatchingConfig
	Dedup    DedupConfig
	Store    StoreConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// MatchingConfig holds reconciliation thresholds, all on the 0-100 scale.
type MatchingConfig struct {
	MatchThreshold       int `mapstructure:"match_threshold"`
	LearnThreshold       int `mapstructure:"learn_threshold"`
	MemoryFuzzyThreshold int `mapstructure:"memory_fuzzy_threshold"`
	ReviewThreshold      int `mapstructure:"review_threshold"`
}

// DedupConfig holds duplicate detection settings.
type DedupConfig struct {
	AmountTolerance string `mapstructure:"amount_tolerance"`
}

// Tolerance parses AmountTolerance, falling back to 0.01.
func (d DedupConfig) Tolerance() decimal.Decimal {
	t, err := decimal.NewFromString(strings.TrimSpace(d.AmountTolerance))
	if err != nil || t.IsNegative() {
		return decimal.New(1, -2)
	}
	return t
}

// StoreConfig names the documents the engine persists.
type StoreConfig struct {
	MemoryKey   string `mapstructure:"memory_key"`
	PaymentsKey string `mapstructure:"payments_key"`
	EntriesKey  string `mapstructure:"entries_key"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
	// Output is stderr, stdout, discard or a file path.
	Output string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "aidat", "aidat.db"))
	v.SetDefault("matching.match_threshold", 70)
	v.SetDefault("matching.learn_threshold", 85)
	v.SetDefault("matching.memory_fuzzy_threshold", 90)
	v.SetDefault("matching.review_threshold", 85)
	v.SetDefault("dedup.amount_tolerance", "0.01")
	v.SetDefault("store.memory_key", "match_memory")
	v.SetDefault("store.payments_key", "payments")
	v.SetDefault("store.entries_key", "account_entries")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// LoadEnvFiles exports variables from .env files, .env.local first. Variables
// already present in the environment are left alone, so earlier files win.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads configuration from file and env. Env var overrides use prefix AIDAT_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("AIDAT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "aidat"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("AIDAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("AIDAT_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "aidat", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("matching.match_threshold", cfg.Matching.MatchThreshold)
	v.Set("matching.learn_threshold", cfg.Matching.LearnThreshold)
	v.Set("matching.memory_fuzzy_threshold", cfg.Matching.MemoryFuzzyThreshold)
	v.Set("matching.review_threshold", cfg.Matching.ReviewThreshold)
	v.Set("dedup.amount_tolerance", cfg.Dedup.AmountTolerance)
	v.Set("store.memory_key", cfg.Store.MemoryKey)
	v.Set("store.payments_key", cfg.Store.PaymentsKey)
	v.Set("store.entries_key", cfg.Store.EntriesKey)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.output", cfg.Log.Output)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
