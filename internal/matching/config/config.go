// Package config loads matcher configuration via viper, following the
// teacher's internal/trading/config package: a single construction-time
// load producing an immutable Config, never re-read after startup.
package config

import (
	"time"

	"github.com/orbitcex/matchcore/internal/matching/engine"
	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/orbitcex/matchcore/internal/matching/risk"
	"github.com/spf13/viper"
)

// Config is the fully resolved, immutable startup configuration for a
// matchcore instance (spec section 6).
type Config struct {
	CommandQueueCapacity int
	OrderPoolInitialSize int
	Backpressure         engine.BackpressurePolicy

	MinPrice    model.Price
	MaxPrice    model.Price
	MaxQuantity uint64

	JournalPath       string
	JournalCapacity   int
	JournalBatchSize  int
	JournalFlushEvery time.Duration
	CheckpointDir     string
	CheckpointEvery   time.Duration

	HTTPAddr string
	WSAddr   string
}

// Load reads configuration from the given file path (if non-empty),
// environment variables prefixed MATCHCORE_, and hard-coded defaults,
// matching the teacher's viper wiring. Environment variables override the
// file, which overrides the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATCHCORE")
	v.AutomaticEnv()

	v.SetDefault("command_queue_capacity", 1<<16)
	v.SetDefault("order_pool_initial_size", 1<<16)
	v.SetDefault("backpressure_policy", "spin")
	v.SetDefault("min_price", 1)
	v.SetDefault("max_price", 1_000_000_000)
	v.SetDefault("max_quantity", uint64(1_000_000_000))
	v.SetDefault("journal_path", "matchcore.journal")
	v.SetDefault("journal_capacity", 1<<16)
	v.SetDefault("journal_batch_size", 256)
	v.SetDefault("journal_flush_every", "5ms")
	v.SetDefault("checkpoint_dir", "matchcore-checkpoint")
	v.SetDefault("checkpoint_every", "1s")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("ws_addr", ":8081")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	flushEvery, err := time.ParseDuration(v.GetString("journal_flush_every"))
	if err != nil {
		return Config{}, err
	}
	checkpointEvery, err := time.ParseDuration(v.GetString("checkpoint_every"))
	if err != nil {
		return Config{}, err
	}

	backpressure := engine.Spin
	if v.GetString("backpressure_policy") == "failfast" {
		backpressure = engine.FailFast
	}

	return Config{
		CommandQueueCapacity: v.GetInt("command_queue_capacity"),
		OrderPoolInitialSize: v.GetInt("order_pool_initial_size"),
		Backpressure:         backpressure,
		MinPrice:             model.Price(v.GetInt64("min_price")),
		MaxPrice:             model.Price(v.GetInt64("max_price")),
		MaxQuantity:          v.GetUint64("max_quantity"),
		JournalPath:          v.GetString("journal_path"),
		JournalCapacity:      v.GetInt("journal_capacity"),
		JournalBatchSize:     v.GetInt("journal_batch_size"),
		JournalFlushEvery:    flushEvery,
		CheckpointDir:        v.GetString("checkpoint_dir"),
		CheckpointEvery:      checkpointEvery,
		HTTPAddr:             v.GetString("http_addr"),
		WSAddr:               v.GetString("ws_addr"),
	}, nil
}

// EngineConfig projects Config's engine-relevant fields into
// engine.Config.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		CommandQueueCapacity: c.CommandQueueCapacity,
		OrderPoolInitialSize: c.OrderPoolInitialSize,
		Backpressure:         c.Backpressure,
		Risk: risk.Config{
			MaxQuantity: c.MaxQuantity,
			MinPrice:    c.MinPrice,
			MaxPrice:    c.MaxPrice,
		},
	}
}
