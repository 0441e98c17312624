// Package config loads the shardctl configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/gateway"
	"github.com/getpup/shardmanager/manager"
	"github.com/getpup/shardmanager/pool"
	"gopkg.in/yaml.v3"
)

// EnvToken overrides the token of the loaded file when set.
const EnvToken = "SHARDMANAGER_TOKEN"

// File is the on-disk configuration. Durations use time.ParseDuration syntax.
type File struct {
	Name        string   `toml:"name" yaml:"name"`
	ID          string   `toml:"id" yaml:"id"`
	Token       string   `toml:"token" yaml:"token"`
	APIBase     string   `toml:"api_base" yaml:"api_base"`
	ShardsTotal int      `toml:"shards_total" yaml:"shards_total"`
	ShardIDs    []int    `toml:"shard_ids" yaml:"shard_ids"`
	Intents     []string `toml:"intents" yaml:"intents"`
	CacheFlags  []string `toml:"cache_flags" yaml:"cache_flags"`

	LargeThreshold int          `toml:"large_threshold" yaml:"large_threshold"`
	ChunkOnStartup bool         `toml:"chunk_on_startup" yaml:"chunk_on_startup"`
	Presence       PresenceFile `toml:"presence" yaml:"presence"`

	ShutdownHook      *bool  `toml:"shutdown_hook" yaml:"shutdown_hook"`
	ImmediateShutdown bool   `toml:"immediate_shutdown" yaml:"immediate_shutdown"`
	ShutdownTimeout   string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	LoginInterval     string `toml:"login_interval" yaml:"login_interval"`

	Retry RetryFile `toml:"retry" yaml:"retry"`

	DefaultPoolSize int            `toml:"default_pool_size" yaml:"default_pool_size"`
	PerShardPools   map[string]int `toml:"per_shard_pools" yaml:"per_shard_pools"`

	Log     LogFile     `toml:"log" yaml:"log"`
	Metrics MetricsFile `toml:"metrics" yaml:"metrics"`
	Store   StoreFile   `toml:"store" yaml:"store"`
}

// PresenceFile is the initial presence.
type PresenceFile struct {
	Status   string `toml:"status" yaml:"status"`
	Activity string `toml:"activity" yaml:"activity"`
	AFK      bool   `toml:"afk" yaml:"afk"`
}

// RetryFile is the retry policy.
type RetryFile struct {
	InitialInterval string  `toml:"initial_interval" yaml:"initial_interval"`
	MaxInterval     string  `toml:"max_interval" yaml:"max_interval"`
	Multiplier      float64 `toml:"multiplier" yaml:"multiplier"`
}

// LogFile configures logging.
type LogFile struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// MetricsFile configures the metrics server.
type MetricsFile struct {
	Enabled *bool  `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr"`
}

// StoreFile configures status persistence. An empty dialect keeps statuses in memory.
type StoreFile struct {
	Dialect string `toml:"dialect" yaml:"dialect"`
	DSN     string `toml:"dsn" yaml:"dsn"`
	Table   string `toml:"table" yaml:"table"`
	Migrate bool   `toml:"migrate" yaml:"migrate"`
}

// Load reads a TOML or YAML file, chosen by extension, and applies env overrides.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return File{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return File{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		f.Token = token
	}

	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks fields the manager does not check itself.
func (f File) Validate() error {
	if strings.TrimSpace(f.Token) == "" {
		return fmt.Errorf("%w: token is required (or set %s)", shardmanager.ErrInvalidConfig, EnvToken)
	}
	if strings.TrimSpace(f.APIBase) == "" {
		return fmt.Errorf("%w: api_base is required", shardmanager.ErrInvalidConfig)
	}
	return nil
}

// MetricsEnabled reports whether metrics are collected (default: true).
func (f File) MetricsEnabled() bool {
	return f.Metrics.Enabled == nil || *f.Metrics.Enabled
}

// ManagerConfig converts the file into a manager configuration. Collaborators,
// store and logger are supplied by the caller and left unset here.
func (f File) ManagerConfig() (manager.Config, error) {
	intents := gateway.DefaultIntents
	if len(f.Intents) > 0 {
		parsed, err := gateway.ParseIntents(f.Intents)
		if err != nil {
			return manager.Config{}, err
		}
		intents = parsed
	}

	cacheFlags, err := gateway.ParseCacheFlags(f.CacheFlags)
	if err != nil {
		return manager.Config{}, err
	}

	cfg := manager.Config{
		Name:              f.Name,
		ID:                f.ID,
		ShardsTotal:       f.ShardsTotal,
		ShardIDs:          f.ShardIDs,
		DefaultPoolSize:   f.DefaultPoolSize,
		Intents:           intents,
		CacheFlags:        cacheFlags,
		CacheIntents:      gateway.CacheIntentRequirements,
		Chunking:          shardmanager.ChunkingPolicy{LargeThreshold: f.LargeThreshold, ChunkOnStartup: f.ChunkOnStartup},
		Presence:          shardmanager.Presence{Status: f.Presence.Status, Activity: f.Presence.Activity, AFK: f.Presence.AFK},
		ShutdownHook:      f.ShutdownHook == nil || *f.ShutdownHook,
		ImmediateShutdown: f.ImmediateShutdown,
		Retry:             manager.RetryPolicy{Multiplier: f.Retry.Multiplier},
	}

	enabled := f.MetricsEnabled()
	cfg.MetricsEnabled = &enabled

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"shutdown_timeout", f.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"login_interval", f.LoginInterval, &cfg.LoginInterval},
		{"retry.initial_interval", f.Retry.InitialInterval, &cfg.Retry.InitialInterval},
		{"retry.max_interval", f.Retry.MaxInterval, &cfg.Retry.MaxInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return manager.Config{}, fmt.Errorf("%w: parse %s: %v", shardmanager.ErrInvalidConfig, d.name, err)
		}
		*d.dst = parsed
	}

	if len(f.PerShardPools) > 0 {
		cfg.PoolProviders = make(map[pool.Kind]pool.Provider, len(f.PerShardPools))
		for name, size := range f.PerShardPools {
			kind, err := pool.ParseKind(name)
			if err != nil {
				return manager.Config{}, fmt.Errorf("%w: %v", shardmanager.ErrInvalidConfig, err)
			}
			cfg.PoolProviders[kind] = pool.PerShard(kind, size)
		}
	}

	return cfg, nil
}
