// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Draw fee policies accepted in configuration.
const (
	DrawPolicySplit = "split"
	DrawPolicyWaive = "waive"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// EngineConfig holds session recording engine configuration.
type EngineConfig struct {
	// CommissionRateBps is the platform commission in basis points.
	CommissionRateBps int `mapstructure:"commission_rate_bps"`
	// StartingRating is assigned on a player's first appearance in a game.
	StartingRating int `mapstructure:"starting_rating"`
	// MaxCommitAttempts bounds the optimistic-concurrency retry loop.
	MaxCommitAttempts int `mapstructure:"max_commit_attempts"`
	// DrawFeePolicy decides what happens to the fee on a draw:
	// "split" halves it between both players, "waive" charges nothing.
	DrawFeePolicy string `mapstructure:"draw_fee_policy"`
	// RequireRegistration rejects sessions for players with no prior
	// stat row for the game instead of creating one lazily.
	RequireRegistration bool `mapstructure:"require_registration"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., DATABASE_HOST, ENGINE_COMMISSION_RATE_BPS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Engine.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kitaa")
	v.SetDefault("database.name", "kitaa")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Engine defaults
	v.SetDefault("engine.commission_rate_bps", 1000)
	v.SetDefault("engine.starting_rating", 1000)
	v.SetDefault("engine.max_commit_attempts", 4)
	v.SetDefault("engine.draw_fee_policy", DrawPolicySplit)
	v.SetDefault("engine.require_registration", false)
}

func (e *EngineConfig) validate() error {
	if e.DrawFeePolicy != DrawPolicySplit && e.DrawFeePolicy != DrawPolicyWaive {
		return fmt.Errorf("unknown draw fee policy %q", e.DrawFeePolicy)
	}
	if e.MaxCommitAttempts < 1 {
		return fmt.Errorf("max_commit_attempts must be at least 1, got %d", e.MaxCommitAttempts)
	}
	if e.CommissionRateBps < 0 || e.CommissionRateBps > 10000 {
		return fmt.Errorf("commission_rate_bps out of range: %d", e.CommissionRateBps)
	}
	return nil
}
