package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Economy configuration
	TapRateInterval   time.Duration // minimum time between accepted taps
	DailyRewardAmount int64
	MinimumWithdrawal int64
	BaseUpgradeCost   int64
	ReferralBonus     int64
	WithdrawalMethods []string
	LeaderboardSize   int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Economy settings with defaults
		TapRateInterval:   100 * time.Millisecond, // 10 taps/second ceiling
		DailyRewardAmount: 500,
		MinimumWithdrawal: 50000,
		BaseUpgradeCost:   50,
		ReferralBonus:     1000,
		WithdrawalMethods: []string{"ton", "usdt", "card"},
		LeaderboardSize:   10,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if interval := os.Getenv("TAP_RATE_INTERVAL_MS"); interval != "" {
		if ms, err := strconv.ParseInt(interval, 10, 64); err == nil && ms > 0 {
			config.TapRateInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if reward := os.Getenv("DAILY_REWARD_AMOUNT"); reward != "" {
		if parsed, err := strconv.ParseInt(reward, 10, 64); err == nil {
			config.DailyRewardAmount = parsed
		}
	}
	if min := os.Getenv("MINIMUM_WITHDRAWAL"); min != "" {
		if parsed, err := strconv.ParseInt(min, 10, 64); err == nil {
			config.MinimumWithdrawal = parsed
		}
	}
	if cost := os.Getenv("BASE_UPGRADE_COST"); cost != "" {
		if parsed, err := strconv.ParseInt(cost, 10, 64); err == nil {
			config.BaseUpgradeCost = parsed
		}
	}
	if bonus := os.Getenv("REFERRAL_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil {
			config.ReferralBonus = parsed
		}
	}
	if size := os.Getenv("LEADERBOARD_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.LeaderboardSize = parsed
		}
	}

	// Parse withdrawal method list
	if methods := os.Getenv("WITHDRAWAL_METHODS"); methods != "" {
		var parsed []string
		for _, m := range strings.Split(methods, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				parsed = append(parsed, m)
			}
		}
		if len(parsed) > 0 {
			config.WithdrawalMethods = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
