package tradebot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Trade: TradeConfig{
			SweepIntervalSeconds:     300,
			InactivityWarningSeconds: 12 * 60 * 60,
			InactivityCloseSeconds:   24 * 60 * 60,
			ListingLimit:             50,
			PremiumListingLimit:      100,
			AlertLimit:               3,
			PremiumAlertLimit:        10,
		},
		Rep: RepConfig{
			QuickRatingCooldownSeconds: 24 * 60 * 60,
			RoleLevelThreshold:         5,
		},
	}
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	Bot   BotConfig   `toml:"bot"`
	DB    DBConfig    `toml:"db"`
	Trade TradeConfig `toml:"trade"`
	Rep   RepConfig   `toml:"rep"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	GuildID   snowflake.ID   `toml:"guild_id"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type TradeConfig struct {
	SweepIntervalSeconds     int `toml:"sweep_interval_seconds"`
	InactivityWarningSeconds int `toml:"inactivity_warning_seconds"`
	InactivityCloseSeconds   int `toml:"inactivity_close_seconds"`
	ListingLimit             int `toml:"listing_limit"`
	PremiumListingLimit      int `toml:"premium_listing_limit"`
	AlertLimit               int `toml:"alert_limit"`
	PremiumAlertLimit        int `toml:"premium_alert_limit"`
}

type RepConfig struct {
	QuickRatingCooldownSeconds int          `toml:"quick_rating_cooldown_seconds"`
	RoleLevelThreshold         int          `toml:"role_level_threshold"`
	LevelRole                  snowflake.ID `toml:"level_role"`
}

func (c TradeConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c TradeConfig) InactivityWarning() time.Duration {
	return time.Duration(c.InactivityWarningSeconds) * time.Second
}

func (c TradeConfig) InactivityClose() time.Duration {
	return time.Duration(c.InactivityCloseSeconds) * time.Second
}

// MaxListings returns the stock and wishlist cap for a user's tier.
func (c TradeConfig) MaxListings(premium bool) int {
	if premium {
		return c.PremiumListingLimit
	}
	return c.ListingLimit
}

// MaxAlerts returns the alert cap for a user's tier.
func (c TradeConfig) MaxAlerts(premium bool) int {
	if premium {
		return c.PremiumAlertLimit
	}
	return c.AlertLimit
}

func (c RepConfig) QuickRatingCooldown() time.Duration {
	return time.Duration(c.QuickRatingCooldownSeconds) * time.Second
}
