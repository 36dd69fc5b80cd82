// Package config loads the application configuration from file and
// environment through viper.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/zappabad/bullbear/internal/logger"
)

// Config is the full application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"Server"`
	Game        GameConfig        `mapstructure:"Game"`
	Feed        FeedConfig        `mapstructure:"Feed"`
	Leaderboard LeaderboardConfig `mapstructure:"Leaderboard"`
	Logging     logger.Config     `mapstructure:"Logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"Addr"`
}

// GameConfig configures the session rules.
type GameConfig struct {
	PlayerName     string  `mapstructure:"PlayerName"`
	Asset          string  `mapstructure:"Asset"`
	Difficulty     string  `mapstructure:"Difficulty"`
	Mode           string  `mapstructure:"Mode"`
	MaxRounds      int     `mapstructure:"MaxRounds"`
	RoundSeconds   int     `mapstructure:"RoundSeconds"`
	AICount        int     `mapstructure:"AICount"`
	InitialBalance float64 `mapstructure:"InitialBalance"`
	Seed           int64   `mapstructure:"Seed"`
}

// FeedConfig configures the optional real market-data feed.
type FeedConfig struct {
	Enabled bool   `mapstructure:"Enabled"`
	WSURL   string `mapstructure:"WSURL"`
	Symbol  string `mapstructure:"Symbol"`
}

// LeaderboardConfig configures score submission and storage.
type LeaderboardConfig struct {
	URL    string `mapstructure:"URL"`
	DBPath string `mapstructure:"DBPath"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Addr", ":8080")
	v.SetDefault("Game.PlayerName", "You")
	v.SetDefault("Game.Asset", "BTC")
	v.SetDefault("Game.Difficulty", "medium")
	v.SetDefault("Game.Mode", "classic")
	v.SetDefault("Game.MaxRounds", 10)
	v.SetDefault("Game.RoundSeconds", 30)
	v.SetDefault("Game.AICount", 5)
	v.SetDefault("Game.InitialBalance", 10000)
	v.SetDefault("Feed.Symbol", "btcusdt")
	v.SetDefault("Leaderboard.DBPath", "data/leaderboard.db")
	v.SetDefault("Logging.Level", "info")
}

// Load reads config.yaml from path (the current directory when empty).
// A missing file is fine; defaults and BULLBEAR_* environment variables
// still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path == "" {
		path = "."
	}
	v.AddConfigPath(path)
	v.SetEnvPrefix("BULLBEAR")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
