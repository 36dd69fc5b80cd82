package game

import (
	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/config"
	"github.com/zappabad/bullbear/internal/market/feed"
	newsservice "github.com/zappabad/bullbear/internal/news/service"
	"github.com/zappabad/bullbear/internal/session/core"
	sessionservice "github.com/zappabad/bullbear/internal/session/service"
)

// Config holds configuration for the game.
type Config struct {
	// PlayerName names the human player.
	PlayerName string
	// SessionConfig is the configuration for the session service.
	SessionConfig sessionservice.Config
	// NewsConfig is the configuration for the news service.
	NewsConfig newsservice.Config
	// FeedConfig is the configuration for the real market-data feed.
	FeedConfig feed.Config
	// EnableFeed drives prices from the feed instead of the simulated walk.
	EnableFeed bool
	// LeaderboardURL enables score submission when non-empty.
	LeaderboardURL string
	// Logger defaults to zap.NewNop.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		PlayerName:    "You",
		SessionConfig: sessionservice.DefaultConfig(),
		NewsConfig:    newsservice.DefaultConfig(),
		FeedConfig:    feed.DefaultConfig(),
	}
}

// ConfigFromApp maps the loaded application configuration onto a game
// Config.
func ConfigFromApp(app *config.Config, log *zap.Logger) Config {
	cfg := DefaultConfig()
	cfg.PlayerName = app.Game.PlayerName
	cfg.Logger = log

	cfg.SessionConfig.Core.Asset = app.Game.Asset
	cfg.SessionConfig.Core.Difficulty = core.ParseDifficulty(app.Game.Difficulty)
	cfg.SessionConfig.Core.Mode = core.ParseMode(app.Game.Mode)
	if app.Game.MaxRounds > 0 {
		cfg.SessionConfig.Core.MaxRounds = app.Game.MaxRounds
	}
	if app.Game.RoundSeconds > 0 {
		cfg.SessionConfig.Core.RoundSeconds = app.Game.RoundSeconds
	}
	if app.Game.AICount > 0 {
		cfg.SessionConfig.Core.AICount = app.Game.AICount
	}
	if app.Game.InitialBalance > 0 {
		cfg.SessionConfig.Core.InitialBalance = app.Game.InitialBalance
	}
	cfg.SessionConfig.Seed = app.Game.Seed

	cfg.EnableFeed = app.Feed.Enabled
	cfg.FeedConfig.URL = app.Feed.WSURL
	if app.Feed.Symbol != "" {
		cfg.FeedConfig.Symbol = app.Feed.Symbol
	}

	cfg.LeaderboardURL = app.Leaderboard.URL
	return cfg
}
