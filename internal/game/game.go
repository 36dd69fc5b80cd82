// Package game owns all the subsystems and manages their lifecycle.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/leaderboard"
	"github.com/zappabad/bullbear/internal/market/feed"
	"github.com/zappabad/bullbear/internal/market/sim"
	newsservice "github.com/zappabad/bullbear/internal/news/service"
	"github.com/zappabad/bullbear/internal/session/core"
	sessionservice "github.com/zappabad/bullbear/internal/session/service"
)

// Game wires the session, news, feed and leaderboard subsystems together.
type Game struct {
	Session *sessionservice.Service
	News    *newsservice.Service
	Feed    *feed.Client

	cfg       Config
	log       *zap.Logger
	submitter *leaderboard.AsyncSubmitter

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewGame creates a Game with the given configuration and starts its
// subsystems.
func NewGame(cfg Config) (*Game, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	g := &Game{
		cfg:    cfg,
		log:    cfg.Logger,
		closed: make(chan struct{}),
	}

	if cfg.LeaderboardURL != "" {
		subCfg := leaderboard.DefaultSubmitterConfig()
		subCfg.Logger = cfg.Logger
		g.submitter = leaderboard.NewAsyncSubmitter(
			leaderboard.NewClient(cfg.LeaderboardURL, 5*time.Second), subCfg)
		cfg.SessionConfig.Submitter = g.submitter
	}

	if cfg.EnableFeed {
		fcfg := cfg.FeedConfig
		fcfg.Logger = cfg.Logger
		fc, err := feed.New(fcfg)
		if err != nil {
			if g.submitter != nil {
				g.submitter.Close()
			}
			return nil, err
		}
		g.Feed = fc
		cfg.SessionConfig.ExternalTicks = fc.Ticks()
	}

	cfg.SessionConfig.Logger = cfg.Logger
	if cfg.SessionConfig.Seed == 0 {
		cfg.SessionConfig.Seed = time.Now().UnixNano()
	}
	g.Session = sessionservice.NewService(cfg.SessionConfig)

	// The news generator runs on its own goroutine, so it gets its own
	// stream derived from the session seed rather than the shared rand.Rand.
	newsRNG := sim.NewSeeded(cfg.SessionConfig.Seed + 1)
	g.News = newsservice.NewService(cfg.NewsConfig, newsRNG, cfg.Logger)

	// headlines become price shocks
	g.wg.Add(1)
	go g.runNewsPump()

	return g, nil
}

func (g *Game) runNewsPump() {
	defer g.wg.Done()
	for {
		select {
		case <-g.closed:
			return
		case item, ok := <-g.News.Events():
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			err := g.Session.InjectShock(ctx, item.Headline, item.Bias, item.DecayTicks)
			cancel()
			if err != nil && !errors.Is(err, core.ErrBadState) {
				g.log.Warn("shock injection failed", zap.Error(err))
			}
		}
	}
}

// Begin initializes and starts a session for the configured player.
func (g *Game) Begin(ctx context.Context) error {
	if err := g.Session.Initialize(ctx, g.cfg.PlayerName); err != nil {
		return err
	}
	return g.Session.Start(ctx)
}

// Close shuts down all subsystems in reverse dependency order.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeOnce.Do(func() {
		close(g.closed)
	})

	if g.News != nil {
		g.News.Close()
	}
	if g.Feed != nil {
		g.Feed.Close()
	}
	g.wg.Wait()

	if g.Session != nil {
		g.Session.Close()
	}
	if g.submitter != nil {
		g.submitter.Close()
	}
}
