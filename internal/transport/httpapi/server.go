// Package httpapi exposes the game over HTTP: REST commands for the
// session lifecycle, leaderboard queries, and a websocket stream of
// session snapshots.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/game"
	"github.com/zappabad/bullbear/internal/leaderboard"
	"github.com/zappabad/bullbear/internal/leaderboard/store"
	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/session/core"
	"github.com/zappabad/bullbear/internal/trader"
)

// Config holds HTTP server parameters.
type Config struct {
	Addr string
	// SnapshotInterval paces the websocket stream.
	SnapshotInterval time.Duration
	// Logger defaults to zap.NewNop.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8080",
		SnapshotInterval: 500 * time.Millisecond,
	}
}

// Server is the HTTP host for a Game.
type Server struct {
	cfg    Config
	log    *zap.Logger
	game   *game.Game
	board  *store.Store
	router *gin.Engine
	srv    *http.Server
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewServer builds the router. board may be nil; the leaderboard routes
// then answer 503.
func NewServer(cfg Config, g *game.Game, board *store.Store) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultConfig().SnapshotInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:   cfg,
		log:   cfg.Logger.Named("http"),
		game:  g,
		board: board,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/game")
	{
		api.POST("/initialize", s.handleInitialize)
		api.POST("/start", s.handleStart)
		api.POST("/pause", s.handlePause)
		api.POST("/resume", s.handleResume)
		api.POST("/reset", s.handleReset)
		api.POST("/trade", s.handleTrade)
		api.POST("/positions", s.handleOpenPosition)
		api.DELETE("/positions/:id", s.handleClosePosition)
		api.GET("/session", s.handleSession)
		api.GET("/news", s.handleNews)
	}

	router.POST("/api/leaderboard", s.handleSubmitScore)
	router.GET("/api/leaderboard", s.handleTopScores)
	router.GET("/ws", s.handleStream)

	s.router = router
	return s
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.cfg.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrBadState),
		errors.Is(err, core.ErrNotInitialized),
		errors.Is(err, ledger.ErrAlreadyClosed):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidPosition),
		errors.Is(err, ledger.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type initializeRequest struct {
	PlayerName string `json:"playerName"`
}

func (s *Server) handleInitialize(c *gin.Context) {
	// an empty or missing body is fine, the default player name applies
	var req initializeRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.game.Session.Initialize(c.Request.Context(), req.PlayerName); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.game.Session.Start(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePause(c *gin.Context) {
	if err := s.game.Session.Pause(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleResume(c *gin.Context) {
	if err := s.game.Session.Resume(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.game.Session.Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type tradeRequest struct {
	Stance string `json:"stance"`
}

func (s *Server) handleTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stance, ok := trader.ParseStance(req.Stance)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stance must be buy, sell or neutral"})
		return
	}
	if err := s.game.Session.PlaceTrade(c.Request.Context(), stance); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type openPositionRequest struct {
	Size       float64 `json:"size"`
	Leverage   float64 `json:"leverage"`
	StopLoss   float64 `json:"stopLoss"`
	TakeProfit float64 `json:"takeProfit"`
}

func (s *Server) handleOpenPosition(c *gin.Context) {
	var req openPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pos, err := s.game.Session.OpenPosition(c.Request.Context(),
		req.Size, req.Leverage, req.StopLoss, req.TakeProfit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, positionToJSON(pos))
}

func (s *Server) handleClosePosition(c *gin.Context) {
	pos, err := s.game.Session.ClosePosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, positionToJSON(pos))
}

func (s *Server) handleSession(c *gin.Context) {
	snap, err := s.game.Session.Snapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotToJSON(snap))
}

func (s *Server) handleNews(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	c.JSON(http.StatusOK, s.game.News.Latest(n))
}

func (s *Server) handleSubmitScore(c *gin.Context) {
	if s.board == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard storage disabled"})
		return
	}
	var e leaderboard.Entry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := s.board.Insert(c.Request.Context(), e)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) handleTopScores(c *gin.Context) {
	if s.board == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard storage disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := s.board.Top(c.Request.Context(), c.Query("difficulty"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// handleStream pushes session snapshots over a websocket until the client
// goes away.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// discard client messages; a read error is our disconnect signal
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap, err := s.game.Session.Snapshot(context.Background())
			if err != nil {
				return
			}
			if err := conn.WriteJSON(snapshotToJSON(snap)); err != nil {
				return
			}
		}
	}
}
