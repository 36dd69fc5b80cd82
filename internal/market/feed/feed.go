// Package feed streams real asset prices from an exchange websocket and
// converts them into market ticks. It reconnects with exponential backoff
// and never blocks the consumer; a slow consumer loses ticks, not the
// connection.
package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/market"
)

// Config holds feed connection parameters.
type Config struct {
	// URL is the websocket endpoint, e.g.
	// wss://stream.binance.com:9443/ws.
	URL string

	// Symbol is the lowercase stream symbol, e.g. btcusdt.
	Symbol string

	// TickBuffer is the size of the outgoing tick channel.
	TickBuffer int

	// ReconnectBase and ReconnectMax bound the backoff between dial
	// attempts.
	ReconnectBase time.Duration
	ReconnectMax  time.Duration

	// Logger defaults to zap.NewNop.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:        "btcusdt",
		TickBuffer:    256,
		ReconnectBase: time.Second,
		ReconnectMax:  30 * time.Second,
	}
}

// tradeMessage is the subset of the exchange trade payload we read.
type tradeMessage struct {
	Price string `json:"p"`
	Time  int64  `json:"T"`
}

// Client is a reconnecting websocket price feed.
type Client struct {
	cfg Config
	log *zap.Logger

	ticks        chan market.Tick
	droppedTicks atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Client and starts its connection loop.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("feed: websocket URL required")
	}
	def := DefaultConfig()
	if cfg.Symbol == "" {
		cfg.Symbol = def.Symbol
	}
	if cfg.TickBuffer <= 0 {
		cfg.TickBuffer = def.TickBuffer
	}
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = def.ReconnectBase
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = def.ReconnectMax
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Client{
		cfg:    cfg,
		log:    cfg.Logger.Named("feed"),
		ticks:  make(chan market.Tick, cfg.TickBuffer),
		closed: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.runConnectionLoop()
	return c, nil
}

func (c *Client) runConnectionLoop() {
	defer c.wg.Done()
	defer close(c.ticks)

	backoff := c.cfg.ReconnectBase
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.streamURL(), nil)
		if err != nil {
			c.log.Warn("feed dial failed",
				zap.String("url", c.cfg.URL),
				zap.Duration("retry_in", backoff),
				zap.Error(err))
			select {
			case <-c.closed:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.ReconnectMax {
				backoff = c.cfg.ReconnectMax
			}
			continue
		}

		c.log.Info("feed connected", zap.String("symbol", c.cfg.Symbol))
		backoff = c.cfg.ReconnectBase
		c.readUntilError(conn)
		conn.Close()
	}
}

func (c *Client) streamURL() string {
	return fmt.Sprintf("%s/%s@trade", strings.TrimRight(c.cfg.URL, "/"), c.cfg.Symbol)
}

// readUntilError pumps messages until the connection breaks or the client
// closes. A close signal is handled by the deadline-free read returning
// after conn.Close in Close's caller path.
func (c *Client) readUntilError(conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-c.closed:
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.log.Warn("feed read failed", zap.Error(err))
			}
			return
		}

		var msg tradeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		price, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil || price <= 0 {
			continue
		}

		t := market.Tick{Time: msg.Time / 1000, Price: price}
		select {
		case c.ticks <- t:
		default:
			c.droppedTicks.Add(1)
		}
	}
}

// Ticks returns the tick channel. It closes when the client closes.
func (c *Client) Ticks() <-chan market.Tick {
	return c.ticks
}

// DroppedTicks returns how many ticks a slow consumer lost.
func (c *Client) DroppedTicks() int64 {
	return c.droppedTicks.Load()
}

// Close tears down the connection and stops reconnecting.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	c.wg.Wait()
}
