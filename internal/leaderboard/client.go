package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/score"
)

// Client talks to a leaderboard server over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Submit posts one score summary.
func (c *Client) Submit(ctx context.Context, s score.Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leaderboard", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leaderboard submit: status %d", resp.StatusCode)
	}
	return nil
}

// Top fetches the highest-scoring entries.
func (c *Client) Top(ctx context.Context, difficulty string, limit int) ([]Entry, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := c.baseURL + "/api/leaderboard"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("leaderboard top: status %d", resp.StatusCode)
	}
	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SubmitterConfig holds async submission parameters.
type SubmitterConfig struct {
	QueueSize   int
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *zap.Logger
}

// DefaultSubmitterConfig returns a SubmitterConfig with reasonable
// defaults.
func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		QueueSize:   32,
		MaxRetries:  4,
		BaseBackoff: 250 * time.Millisecond,
	}
}

// AsyncSubmitter delivers summaries in the background with retries.
// Enqueue never blocks; a full queue drops the summary. Delivery failure
// after all retries is logged and forgotten, never surfaced to gameplay.
type AsyncSubmitter struct {
	cfg    SubmitterConfig
	log    *zap.Logger
	client *Client

	queue   chan score.Summary
	dropped atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewAsyncSubmitter creates an AsyncSubmitter and starts its worker.
func NewAsyncSubmitter(client *Client, cfg SubmitterConfig) *AsyncSubmitter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultSubmitterConfig().QueueSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultSubmitterConfig().MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultSubmitterConfig().BaseBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	a := &AsyncSubmitter{
		cfg:    cfg,
		log:    cfg.Logger.Named("leaderboard"),
		client: client,
		queue:  make(chan score.Summary, cfg.QueueSize),
		closed: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.runWorker()
	return a
}

// Enqueue queues a summary for delivery without blocking.
func (a *AsyncSubmitter) Enqueue(s score.Summary) {
	select {
	case a.queue <- s:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many summaries were discarded on a full queue.
func (a *AsyncSubmitter) Dropped() int64 {
	return a.dropped.Load()
}

func (a *AsyncSubmitter) runWorker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.closed:
			return
		case s := <-a.queue:
			a.deliver(s)
		}
	}
}

func (a *AsyncSubmitter) deliver(s score.Summary) {
	backoff := a.cfg.BaseBackoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := a.client.Submit(ctx, s)
		cancel()
		if err == nil {
			a.log.Debug("score submitted", zap.String("player", s.PlayerName))
			return
		}
		if attempt >= a.cfg.MaxRetries {
			a.log.Warn("score submission abandoned",
				zap.String("player", s.PlayerName),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return
		}
		select {
		case <-a.closed:
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// Close stops the worker. Queued summaries not yet delivered are dropped.
func (a *AsyncSubmitter) Close() {
	a.closeOnce.Do(func() {
		close(a.closed)
	})
	a.wg.Wait()
}
