// Package service generates market news shocks on a timer and publishes
// them to subscribers. The session layer turns each shock into a bias
// injection on the price simulator.
package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/market/sim"
	"github.com/zappabad/bullbear/internal/news"
)

var headlines = []struct {
	text     string
	bias     float64
	severity int
}{
	{"Regulator clears spot ETF listing", 1.2, 2},
	{"Sovereign fund discloses large allocation", 1.0, 2},
	{"Exchange resumes withdrawals after audit", 0.6, 1},
	{"Protocol upgrade ships ahead of schedule", 0.5, 1},
	{"Funding rates flip positive across venues", 0.4, 0},
	{"Miner sell pressure eases", 0.3, 0},
	{"Stablecoin issuer misses attestation window", -0.5, 1},
	{"Exchange halts withdrawals citing maintenance", -0.8, 2},
	{"Large wallet moves dormant coins to exchange", -0.6, 1},
	{"Leverage flush cascades through perp venues", -1.2, 2},
	{"Regulator opens inquiry into market maker", -1.0, 2},
	{"Macro print comes in hot, risk assets slide", -0.7, 1},
}

// Service rolls for shocks on a timer, keeps a tape of published items and
// fans them out on an events channel.
type Service struct {
	cfg Config
	rng sim.RNG
	log *zap.Logger

	mu   sync.Mutex
	tape []news.Item

	events  chan news.Item
	dropped atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates a news Service and starts its generator. rng is shared
// with the rest of the session for reproducibility; logger may be nil.
func NewService(cfg Config, rng sim.RNG, log *zap.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.TapeSize <= 0 {
		cfg.TapeSize = DefaultConfig().TapeSize
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:    cfg,
		rng:    rng,
		log:    log,
		events: make(chan news.Item, cfg.EventBuffer),
		closed: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Service) run() {
	defer s.wg.Done()
	defer close(s.events)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			if item, ok := s.roll(time.Now().Unix()); ok {
				s.publish(item)
			}
		}
	}
}

// roll draws once for a shock. Exposed to tests through Generate.
func (s *Service) roll(now int64) (news.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() >= s.cfg.ShockProbability {
		return news.Item{}, false
	}
	return s.generateLocked(now), true
}

// Generate produces a shock unconditionally, bypassing the probability
// roll. Used by tests and by hosts that want a manual "breaking news" key.
func (s *Service) Generate(now int64) news.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.generateLocked(now)
	s.appendLocked(item)
	return item
}

func (s *Service) generateLocked(now int64) news.Item {
	h := headlines[int(s.rng.Float64()*float64(len(headlines)))%len(headlines)]
	decay := 5 + int(s.rng.Float64()*10)
	return news.Item{
		ID:         uuid.NewString(),
		Time:       now,
		Headline:   h.text,
		Bias:       h.bias,
		DecayTicks: decay,
		Severity:   h.severity,
	}
}

func (s *Service) publish(item news.Item) {
	s.mu.Lock()
	s.appendLocked(item)
	s.mu.Unlock()

	s.log.Debug("news shock published",
		zap.String("headline", item.Headline),
		zap.Float64("bias", item.Bias),
		zap.Int("decay_ticks", item.DecayTicks))

	if s.cfg.DropEvents {
		select {
		case s.events <- item:
		default:
			s.dropped.Add(1)
		}
	} else {
		select {
		case s.events <- item:
		case <-s.closed:
		}
	}
}

func (s *Service) appendLocked(item news.Item) {
	s.tape = append(s.tape, item)
	if len(s.tape) > s.cfg.TapeSize {
		s.tape = s.tape[len(s.tape)-s.cfg.TapeSize:]
	}
}

// Latest returns the last n items, newest last.
func (s *Service) Latest(n int) []news.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.tape) {
		n = len(s.tape)
	}
	out := make([]news.Item, n)
	copy(out, s.tape[len(s.tape)-n:])
	return out
}

// Events returns the shock channel for subscribers.
func (s *Service) Events() <-chan news.Item {
	return s.events
}

// DroppedEvents returns the count of dropped events.
func (s *Service) DroppedEvents() int64 {
	return s.dropped.Load()
}

// Close shuts down the generator.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
