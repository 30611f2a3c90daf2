package stream

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"yard-service/internal/clock"
	"yard-service/internal/report"
)

// Kind identifies a report stream.
type Kind string

const (
	KindOccupancy Kind = "ocupacao"
	KindPositions Kind = "posicoes"
	KindMovement  Kind = "movimentacao"
)

// Snapshot is one computed aggregate frame pushed to a subscriber.
type Snapshot struct {
	Kind Kind      `json:"tipo"`
	At   time.Time `json:"geradoEm"`
	Data any       `json:"dados"`
}

// Subscriber receives snapshot frames. Send returning an error is treated as
// an unrecoverable transport failure for that subscription.
type Subscriber interface {
	Send(Snapshot) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Snapshot) error

func (f SubscriberFunc) Send(s Snapshot) error { return f(s) }

type State int32

const (
	StateConnected State = iota
	StateStreaming
	StateDisconnected
	StateErrored
)

var ErrUnknownKind = errors.New("unknown stream kind")

// Config holds the tick period per report kind. Occupancy and positions
// streams push one frame immediately on subscribe and then tick at their
// period; the movement stream waits one full period before the first frame.
type Config struct {
	OccupancyPeriod time.Duration
	PositionsPeriod time.Duration
	MovementPeriod  time.Duration
}

func DefaultConfig() Config {
	return Config{
		OccupancyPeriod: 5 * time.Second,
		PositionsPeriod: 2 * time.Second,
		MovementPeriod:  5 * time.Second,
	}
}

// Publisher recomputes aggregate snapshots on a fixed cadence and fans them
// out to subscribers. Each subscription runs its own ticker goroutine, so a
// slow or failing subscriber never affects the others.
type Publisher struct {
	clk     clock.Clock
	cfg     Config
	sources map[Kind]func() (any, error)

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

type Option func(*Publisher)

// WithSource overrides the snapshot computation for a kind (used in tests to
// inject failures).
func WithSource(kind Kind, fn func() (any, error)) Option {
	return func(p *Publisher) {
		p.sources[kind] = fn
	}
}

func NewPublisher(agg *report.Aggregator, clk clock.Clock, cfg Config, opts ...Option) *Publisher {
	p := &Publisher{
		clk:  clk,
		cfg:  cfg,
		subs: make(map[*Subscription]struct{}),
	}
	p.sources = map[Kind]func() (any, error){
		KindOccupancy: func() (any, error) { return agg.Occupancy(), nil },
		KindPositions: func() (any, error) { return agg.Positions(), nil },
		KindMovement: func() (any, error) {
			today := clk.Now()
			return agg.DailyMovement(today, today)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscription tracks one subscriber's ticking schedule and lifecycle.
type Subscription struct {
	kind  Kind
	sub   Subscriber
	stop  chan struct{}
	once  sync.Once
	ticks atomic.Int64
	state atomic.Int32
}

func (s *Subscription) Kind() Kind { return s.kind }

// Ticks reports how many frames were delivered so far.
func (s *Subscription) Ticks() int64 { return s.ticks.Load() }

func (s *Subscription) State() State { return State(s.state.Load()) }

// Subscribe starts a ticking schedule for the given kind and pushes frames to
// sub until Unsubscribe is called or sub's transport fails.
func (p *Publisher) Subscribe(kind Kind, sub Subscriber) (*Subscription, error) {
	var period time.Duration
	immediate := false
	switch kind {
	case KindOccupancy:
		period = p.cfg.OccupancyPeriod
		immediate = true
	case KindPositions:
		period = p.cfg.PositionsPeriod
		immediate = true
	case KindMovement:
		period = p.cfg.MovementPeriod
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	s := &Subscription{
		kind: kind,
		sub:  sub,
		stop: make(chan struct{}),
	}
	s.state.Store(int32(StateConnected))

	p.mu.Lock()
	p.subs[s] = struct{}{}
	p.mu.Unlock()

	go p.run(s, period, immediate)
	return s, nil
}

// Unsubscribe deterministically stops future ticks for the subscription.
func (p *Publisher) Unsubscribe(s *Subscription) {
	s.once.Do(func() {
		close(s.stop)
		if s.State() != StateErrored {
			s.state.Store(int32(StateDisconnected))
		}
	})
	p.mu.Lock()
	delete(p.subs, s)
	p.mu.Unlock()
}

// SubscriberCount reports the number of live subscriptions.
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close stops every subscription.
func (p *Publisher) Close() {
	p.mu.Lock()
	subs := make([]*Subscription, 0, len(p.subs))
	for s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()
	for _, s := range subs {
		p.Unsubscribe(s)
	}
}

func (p *Publisher) run(s *Subscription, period time.Duration, immediate bool) {
	s.state.CompareAndSwap(int32(StateConnected), int32(StateStreaming))

	if immediate {
		if !p.push(s) {
			return
		}
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if !p.push(s) {
				return
			}
		}
	}
}

// push computes and delivers one frame. A snapshot computation failure is
// transient: it is logged and the tick skipped. A Send failure is a transport
// loss: the subscription moves to Errored and stops.
func (p *Publisher) push(s *Subscription) bool {
	select {
	case <-s.stop:
		return false
	default:
	}

	data, err := p.sources[s.kind]()
	if err != nil {
		log.Printf("stream: %s snapshot failed, skipping tick: %v", s.kind, err)
		return true
	}

	if err := s.sub.Send(Snapshot{Kind: s.kind, At: p.clk.Now(), Data: data}); err != nil {
		log.Printf("stream: %s subscriber send failed, closing: %v", s.kind, err)
		s.state.Store(int32(StateErrored))
		p.Unsubscribe(s)
		return false
	}

	s.ticks.Add(1)
	return true
}
