// Package publish fans pipeline events out to interested consumers. The
// publisher never blocks: each subscriber owns a bounded buffer and a slow
// consumer loses its oldest events rather than stalling scrape cycles.
package publish

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nstojkov/betsnipe/internal/pkg/metrics"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

// Kind labels one event on the bus.
type Kind string

const (
	KindArbitrageNew     Kind = "arbitrage.new"
	KindArbitrageExpired Kind = "arbitrage.expired"
	KindOddsUpdate       Kind = "odds.update"
)

// Leg is one side of an opportunity as consumers see it. The wire names
// differ from the stored model on purpose: payloads are a public contract.
type Leg struct {
	Provider  int     `json:"provider"`
	Outcome   int     `json:"outcome"`
	Price     float64 `json:"price"`
	Selection string  `json:"selection,omitempty"`
}

// NewLegs converts stored legs to their wire form.
func NewLegs(legs []models.Leg) []Leg {
	out := make([]Leg, len(legs))
	for i, l := range legs {
		out[i] = Leg{Provider: l.ProviderID, Outcome: l.OutcomeIndex, Price: l.Price, Selection: l.Selection}
	}
	return out
}

// Event is one pipeline notification, marshaled as-is by the sinks.
type Event struct {
	Kind        Kind      `json:"kind"`
	MatchID     int64     `json:"match_id"`
	Match       string    `json:"match"`
	Sport       string    `json:"sport"`
	BetType     string    `json:"bet_type"`
	Margin      float64   `json:"margin,omitempty"`
	Selection   string    `json:"selection,omitempty"`
	Legs        []Leg     `json:"legs,omitempty"`
	Stakes      []float64 `json:"stakes,omitempty"`
	ProfitPct   float64   `json:"profit_pct,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	StartTime   time.Time `json:"start_time"`
	DetectedAt  time.Time `json:"detected_at"`
}

// DefaultBufferSize is each subscriber's buffered event capacity.
const DefaultBufferSize = 256

type subscriber struct {
	id    uuid.UUID
	name  string
	ch    chan Event
	drops atomic.Int64
}

// Publisher is the fan-out hub. One goroutine publishes; any number of
// subscribers consume their own channels.
type Publisher struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*subscriber
	bufSize int
	pm      *metrics.PipelineMetrics
	closed  bool
}

// NewPublisher builds a hub. pm may be nil.
func NewPublisher(bufSize int, pm *metrics.PipelineMetrics) *Publisher {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Publisher{
		subs:    make(map[uuid.UUID]*subscriber),
		bufSize: bufSize,
		pm:      pm,
	}
}

// Subscribe registers a consumer under a diagnostic name and returns its
// handle and receive channel. The channel closes on Unsubscribe or Close.
func (p *Publisher) Subscribe(name string) (uuid.UUID, <-chan Event) {
	sub := &subscriber{
		id:   uuid.New(),
		name: name,
		ch:   make(chan Event, p.bufSize),
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(sub.ch)
		return sub.id, sub.ch
	}
	p.subs[sub.id] = sub
	return sub.id, sub.ch
}

// Unsubscribe removes a consumer and closes its channel.
func (p *Publisher) Unsubscribe(id uuid.UUID) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	if ok {
		delete(p.subs, id)
	}
	p.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish enqueues the event for every subscriber without blocking. A full
// buffer sheds its oldest event first, so consumers always hold the
// freshest window and per-subscriber order is preserved.
func (p *Publisher) Publish(ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	for _, sub := range p.subs {
		select {
		case sub.ch <- ev:
			p.recordPublish(sub.name)
			continue
		default:
		}
		select {
		case <-sub.ch:
			sub.drops.Add(1)
			p.recordDrop(sub.name)
		default:
		}
		select {
		case sub.ch <- ev:
			p.recordPublish(sub.name)
		default:
			sub.drops.Add(1)
			p.recordDrop(sub.name)
		}
	}
}

// Drops reports per-subscriber dropped-event counts for /stats.
func (p *Publisher) Drops() map[string]int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]int64, len(p.subs))
	for _, sub := range p.subs {
		out[sub.name] += sub.drops.Load()
	}
	return out
}

// Close closes every subscriber channel; further publishes are dropped.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, sub := range p.subs {
		delete(p.subs, id)
		close(sub.ch)
	}
}

func (p *Publisher) recordPublish(name string) {
	if p.pm != nil {
		p.pm.RecordPublish(name)
	}
}

func (p *Publisher) recordDrop(name string) {
	if p.pm != nil {
		p.pm.RecordDrop(name)
	}
}
