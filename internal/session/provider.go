package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-quote/internal/events"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/quote"
	"github.com/noah-isme/backend-quote/internal/snapshot"
)

// Provider owns the live quote of one session. Calls are serialized.
type Provider struct {
	id        string
	machine   *quote.Machine
	snapshots *snapshot.Adapter
	bus       *events.Bus
	logger    zerolog.Logger
	now       func() time.Time

	// pins counts in-flight requests holding the provider via Registry.Acquire.
	pins atomic.Int32

	mu         sync.Mutex
	state      quote.Quote
	hydrated   bool
	lastActive time.Time
}

// ProviderConfig configures a Provider. Snapshots and Bus are optional.
type ProviderConfig struct {
	ID        string
	Machine   *quote.Machine
	Snapshots *snapshot.Adapter
	Bus       *events.Bus
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewProvider constructs a Provider holding a default quote.
func NewProvider(cfg ProviderConfig) *Provider {
	machine := cfg.Machine
	if machine == nil {
		machine = quote.NewMachine(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		id:         cfg.ID,
		machine:    machine,
		snapshots:  cfg.Snapshots,
		bus:        cfg.Bus,
		logger:     cfg.Logger.With().Str("session_id", cfg.ID).Logger(),
		now:        now,
		state:      machine.Default(),
		lastActive: now(),
	}
}

// ID returns the session identifier.
func (p *Provider) ID() string { return p.id }

// Hydrate loads the persisted snapshot (or defaults), overlays productID onto
// the first item when it names a catalog product, and installs the result.
// It runs once per provider; later calls return the current state and false.
func (p *Provider) Hydrate(ctx context.Context, productID string) (quote.Quote, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActive = p.now()
	if p.hydrated {
		return p.state, false
	}

	q, ok := quote.Quote{}, false
	if p.snapshots != nil {
		q, ok = p.snapshots.Load(ctx)
	}
	if !ok {
		q = p.machine.Default()
	}

	preselected := false
	if id := strings.TrimSpace(productID); id != "" && p.machine.Catalog().HasProduct(id) && len(q.Items) > 0 {
		items := append([]quote.Item(nil), q.Items...)
		items[0].Product.Type = id
		q.Items = items
		preselected = true
	}

	// Snapshots are repriced against the current tables before install.
	p.state = p.machine.Apply(p.state, quote.HydrateState{Quote: p.machine.Reprice(q)})
	p.hydrated = true
	obs.RecordHydration(preselected)
	p.logger.Debug().Bool("restored", ok).Bool("preselected", preselected).Msg("quote hydrated")

	p.persist(ctx)
	p.emit(ctx, events.TopicQuoteHydrated, map[string]any{
		"restored":    ok,
		"preselected": preselected,
	})
	return p.state, true
}

// Dispatch applies a to the live quote and returns the new state. Once the
// provider is hydrated every recognized action is followed by a snapshot
// write; a reset clears the snapshot first. Persistence failures are logged.
func (p *Provider) Dispatch(ctx context.Context, a quote.Action) quote.Quote {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActive = p.now()

	p.state = p.machine.Apply(p.state, a)
	if a == nil {
		return p.state
	}
	if _, unknown := a.(quote.Unknown); unknown {
		p.logger.Debug().Str("action", string(a.Kind())).Msg("ignored unknown action")
		return p.state
	}
	obs.RecordQuoteAction(string(a.Kind()))

	if _, reset := a.(quote.ResetQuote); reset {
		if p.snapshots != nil {
			if err := p.snapshots.Clear(ctx); err != nil {
				p.logger.Warn().Err(err).Msg("snapshot clear failed")
			}
		}
		p.emit(ctx, events.TopicQuoteReset, nil)
	}
	if p.hydrated {
		p.persist(ctx)
	}
	p.emit(ctx, events.TopicQuoteChanged, map[string]any{
		"action":     a.Kind(),
		"items":      len(p.state.Items),
		"grandTotal": p.state.Totals.GrandTotal,
	})
	return p.state
}

func (p *Provider) unpin() {
	p.mu.Lock()
	p.lastActive = p.now()
	p.mu.Unlock()
	p.pins.Add(-1)
}

// State returns the current quote.
func (p *Provider) State() quote.Quote {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Hydrated reports whether Hydrate has run.
func (p *Provider) Hydrated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hydrated
}

// LastActive returns the time of the last hydrate or dispatch.
func (p *Provider) LastActive() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive
}

func (p *Provider) persist(ctx context.Context) {
	if p.snapshots == nil {
		return
	}
	if _, err := p.snapshots.Save(ctx, p.state); err != nil {
		p.logger.Warn().Err(err).Msg("snapshot save failed")
	}
}

func (p *Provider) emit(ctx context.Context, topic string, payload any) {
	if p.bus == nil {
		return
	}
	if _, err := p.bus.Emit(ctx, topic, p.id, payload); err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("event dispatch failed")
	}
}
