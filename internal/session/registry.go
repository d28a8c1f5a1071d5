package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-quote/internal/events"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/quote"
	"github.com/noah-isme/backend-quote/internal/snapshot"
)

// DefaultKeyPrefix prefixes snapshot keys when none is configured.
const DefaultKeyPrefix = "quote:snapshot:"

// Registry maps session ids to providers, creating them on first use.
type Registry struct {
	machine   *quote.Machine
	store     snapshot.Store
	keyPrefix string
	bus       *events.Bus
	logger    zerolog.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Provider
}

// RegistryConfig configures a Registry. A nil Store disables persistence; a
// zero IdleTTL disables eviction.
type RegistryConfig struct {
	Machine   *quote.Machine
	Store     snapshot.Store
	KeyPrefix string
	Bus       *events.Bus
	Logger    zerolog.Logger
	IdleTTL   time.Duration
	Now       func() time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Machine == nil {
		cfg.Machine = quote.NewMachine(nil)
	}
	return &Registry{
		machine:   cfg.Machine,
		store:     cfg.Store,
		keyPrefix: cfg.KeyPrefix,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		idleTTL:   cfg.IdleTTL,
		now:       cfg.Now,
		sessions:  make(map[string]*Provider),
	}
}

// Key returns the snapshot key used for id.
func (r *Registry) Key(id string) string {
	return r.keyPrefix + id
}

// Get returns the provider for id, creating it if needed. The provider is not
// pinned; callers racing Sweep should use Acquire.
func (r *Registry) Get(id string) *Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

// Acquire returns the provider for id pinned against eviction. The returned
// release func unpins it and may be called more than once.
func (r *Registry) Acquire(id string) (*Provider, func()) {
	r.mu.Lock()
	p := r.getLocked(id)
	p.pins.Add(1)
	r.mu.Unlock()
	var once sync.Once
	return p, func() { once.Do(p.unpin) }
}

func (r *Registry) getLocked(id string) *Provider {
	if p, ok := r.sessions[id]; ok {
		return p
	}
	var adapter *snapshot.Adapter
	if r.store != nil {
		adapter = snapshot.NewAdapter(r.store, r.Key(id), r.machine, r.logger)
		adapter.Now = r.now
	}
	p := NewProvider(ProviderConfig{
		ID:        id,
		Machine:   r.machine,
		Snapshots: adapter,
		Bus:       r.bus,
		Logger:    r.logger,
		Now:       r.now,
	})
	r.sessions[id] = p
	obs.SetActiveSessions(len(r.sessions))
	return p
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops unpinned sessions idle for longer than the idle TTL and returns
// how many were removed. Snapshots stay in the store; an evicted session
// rehydrates on its next request.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, p := range r.sessions {
		if p.pins.Load() == 0 && p.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	obs.SetActiveSessions(len(r.sessions))
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("evicted", n).Msg("idle quote sessions evicted")
			}
		}
	}
}
