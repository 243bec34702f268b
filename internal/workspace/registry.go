package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/tair/supply-dashboard/pkg/logger"
)

// DefaultIdleTTL is how long an unused workspace is kept.
const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry holds one workspace per browser session and drops idle ones.
type Registry struct {
	deps  *Dependencies
	ttl   time.Duration
	build func(ClientID, *Dependencies) *Workspace
	now   func() time.Time

	mu    sync.Mutex
	items map[ClientID]*entry
}

// NewRegistry creates a registry building workspaces from deps.
func NewRegistry(deps *Dependencies, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		deps:  deps,
		ttl:   ttl,
		build: InitializeWorkspace,
		now:   time.Now,
		items: make(map[ClientID]*entry),
	}
}

// Get returns the workspace for id, creating it on first use. A new
// workspace starts with the browser's saved login preferences.
func (r *Registry) Get(ctx context.Context, id ClientID) *Workspace {
	r.mu.Lock()
	if e, ok := r.items[id]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ws
	}

	ws := r.build(id, r.deps)
	r.items[id] = &entry{ws: ws, lastSeen: r.now()}
	count := len(r.items)
	r.mu.Unlock()

	r.deps.Metrics.SetActiveWorkspaces(count)
	ctx = logger.WithClientID(ctx, string(id))
	if err := ws.Auth.LoadPreferences(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to load login preferences")
	}
	logger.Debug(ctx).Msg("Workspace created")
	return ws
}

// Lookup returns the workspace for id without creating one.
func (r *Registry) Lookup(id ClientID) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.ws, true
}

// Remove tears down the workspace for id. Its cached state is discarded.
func (r *Registry) Remove(id ClientID) {
	r.mu.Lock()
	delete(r.items, id)
	count := len(r.items)
	r.mu.Unlock()
	r.deps.Metrics.SetActiveWorkspaces(count)
}

// Sweep removes workspaces idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			delete(r.items, id)
			removed++
		}
	}
	count := len(r.items)
	r.mu.Unlock()

	r.deps.Metrics.SetActiveWorkspaces(count)
	return removed
}

// Run sweeps idle workspaces every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Info(ctx).Int("removed", n).Int("active", r.Len()).Msg("Swept idle workspaces")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
