package repository

import (
	"context"
	"sync"

	"github.com/tair/supply-dashboard/internal/auth/domain"
)

// MemoryPreferenceRepository keeps preferences in process memory. It is used
// when no database is configured.
type MemoryPreferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]domain.Preference
}

func NewMemoryPreferenceRepository() *MemoryPreferenceRepository {
	return &MemoryPreferenceRepository{prefs: make(map[string]domain.Preference)}
}

func (r *MemoryPreferenceRepository) Find(_ context.Context, clientID string) (*domain.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pref, ok := r.prefs[clientID]
	if !ok {
		return nil, domain.ErrPreferenceNotFound
	}
	return &pref, nil
}

func (r *MemoryPreferenceRepository) Save(_ context.Context, pref *domain.Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[pref.ClientID] = *pref
	return nil
}

func (r *MemoryPreferenceRepository) Delete(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.prefs, clientID)
	return nil
}
