package feature

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It's useful for testing and single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	features map[string]*Feature
	events   []*UsageEvent
}

// NewMemoryStore creates an in-memory feature store, optionally
// pre-populated with the given features.
func NewMemoryStore(initial ...*Feature) (*MemoryStore, error) {
	m := &MemoryStore{
		features: make(map[string]*Feature),
	}

	for _, f := range initial {
		if f == nil {
			continue
		}
		if f.ID == "" {
			return nil, ErrInvalidFeature
		}
		cp := cloneFeature(f)
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now()
		}
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = cp.CreatedAt
		}
		m.features[f.ID] = cp
	}

	return m, nil
}

func (m *MemoryStore) InsertFeature(ctx context.Context, f *Feature) error {
	if f == nil || f.ID == "" {
		return ErrInvalidFeature
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.features[f.ID]; exists {
		return ErrFeatureExists
	}
	m.features[f.ID] = cloneFeature(f)
	return nil
}

func (m *MemoryStore) UpdateFeature(ctx context.Context, id string, p Patch, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Patches reach soft-deleted rows too, so a feature can be restored.
	f, exists := m.features[id]
	if !exists {
		return false, nil
	}
	p.Apply(f, updatedAt)
	return true, nil
}

func (m *MemoryStore) GetFeature(ctx context.Context, id string) (*Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, exists := m.features[id]
	if !exists || !f.IsActive {
		return nil, ErrFeatureNotFound
	}
	return cloneFeature(f), nil
}

func (m *MemoryStore) ListFeatures(ctx context.Context) ([]*Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Feature, 0, len(m.features))
	for _, f := range m.features {
		if f.IsActive {
			result = append(result, cloneFeature(f))
		}
	}
	return result, nil
}

func (m *MemoryStore) InsertUsageEvent(ctx context.Context, e *UsageEvent) error {
	if e == nil || e.FeatureID == "" {
		return ErrInvalidFeature
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *MemoryStore) RecordAccess(ctx context.Context, featureID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, exists := m.features[featureID]
	if !exists {
		return ErrFeatureNotFound
	}
	f.UsageCount++
	f.LastUsed = &at
	return nil
}

func (m *MemoryStore) ListUsageEvents(ctx context.Context, featureID string, since time.Time) ([]*UsageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*UsageEvent
	for _, e := range m.events {
		if e.FeatureID == featureID && !e.CreatedAt.Before(since) {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}

// cloneFeature deep-copies a feature so callers can't mutate stored
// state through returned pointers.
func cloneFeature(f *Feature) *Feature {
	cp := *f
	if f.Config != nil {
		cp.Config = make(map[string]any, len(f.Config))
		for k, v := range f.Config {
			cp.Config[k] = v
		}
	}
	cp.ABTestGroups = slices.Clone(f.ABTestGroups)
	cp.TargetRoles = slices.Clone(f.TargetRoles)
	cp.TargetUserIDs = slices.Clone(f.TargetUserIDs)
	cp.ExcludedUserIDs = slices.Clone(f.ExcludedUserIDs)
	if f.RolloutTargetDate != nil {
		d := *f.RolloutTargetDate
		cp.RolloutTargetDate = &d
	}
	if f.LastUsed != nil {
		d := *f.LastUsed
		cp.LastUsed = &d
	}
	return &cp
}
