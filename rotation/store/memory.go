// Package store provides an in-memory GroupStore for tests and dev.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/warp/rotation-engine/rotation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	groups map[string]*rotation.Group
}

func NewMemory() *Memory {
	return &Memory{groups: make(map[string]*rotation.Group)}
}

// Create inserts a new group document.
func (m *Memory) Create(_ context.Context, g *rotation.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = clone(g)
	return nil
}

// Get returns a deep copy so callers can transform freely before Save.
func (m *Memory) Get(_ context.Context, id string) (*rotation.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, rotation.ErrGroupNotFound
	}
	return clone(g), nil
}

// Save replaces the whole group. Last write wins, no conflict detection.
func (m *Memory) Save(_ context.Context, g *rotation.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = clone(g)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
	return nil
}

func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]*rotation.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*rotation.Group
	for _, g := range m.groups {
		if g.OwnerID == ownerID {
			result = append(result, clone(g))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *Memory) ListAll(_ context.Context) ([]*rotation.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*rotation.Group, 0, len(m.groups))
	for _, g := range m.groups {
		result = append(result, clone(g))
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(groups []*rotation.Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
}

// clone deep-copies through JSON. The maps inside payment histories make a
// field-by-field copy easy to get subtly wrong; groups are small, so the
// round-trip cost is irrelevant.
func clone(g *rotation.Group) *rotation.Group {
	raw, err := json.Marshal(g)
	if err != nil {
		return g
	}
	var out rotation.Group
	if err := json.Unmarshal(raw, &out); err != nil {
		return g
	}
	return &out
}
