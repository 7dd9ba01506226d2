package registry

import (
	"sync"

	"github.com/tombrisland/r4/pkg/types"
)

// MemoryStore implements Store by holding a *types.Registry directly
// in memory. No CGO dependency required; used for wasm builds and for
// tests that want Save/Load semantics without touching disk.
type MemoryStore struct {
	mu  sync.RWMutex
	reg *types.Registry
}

// NewMemory creates a new in-memory Store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Save deep-copies reg so later mutation by the caller can't leak into
// the stored copy.
func (m *MemoryStore) Save(reg *types.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg = cloneRegistry(reg)
	return nil
}

// Load returns a fresh copy of whatever was last Saved.
func (m *MemoryStore) Load() (*types.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return types.NewRegistry(), nil
	}
	return cloneRegistry(m.reg), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneRegistry(reg *types.Registry) *types.Registry {
	out := types.NewRegistry()
	for mt, rules := range reg.RulesByType {
		cloned := make([]types.Rule, len(rules))
		copy(cloned, rules)
		out.RulesByType[mt] = cloned
	}
	out.MagicRules = append([]types.MagicEntry(nil), reg.MagicRules...)
	out.GlobRules = append([]types.GlobEntry(nil), reg.GlobRules...)
	for parent, children := range reg.SubTypes {
		out.SubTypes[parent] = append([]types.MediaType(nil), children...)
	}
	out.RootTypes = append([]types.MediaType(nil), reg.RootTypes...)
	return out
}
