package exam

import (
	"context"
	"sync"
)

// memoryStore backs tests without a database (dev mode and unit tests).
type memoryStore struct {
	mu       sync.RWMutex
	tests    map[string]Test
	variants map[string]Variant // keyed by variant ID
}

func NewInMemoryStore() Store {
	return &memoryStore{
		tests:    map[string]Test{},
		variants: map[string]Variant{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrTestNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TestSummary, 0, len(m.tests))
	for _, t := range m.tests {
		out = append(out, TestSummary{ID: t.ID, Title: t.Title, Questions: len(t.Questions), CreatedAt: t.CreatedAt})
	}
	return out, nil
}

func (m *memoryStore) PutVariant(_ context.Context, v Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.variants {
		if e.TestID == v.TestID && e.Code == v.Code && e.ID != v.ID {
			return ErrDuplicateCode
		}
	}
	m.variants[v.ID] = v
	return nil
}

func (m *memoryStore) GetVariantByCode(_ context.Context, code string) (Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.variants {
		if v.Code == code {
			return v, nil
		}
	}
	return Variant{}, ErrVariantNotFound
}

func (m *memoryStore) ListVariants(_ context.Context, testID string) ([]Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Variant
	for _, v := range m.variants {
		if v.TestID == testID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteVariantsByTest(_ context.Context, testID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, v := range m.variants {
		if v.TestID == testID {
			delete(m.variants, id)
			n++
		}
	}
	return n, nil
}
