package catalog

import (
	"context"
	"fmt"
	"sync"

	"pedidos/internal/model"
)

// MemoryRepository is an in-process catalog for tests and dry runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]model.Product
}

func NewMemoryRepository(ps ...model.Product) *MemoryRepository {
	m := &MemoryRepository{byID: make(map[string]model.Product, len(ps))}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *MemoryRepository) List(_ context.Context) ([]model.Product, error) {
	m.mu.RLock()
	out := make([]model.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	m.mu.RUnlock()
	Sort(out)
	return out, nil
}

func (m *MemoryRepository) Create(_ context.Context, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	p := v.Product(NewID())
	m.mu.Lock()
	m.byID[p.ID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p := v.Product(id)
	m.byID[id] = p
	return p, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.byID, id)
	return nil
}
