package dao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"negotiation-backend/model"
)

// MemoryStore keeps products and negotiations in process memory. It satisfies the same
// contracts as the MySQL repositories and is used for local runs and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	products     map[string]model.Product
	negotiations map[string]model.Negotiation
	turns        map[string][]model.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:     make(map[string]model.Product),
		negotiations: make(map[string]model.Negotiation),
		turns:        make(map[string][]model.Turn),
	}
}

// PutProduct seeds or replaces a product.
func (s *MemoryStore) PutProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Products returns a view of the store scoped to product lookups.
func (s *MemoryStore) Products() *MemoryProducts {
	return &MemoryProducts{s: s}
}

type MemoryProducts struct {
	s *MemoryStore
}

func (m *MemoryProducts) GetByID(ctx context.Context, id string) (*model.Product, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.products[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "product %s", id)
	}
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, n *model.Negotiation, opening *model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.negotiations[n.ID]; exists {
		return errors.Wrapf(model.ErrConflict, "negotiation %s already exists", n.ID)
	}
	s.negotiations[n.ID] = *n
	if opening != nil {
		s.turns[n.ID] = append(s.turns[n.ID], *opening)
	}
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.Negotiation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.negotiations[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "negotiation %s", id)
	}
	return &n, nil
}

func (s *MemoryStore) ListTurns(ctx context.Context, negotiationID string) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Turn, len(s.turns[negotiationID]))
	copy(out, s.turns[negotiationID])
	return out, nil
}

func (s *MemoryStore) CountShopperTurns(ctx context.Context, negotiationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, t := range s.turns[negotiationID] {
		if t.Sender == model.SenderShopper {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Commit(ctx context.Context, n *model.Negotiation, expectedVersion int, turns ...model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.negotiations[n.ID]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "negotiation %s", n.ID)
	}
	if stored.Version != expectedVersion {
		return errors.Wrapf(model.ErrConflict, "negotiation %s changed since version %d", n.ID, expectedVersion)
	}
	n.Version = expectedVersion + 1
	s.negotiations[n.ID] = *n
	s.turns[n.ID] = append(s.turns[n.ID], turns...)
	return nil
}

func (s *MemoryStore) ExpireIdle(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	ids := make([]string, 0)
	for id, n := range s.negotiations {
		if n.Status == model.StatusActive && n.UpdatedAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := s.negotiations[id]
		n.Status = model.StatusExpired
		n.Version++
		n.UpdatedAt = now
		s.negotiations[id] = n
	}
	return int64(len(ids)), nil
}
