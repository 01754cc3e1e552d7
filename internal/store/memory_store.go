package store

import (
	"context"
	"slices"
	"sync"

	perrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements ProductStore in process memory. Records keep insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	products []Product
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

func (s *MemoryStore) Create(_ context.Context, name string, price float64, image string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:    uuid.NewString(),
		Name:  name,
		Price: price,
		Image: image,
	}
	s.products = append(s.products, product)
	return &product, nil
}

func (s *MemoryStore) Replace(_ context.Context, id string, name string, price float64, image string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, perrors.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(uid.String())
	if i < 0 {
		return nil, perrors.ErrProductNotFound
	}
	s.products[i] = Product{ID: s.products[i].ID, Name: name, Price: price, Image: image}
	updated := s.products[i]
	return &updated, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, perrors.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(uid.String())
	if i < 0 {
		return nil, perrors.ErrProductNotFound
	}
	deleted := s.products[i]
	s.products = slices.Delete(s.products, i, i+1)
	return &deleted, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// indexOf must be called with the lock held. ids are stored in canonical lowercase form.
func (s *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}
