package repositories

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

// MemoryCartRepository keeps carts in process memory with the same
// version semantics as CartRepository.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*models.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*models.Cart)}
}

func (m *MemoryCartRepository) FindByOwner(_ context.Context, owner string) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[owner]
	if !ok {
		return nil, ErrNotFound
	}
	return cart.Clone(), nil
}

func (m *MemoryCartRepository) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.carts[cart.Owner]
	switch {
	case cart.IsNew() && exists:
		return ErrStaleCart
	case !cart.IsNew() && (!exists || stored.ID != cart.ID || stored.Version != cart.Version):
		return ErrStaleCart
	}

	next := cart.Clone()
	next.UpdatedAt = time.Now().UTC()
	next.Version = cart.Version + 1
	if cart.IsNew() {
		next.ID = primitive.NewObjectID()
		next.CreatedAt = next.UpdatedAt
	}

	m.carts[cart.Owner] = next
	*cart = *next.Clone()
	return nil
}

func (m *MemoryCartRepository) DeleteByOwner(_ context.Context, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.carts[owner]
	delete(m.carts, owner)
	return ok, nil
}

// MemoryProductRepository is an in-memory catalogue.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewMemoryProductRepository(products ...models.Product) *MemoryProductRepository {
	m := &MemoryProductRepository{products: make(map[primitive.ObjectID]models.Product)}
	m.Put(products...)
	return m
}

// Put inserts or replaces products, assigning IDs where unset.
func (m *MemoryProductRepository) Put(products ...models.Product) []primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]primitive.ObjectID, len(products))
	for i, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.products[p.ID] = p
		ids[i] = p.ID
	}
	return ids
}

// Delete removes a product from the catalogue.
func (m *MemoryProductRepository) Delete(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *MemoryProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryProductRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
