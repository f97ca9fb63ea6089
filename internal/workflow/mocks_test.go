package workflow

import (
	"context"
	"sync"

	"github.com/sellista/orderflow/internal/cache"
	"github.com/sellista/orderflow/internal/domain"
	"github.com/sellista/orderflow/internal/repository"
)

type mockCatalog struct {
	m        sync.RWMutex
	products map[int64]*domain.Product
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	product, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

type mockProfiles struct {
	profile *domain.CustomerProfile
	err     error
}

func (m *mockProfiles) GetProfile(context.Context, int64) (*domain.CustomerProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.profile == nil {
		return nil, repository.ErrProfileNotFound
	}
	return m.profile, nil
}

type mockOrders struct {
	m         sync.Mutex
	created   []*domain.Order
	createErr error
}

func (m *mockOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrders) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, order := range m.created {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrders) lastOrder() *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	if len(m.created) == 0 {
		return nil
	}
	return m.created[len(m.created)-1]
}

type mockDraftCache struct {
	m      sync.Mutex
	drafts map[int64]*domain.OrderDraft
	err    error
}

func newMockDraftCache() *mockDraftCache {
	return &mockDraftCache{drafts: make(map[int64]*domain.OrderDraft)}
}

func (m *mockDraftCache) Get(_ context.Context, conversationID int64) (*domain.OrderDraft, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	draft, ok := m.drafts[conversationID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return draft, nil
}

func (m *mockDraftCache) Set(_ context.Context, draft *domain.OrderDraft) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.drafts[draft.ConversationID] = draft
	return nil
}

func (m *mockDraftCache) Delete(_ context.Context, conversationID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.drafts, conversationID)
	return m.err
}
