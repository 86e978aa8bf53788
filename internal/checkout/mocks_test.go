package checkout

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
)

// MockStore implements Store with the same all-or-nothing finalize semantics
// as the postgres repository: inventory is checked before anything is
// decremented, and a duplicate intent returns the existing order untouched.
type MockStore struct {
	mu       sync.Mutex
	Products map[int64]domain.Product
	Carts    map[int64][]domain.CartItem // userID -> items
	Orders   map[string]*domain.Order    // intentID -> order

	GetCartErr  error
	FinalizeErr error

	FinalizeCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Products: make(map[int64]domain.Product),
		Carts:    make(map[int64][]domain.CartItem),
		Orders:   make(map[string]*domain.Order),
	}
}

func (m *MockStore) GetCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCartErr != nil {
		return nil, m.GetCartErr
	}
	items := make([]domain.CartItem, len(m.Carts[userID]))
	copy(items, m.Carts[userID])
	return &domain.Cart{UserID: userID, Items: items}, nil
}

func (m *MockStore) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MockStore) GetOrderByIntentID(_ context.Context, intentID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[intentID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockStore) FinalizeOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinalizeCalls++

	if m.FinalizeErr != nil {
		return nil, m.FinalizeErr
	}

	if existing, ok := m.Orders[order.IntentID]; ok {
		return existing, nil
	}

	// First pass: every line must still fit current stock.
	for _, item := range order.Items {
		p, ok := m.Products[item.ProductID]
		if !ok || p.Inventory < item.Quantity {
			available := 0
			if ok {
				available = p.Inventory
			}
			return nil, &repository.InventoryChangedError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			}
		}
	}

	for _, item := range order.Items {
		p := m.Products[item.ProductID]
		p.Inventory -= item.Quantity
		m.Products[item.ProductID] = p
	}

	m.Orders[order.IntentID] = order
	delete(m.Carts, order.UserID)
	return order, nil
}

func (m *MockStore) cartLen(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Carts[userID])
}

func (m *MockStore) inventory(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Products[productID].Inventory
}

// MockCoordinator implements IntentCoordinator for testing
type MockCoordinator struct {
	mu       sync.Mutex
	Payments map[string]*domain.PendingPayment
	NextID   string
	Secret   string
	Err      error
}

func NewMockCoordinator() *MockCoordinator {
	return &MockCoordinator{
		Payments: make(map[string]*domain.PendingPayment),
		NextID:   "pi_1",
		Secret:   "secret_1",
	}
}

func (m *MockCoordinator) CreateIntent(_ context.Context, userID int64, amount decimal.Decimal, currencyCode string) (*domain.PendingPayment, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, "", m.Err
	}
	pending := &domain.PendingPayment{
		IntentID: m.NextID,
		UserID:   userID,
		Amount:   amount,
		Currency: currencyCode,
		Status:   domain.PaymentStatusCreated,
	}
	m.Payments[m.NextID] = pending
	return pending, m.Secret, nil
}

func (m *MockCoordinator) Confirm(_ context.Context, intentID string) (*domain.PendingPayment, error) {
	return m.lookup(intentID)
}

func (m *MockCoordinator) Status(_ context.Context, intentID string) (*domain.PendingPayment, error) {
	return m.lookup(intentID)
}

func (m *MockCoordinator) lookup(intentID string) (*domain.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	pending, ok := m.Payments[intentID]
	if !ok {
		return nil, repository.ErrIntentNotFound
	}
	return pending, nil
}

// MockInvalidator implements CacheInvalidator for testing
type MockInvalidator struct {
	mu          sync.Mutex
	Invalidated []int64
}

func (m *MockInvalidator) InvalidateCache(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, userID)
}
