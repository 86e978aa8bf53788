package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedProduct(t *testing.T, repo *Repository, name, price string, inventory int) int64 {
	t.Helper()
	var id int64
	err := repo.db.QueryRow(
		`INSERT INTO products (name, price, inventory) VALUES ($1, $2, $3) RETURNING id`,
		name, price, inventory).Scan(&id)
	require.NoError(t, err)
	return id
}

func newTestOrder(userID int64, intentID string, items []domain.OrderItem, total string) *domain.Order {
	return &domain.Order{
		ID:         uuid.New(),
		IntentID:   intentID,
		UserID:     userID,
		Status:     domain.OrderStatusPending,
		TotalPrice: decimal.RequireFromString(total),
		Currency:   "USD",
		Items:      items,
	}
}

func TestGetProduct_Found(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Laptop", "999.99", 5)

	p, err := repo.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("999.99")))
	assert.Equal(t, 5, p.Inventory)
	assert.Nil(t, p.SalePrice)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetProduct(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRestockProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 2)

	p, err := repo.RestockProduct(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Inventory)
}

func TestAddCartItem_UpsertIncrements(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 50)

	require.NoError(t, repo.AddCartItem(ctx, 1, id, 2))
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 3))

	cart, err := repo.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestRemoveCartItem_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.RemoveCartItem(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestPendingPayment_TerminalStatusIsSticky(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pending := &domain.PendingPayment{
		IntentID: "pi_sticky",
		UserID:   1,
		Amount:   decimal.RequireFromString("20.00"),
		Currency: "USD",
		Status:   domain.PaymentStatusCreated,
	}
	require.NoError(t, repo.CreatePendingPayment(ctx, pending))

	require.NoError(t, repo.UpdatePendingPaymentStatus(ctx, "pi_sticky", domain.PaymentStatusSucceeded, ""))

	// A late failure report must not unwind the terminal state.
	require.NoError(t, repo.UpdatePendingPaymentStatus(ctx, "pi_sticky", domain.PaymentStatusFailed, "late decline"))

	got, err := repo.GetPendingPayment(ctx, "pi_sticky")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)
	assert.Empty(t, got.DeclineReason)
}

func TestUpdatePendingPaymentStatus_UnknownIntent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdatePendingPaymentStatus(context.Background(), "pi_missing", domain.PaymentStatusSucceeded, "")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestFinalizeOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 2))

	order := newTestOrder(1, "pi_1", []domain.OrderItem{
		{ProductID: id, ProductName: "Widget", Quantity: 2, Price: decimal.RequireFromString("10.00")},
	}, "20.00")

	finalized, err := repo.FinalizeOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, order.ID, finalized.ID)

	// Inventory decremented.
	p, err := repo.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Inventory)

	// Cart cleared.
	cart, err := repo.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Outbox event queued.
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, "order.finalized", events[0].EventType)

	// Snapshot survives round trip.
	fetched, err := repo.GetOrderByIntentID(ctx, "pi_1")
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Widget", fetched.Items[0].ProductName)
	assert.True(t, fetched.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

func TestFinalizeOrder_DuplicateIntentIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 2))

	items := []domain.OrderItem{
		{ProductID: id, ProductName: "Widget", Quantity: 2, Price: decimal.RequireFromString("10.00")},
	}

	first, err := repo.FinalizeOrder(ctx, newTestOrder(1, "pi_dup", items, "20.00"))
	require.NoError(t, err)

	second, err := repo.FinalizeOrder(ctx, newTestOrder(1, "pi_dup", items, "20.00"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	// Decremented exactly once.
	p, err := repo.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Inventory)
}

func TestFinalizeOrder_InventoryChangedRollsBack(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	widget := seedProduct(t, repo, "Widget", "10.00", 5)
	gadget := seedProduct(t, repo, "Gadget", "5.00", 1)
	require.NoError(t, repo.AddCartItem(ctx, 1, widget, 2))
	require.NoError(t, repo.AddCartItem(ctx, 1, gadget, 2))

	order := newTestOrder(1, "pi_short", []domain.OrderItem{
		{ProductID: widget, ProductName: "Widget", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{ProductID: gadget, ProductName: "Gadget", Quantity: 2, Price: decimal.RequireFromString("5.00")},
	}, "30.00")

	_, err := repo.FinalizeOrder(ctx, order)
	var changed *InventoryChangedError
	require.ErrorAs(t, err, &changed)
	assert.Equal(t, gadget, changed.ProductID)
	assert.Equal(t, 2, changed.Requested)
	assert.Equal(t, 1, changed.Available)

	// First line's decrement rolled back with the rest.
	p, err := repo.GetProduct(ctx, widget)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Inventory)

	// Cart intact.
	cart, err := repo.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	// No order, no event.
	_, err = repo.GetOrderByIntentID(ctx, "pi_short")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFinalizeOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 1)
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 1))
	require.NoError(t, repo.AddCartItem(ctx, 2, id, 1))

	items := func() []domain.OrderItem {
		return []domain.OrderItem{
			{ProductID: id, ProductName: "Widget", Quantity: 1, Price: decimal.RequireFromString("10.00")},
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int64{1, 2} {
		i, userID := i, userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := newTestOrder(userID, "pi_race_"+uuid.NewString(), items(), "10.00")
			_, errs[i] = repo.FinalizeOrder(ctx, order)
		}()
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var changed *InventoryChangedError
		require.ErrorAs(t, err, &changed)
		conflicted++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	p, err := repo.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Inventory)
}

func TestMarkOrderProcessing_OnlyFromPending(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 1))

	order := newTestOrder(1, "pi_fulfill", []domain.OrderItem{
		{ProductID: id, ProductName: "Widget", Quantity: 1, Price: decimal.RequireFromString("10.00")},
	}, "10.00")
	_, err := repo.FinalizeOrder(ctx, order)
	require.NoError(t, err)

	require.NoError(t, repo.MarkOrderProcessing(ctx, order.ID))
	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)

	// A redelivered event must not drag the order back once it advanced.
	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped))
	require.NoError(t, repo.MarkOrderProcessing(ctx, order.ID))
	got, err = repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)
}

func TestToggleWishlistItem(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)

	added, err := repo.ToggleWishlistItem(ctx, 1, id)
	require.NoError(t, err)
	assert.True(t, added)

	items, err := repo.ListWishlist(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	added, err = repo.ToggleWishlistItem(ctx, 1, id)
	require.NoError(t, err)
	assert.False(t, added)

	items, err = repo.ListWishlist(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateReview_DuplicatePerProduct(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)

	review := &domain.Review{UserID: 1, ProductID: id, Rating: 5, Comment: "great"}
	require.NoError(t, repo.CreateReview(ctx, review))
	assert.NotZero(t, review.ID)

	again := &domain.Review{UserID: 1, ProductID: id, Rating: 1, Comment: "changed my mind"}
	err := repo.CreateReview(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestOutbox_MarkEventAsProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, repo, "Widget", "10.00", 5)
	require.NoError(t, repo.AddCartItem(ctx, 1, id, 1))

	order := newTestOrder(1, "pi_outbox", []domain.OrderItem{
		{ProductID: id, ProductName: "Widget", Quantity: 1, Price: decimal.RequireFromString("10.00")},
	}, "10.00")
	_, err := repo.FinalizeOrder(ctx, order)
	require.NoError(t, err)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
