package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrIntentNotFound   = errors.New("pending payment not found")
	ErrDuplicateReview  = errors.New("user already reviewed this product")
)

// InventoryChangedError is returned from the finalize transaction when a cart
// line no longer fits current stock. The whole transaction rolls back; no
// partial decrement survives.
type InventoryChangedError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InventoryChangedError) Error() string {
	return fmt.Sprintf("inventory changed for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

// Store is everything the checkout core needs from persistence. Consumers
// that need less declare their own narrower interfaces.
type Store interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	RestockProduct(ctx context.Context, id int64, quantity int) (*domain.Product, error)

	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetCartItem(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID int64) error
	DeleteCart(ctx context.Context, userID int64) error

	CreatePendingPayment(ctx context.Context, p *domain.PendingPayment) error
	GetPendingPayment(ctx context.Context, intentID string) (*domain.PendingPayment, error)
	UpdatePendingPaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus, declineReason string) error

	FinalizeOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByIntentID(ctx context.Context, intentID string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	MarkOrderProcessing(ctx context.Context, id uuid.UUID) error

	ToggleWishlistItem(ctx context.Context, userID, productID int64) (added bool, err error)
	ListWishlist(ctx context.Context, userID int64) ([]*domain.WishlistItem, error)

	CreateReview(ctx context.Context, review *domain.Review) error
	ListReviewsByProduct(ctx context.Context, productID int64) ([]*domain.Review, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	RunMigrations(cred *Credentials) error
	Close() error
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
