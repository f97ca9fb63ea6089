package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sellista/orderflow/internal/domain"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProfileNotFound      = errors.New("customer profile not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductReader looks up catalog products by id.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// ProfileReader returns prior shipping defaults for a customer.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID int64) (*domain.CustomerProfile, error)
}

// OrderWriter commits drafts. CreateOrder re-validates stock, writes the
// order header plus its lines, decrements stock per line, and records an
// outbox event, all in one transaction.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
}

// OutboxEvent is one unpublished order event row.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// OutboxReader feeds the event publisher.
type OutboxReader interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
