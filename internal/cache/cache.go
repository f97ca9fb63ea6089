package cache

import (
	"context"
	"errors"

	"github.com/sellista/orderflow/internal/domain"
)

// ProductCache fronts the catalog store for product lookups.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID int64) error
}

// DraftCache holds the last draft snapshot per conversation so a restarted
// process can still surface it.
type DraftCache interface {
	Get(ctx context.Context, conversationID int64) (*domain.OrderDraft, error)
	Set(ctx context.Context, draft *domain.OrderDraft) error
	Delete(ctx context.Context, conversationID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
