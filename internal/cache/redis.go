package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellista/orderflow/internal/domain"
)

func NewRedisProductCache(client *redis.Client) *RedisProductCache {
	return &RedisProductCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisProductCache) Get(ctx context.Context, productID int64) (*domain.Product, error) {
	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product domain.Product
	if err2 := json.Unmarshal(data, &product); err2 != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err2)
	}

	return &product, nil
}

func (r RedisProductCache) Set(ctx context.Context, product *domain.Product) error {
	payload, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, productKey(product.ID), payload, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisProductCache) Delete(ctx context.Context, productID int64) error {
	if err := r.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}

func NewRedisDraftCache(client *redis.Client) *RedisDraftCache {
	return &RedisDraftCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// RedisDraftCache is a write-through snapshot of each conversation's draft.
type RedisDraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisDraftCache) Get(ctx context.Context, conversationID int64) (*domain.OrderDraft, error) {
	data, err := r.client.Get(ctx, draftKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var draft domain.OrderDraft
	if err2 := json.Unmarshal(data, &draft); err2 != nil {
		return nil, fmt.Errorf("unmarshal draft failed: %w", err2)
	}

	return &draft, nil
}

func (r RedisDraftCache) Set(ctx context.Context, draft *domain.OrderDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft failed: %w", err)
	}

	if err := r.client.Set(ctx, draftKey(draft.ConversationID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisDraftCache) Delete(ctx context.Context, conversationID int64) error {
	if err := r.client.Del(ctx, draftKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func draftKey(conversationID int64) string {
	return fmt.Sprintf("draft:%d", conversationID)
}
