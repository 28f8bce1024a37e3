//go:build !integration

package postgres

import (
	"context"
	"time"

	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
	red "loyalty-campaign/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerOpportunityRepo mocks the database repository that the decorator wraps.
type mockInnerOpportunityRepo struct {
	ListActiveFunc func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.OpportunityProduct, int, error)
	CreateFunc     func(ctx context.Context, tx repository.Tx, p *model.OpportunityProduct) error
}

func (m *mockInnerOpportunityRepo) ListActive(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.OpportunityProduct, int, error) {
	return m.ListActiveFunc(ctx, tx, offset, limit)
}
func (m *mockInnerOpportunityRepo) Create(ctx context.Context, tx repository.Tx, p *model.OpportunityProduct) error {
	return m.CreateFunc(ctx, tx, p)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc         func(ctx context.Context, key string) (string, error)
	SetFunc         func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc       func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	ExistsFunc      func(ctx context.Context, key string) (bool, error)
	DelFunc         func(ctx context.Context, keys ...string) error
	DelIfEqualsFunc func(ctx context.Context, key, value string) error
	PingFunc        func(ctx context.Context) error
	IncrFunc        func(ctx context.Context, key string) (int64, error)
	ExpireFunc      func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc       func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	return m.ExistsFunc(ctx, key)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) error {
	return m.DelIfEqualsFunc(ctx, key, value)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
