package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
	"loyalty-campaign/internal/infra/metrics"
	red "loyalty-campaign/internal/infra/redis"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var _ repository.OpportunityRepository = (*opportunityRepoCacheDecorator)(nil)

// Every cached page key embeds the current version; bumping the version on
// writes orphans all pages at once and lets them expire on their own.
const opportunityVersionKey = "opportunities:version"

type opportunityRepoCacheDecorator struct {
	inner  repository.OpportunityRepository
	cache  red.RedisClient
	ttl    time.Duration
	logger *zerolog.Logger
}

type cachedOpportunityPage struct {
	Items []*model.OpportunityProduct `json:"items"`
	Total int                         `json:"total"`
}

func NewOpportunityRepoCacheDecorator(inner repository.OpportunityRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.OpportunityRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	l := logger.With().Str("component", "opportunity_cache").Logger()
	return &opportunityRepoCacheDecorator{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: &l,
	}
}

func (d *opportunityRepoCacheDecorator) version(ctx context.Context) string {
	v, err := d.cache.Get(ctx, opportunityVersionKey)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			d.logger.Warn().Err(err).Msg("read cache version")
		}
		return "0"
	}
	return v
}

func (d *opportunityRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.OpportunityProduct, int, error) {
	// Reads inside a transaction must see the transaction's view.
	if tx != nil {
		metrics.IncCacheRequest("opportunity", "bypass")
		return d.inner.ListActive(ctx, tx, offset, limit)
	}

	key := fmt.Sprintf("opportunities:v%s:%d:%d", d.version(ctx), offset, limit)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var page cachedOpportunityPage
		if json.Unmarshal([]byte(val), &page) == nil {
			metrics.IncCacheRequest("opportunity", "hit")
			return page.Items, page.Total, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	metrics.IncCacheRequest("opportunity", "miss")
	items, total, err := d.inner.ListActive(ctx, tx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if b, err := json.Marshal(cachedOpportunityPage{Items: items, Total: total}); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return items, total, nil
}

// Create invalidates every cached page by bumping the version.
func (d *opportunityRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, p *model.OpportunityProduct) error {
	if err := d.inner.Create(ctx, tx, p); err != nil {
		return err
	}
	if _, err := d.cache.Incr(ctx, opportunityVersionKey); err != nil {
		d.logger.Warn().Err(err).Msg("bump cache version")
	}
	return nil
}
