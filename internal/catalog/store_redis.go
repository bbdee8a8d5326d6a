package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/geohistory/internal/platform/constants"
)

// CachedRepository is a read-through Redis cache in front of another
// [Repository].
//
// The cache is best effort: any Redis failure is logged and the call goes to
// the inner repository, so an unavailable Redis only costs latency.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps inner with a cache whose entries live for ttl.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListEvents serves an event page from cache, keyed by the canonical query.
func (repository *CachedRepository) ListEvents(context context.Context, filters Filters) (*EventPage, error) {
	key := constants.RedisPrefixEvents + filters.Encode()

	var page EventPage
	if repository.load(context, key, &page) {
		return &page, nil
	}

	fresh, err := repository.inner.ListEvents(context, filters)
	if err != nil {
		return nil, err
	}
	repository.store(context, key, fresh)
	return fresh, nil
}

// ListOptions serves an option set from cache, keyed by the canonical query.
func (repository *CachedRepository) ListOptions(context context.Context, filters Filters) (*Options, error) {
	key := constants.RedisPrefixOptions + filters.Encode()

	var options Options
	if repository.load(context, key, &options) {
		normalized := options.Normalized()
		return &normalized, nil
	}

	fresh, err := repository.inner.ListOptions(context, filters)
	if err != nil {
		return nil, err
	}
	repository.store(context, key, fresh)
	return fresh, nil
}

// GetEvent serves an event detail from cache. Not-found answers are not cached.
func (repository *CachedRepository) GetEvent(context context.Context, id string) (*EventDetail, error) {
	key := constants.RedisPrefixEvent + id

	var detail EventDetail
	if repository.load(context, key, &detail) {
		return &detail, nil
	}

	fresh, err := repository.inner.GetEvent(context, id)
	if err != nil {
		return nil, err
	}
	repository.store(context, key, fresh)
	return fresh, nil
}

// load reports whether key was found and decoded into target.
func (repository *CachedRepository) load(ctx context.Context, key string, target any) bool {
	payload, err := repository.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			repository.logger.Warn("cache_read_failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}

	if err := json.Unmarshal(payload, target); err != nil {
		repository.logger.Warn("cache_entry_corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (repository *CachedRepository) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := repository.client.Set(ctx, key, payload, repository.ttl).Err(); err != nil && ctx.Err() == nil {
		repository.logger.Warn("cache_write_failed", slog.String("key", key), slog.Any("error", err))
	}
}
