package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

// getJSON lee y decodifica key. found=false si la clave no existe o expiró.
func getJSON[T any](ctx context.Context, backend interfaces.Cache, key string) (*T, bool, error) {
	raw, err := backend.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			metrics.RecordCacheOperation("get", "miss")
			logging.CacheOperation(ctx, logging.CacheOpGet, key, false)
			return nil, false, nil
		}
		metrics.RecordCacheOperation("get", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpGet, key, err)
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		metrics.RecordCacheOperation("get", "error")
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}

	metrics.RecordCacheOperation("get", "hit")
	logging.CacheOperation(ctx, logging.CacheOpGet, key, true)
	return &out, true, nil
}

func setJSON(ctx context.Context, backend interfaces.Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := backend.Set(ctx, key, string(data), ttl); err != nil {
		metrics.RecordCacheOperation("set", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpSet, key, err)
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	metrics.RecordCacheOperation("set", "success")
	logging.Cache().Set(ctx, key, ttl.Seconds())
	return nil
}
