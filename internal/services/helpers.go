package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/pkg/logger"
	"github.com/jeromedesantos12/app-circle/pkg/metrics"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50

	defaultOrder = "desc"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// normaliseListParams clamps pagination and resolves the sort column against the
// resource's allow-list. Caller strings never reach ORDER BY directly.
func normaliseListParams(p cache.ListParams, allowedSorts map[string]struct{}, defaultSort string) cache.ListParams {
	if p.Page <= 0 {
		p.Page = defaultPage
	}
	if p.Limit <= 0 || p.Limit > maxLimit {
		p.Limit = defaultLimit
	}

	sort := strings.ToLower(strings.TrimSpace(p.SortBy))
	if _, ok := allowedSorts[sort]; !ok {
		sort = defaultSort
	}
	p.SortBy = sort

	order := strings.ToLower(strings.TrimSpace(p.Order))
	if order != "asc" && order != "desc" {
		order = defaultOrder
	}
	p.Order = order

	return p
}

// readCache attempts a cache hit for the given key, decoding into dest. A decode
// or transport failure counts as a miss so the caller recomputes from the store.
func readCache(ctx context.Context, store cache.Store, key, resource string, dest any) bool {
	if store == nil {
		return false
	}

	raw, found, err := store.Get(ctx, key)
	if err != nil {
		logger.WithModule("cache").Warn("cache read failed",
			zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(resource, "miss").Inc()
		return false
	}
	if !found {
		metrics.CacheLookups.WithLabelValues(resource, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.WithModule("cache").Warn("cache entry corrupt",
			zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(resource, "miss").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues(resource, "hit").Inc()
	return true
}

// writeCache stores a computed value under the key. Failures are logged and
// swallowed: the next reader simply recomputes.
func writeCache(ctx context.Context, store cache.Store, key string, value any) {
	if store == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.WithModule("cache").Warn("cache encode failed",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := store.Set(ctx, key, raw, cache.DefaultTTL); err != nil {
		logger.WithModule("cache").Warn("cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// invalidate evicts every key under the given prefixes. A failed eviction is
// logged and swallowed: readers may serve stale entries until the TTL expires,
// but the mutation itself already succeeded and must not be rolled back.
func invalidate(ctx context.Context, store cache.Store, prefixes ...string) {
	if store == nil {
		return
	}

	for _, prefix := range prefixes {
		removed, err := store.DeletePrefix(ctx, prefix)
		if err != nil {
			logger.WithModule("cache").Error("prefix invalidation failed",
				zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		metrics.CacheInvalidations.Add(float64(removed))
	}
}

// publish hands the event to the fan-out hub. Delivery is best effort and never
// influences the mutation result.
func publish(pub realtime.Publisher, event realtime.Event) {
	if pub == nil {
		return
	}
	pub.Publish(event)
}

// isUniqueConstraintError detects database uniqueness violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "constraint failed: unique")
}

func orderClause(table string, p cache.ListParams) string {
	return fmt.Sprintf("%s.%s %s", table, p.SortBy, strings.ToUpper(p.Order))
}
