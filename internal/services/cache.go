package services

import (
	"context"
	"fmt"
	"time"

	"internet-banking/internal/cache"
	"internet-banking/internal/utils"
	"internet-banking/internal/worker"
)

const cacheInvalidateTimeout = 2 * time.Second

// invalidateAccountsAsync drops the cached views of the given accounts. The
// work runs on the pool when one is attached and falls back to a synchronous
// delete when the queue is full. It never uses the request context, which may
// be recycled as soon as the handler returns.
func invalidateAccountsAsync(c *cache.RedisCache, pool *worker.WorkerPool, component, ref string, accountIDs ...string) {
	if c == nil || len(accountIDs) == 0 {
		return
	}

	var keys []string
	for _, id := range accountIDs {
		keys = append(keys, cache.AccountKeys(id)...)
	}

	remove := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, cacheInvalidateTimeout)
		defer cancel()
		return c.Delete(ctx, keys...)
	}

	if pool != nil {
		job := worker.Job{
			ID:   fmt.Sprintf("cache-invalidate-%s", ref),
			Task: remove,
		}
		if err := pool.Submit(job); err == nil {
			utils.LogDebug(component, "cache invalidation queued for %s", ref)
			return
		}
		utils.LogWarning(component, "worker pool unavailable, invalidating cache synchronously")
	}

	if err := remove(context.Background()); err != nil {
		utils.LogError(component, "cache invalidation failed", err)
		return
	}
	utils.LogInfo("Cache", "invalidated cached views for %v", accountIDs)
}
