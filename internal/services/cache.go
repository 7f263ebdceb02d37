package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/metrics"
	"lead-workflow/internal/utils"
)

const (
	leadsQueryCache        = "leads_query"
	forwardCandidatesCache = "forward_candidates"
	clientsCache           = "clients"
	employeeSeqPrefix      = "employee_seq:"
)

func leadsQueryKey(employeeID, department string, inQueue bool) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%t", employeeID, department, inQueue)))
	return leadsQueryCache + ":" + hex.EncodeToString(sum[:])
}

func forwardCandidatesKey(department string) string {
	if department == "" {
		department = "all"
	}
	return forwardCandidatesCache + ":" + department
}

func generationKey(name string) string {
	return "generation:" + name
}

// readThrough serves key from Redis or loads, stores and returns it. A load
// that overlaps an invalidation of name is returned but not stored.
// Cache failures are logged and never fail the request.
func readThrough[T any](ctx context.Context, cache *utils.RedisClient, m *metrics.Metrics, log logger.Logger,
	name, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	err := cache.Get(ctx, key, &cached)
	if err == nil {
		m.CacheHit(name)
		return cached, nil
	}
	if !errors.Is(err, utils.ErrCacheMiss) {
		log.Warn("cache read failed", "key", key, "error", err)
	}
	m.CacheMiss(name)

	gen, genErr := cache.Generation(ctx, generationKey(name))
	value, err := load()
	if err != nil {
		return value, err
	}
	if genErr != nil {
		log.Warn("cache generation read failed", "cache", name, "error", genErr)
		return value, nil
	}

	stored, err := cache.SetIfGeneration(ctx, generationKey(name), gen, key, value, ttl)
	if err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	} else if !stored {
		log.Debug("skipping cache write after invalidation", "key", key)
	}
	return value, nil
}

// invalidate drops every entry of the named caches and moves their
// generation so in-flight loads are not written back.
func invalidate(ctx context.Context, cache *utils.RedisClient, log logger.Logger, names ...string) {
	for _, name := range names {
		if err := cache.BumpGeneration(ctx, generationKey(name)); err != nil {
			log.Warn("failed to bump cache generation", "cache", name, "error", err)
		}
		if err := cache.Delete(ctx, name); err != nil {
			log.Warn("failed to invalidate cache", "key", name, "error", err)
		}
		if err := cache.DeletePattern(ctx, name+":*"); err != nil {
			log.Warn("failed to invalidate cache", "pattern", name+":*", "error", err)
		}
	}
}
