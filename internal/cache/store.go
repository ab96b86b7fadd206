package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the read-through layer between query code and the cache backend.
// It is strictly a cost-reduction layer: every failure of the backend is
// logged and treated as a miss, so callers always get an answer from their
// compute function when the cache cannot help. The Store never coordinates
// writers; slot exclusivity is enforced by the relational store alone.
type Store struct {
	backend Backend
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

func NewStore(backend Backend, ttl, timeout time.Duration, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// lookup returns the raw cached bytes for key, treating every backend
// problem (unreachable, timeout) as a miss.
func (s *Store) lookup(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, ok, err := s.backend.Get(opCtx, key)
	if err != nil {
		s.logger.Warn("cache get failed, falling through to source",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, ok
}

// save writes a computed result back best-effort. It deliberately does not
// use the caller's context: a reader that disconnected mid-compute should
// not stop the result from being stored for the next reader.
func (s *Store) save(ctx context.Context, key string, raw []byte) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.backend.Set(opCtx, key, raw, s.ttl); err != nil {
		s.logger.Warn("cache set failed, result served uncached",
			zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes the given keys best-effort. Absent keys are a no-op; an
// unreachable backend is logged and swallowed, because the write that
// triggered the invalidation is already the source of truth and staleness is
// bounded by the TTL anyway.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.backend.Delete(opCtx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed, stale entries expire by TTL",
			zap.Strings("keys", keys), zap.Error(err))
	}
}

// GetOrCompute serves key from the cache when present and unexpired,
// otherwise runs compute, stores its result under key with the store's TTL
// and returns it. Concurrent misses on the same key are coalesced into a
// single compute per process. Errors from compute are returned as-is and
// nothing is cached for them.
func GetOrCompute[T any](ctx context.Context, s *Store, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok := s.lookup(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		// Undecodable entry: drop it and recompute.
		s.logger.Warn("cache entry undecodable, evicting", zap.String("key", key))
		s.Invalidate(ctx, key)
	}

	out, err, _ := s.group.Do(key, func() (any, error) {
		// The shared compute is detached from whichever caller happened to
		// trigger it: a reader that disconnects mid-compute must not cancel
		// the recomputation for the coalesced readers behind it, and the
		// result is still worth storing for the next one.
		computeCtx := context.WithoutCancel(ctx)
		v, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("cache value not serializable, result served uncached",
				zap.String("key", key), zap.Error(err))
			return v, nil
		}
		s.save(computeCtx, key, raw)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
