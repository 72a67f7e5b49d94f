package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/pkg/utils"
)

// LockRegistry is the process-wide table of per-key cache locks. It is an
// injected dependency, owned by whoever wires the sync service, never a
// package global. All acquisition state lives behind one mutex so sweeping
// can never race a holder.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	held bool
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*lockEntry)}
}

// TryAcquire attempts a non-blocking acquisition of the key's lock,
// creating the entry on first use.
func (r *LockRegistry) TryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.locks[key]
	if !ok {
		r.locks[key] = &lockEntry{held: true}
		return true
	}
	if entry.held {
		return false
	}
	entry.held = true
	return true
}

// Release frees the key's lock. Releasing an unknown key is a no-op,
// tolerated so sweep/release ordering never panics.
func (r *LockRegistry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.locks[key]; ok {
		entry.held = false
	}
}

// Probe reports whether the key's lock is currently obtainable. Advisory
// only: nothing is reserved for the caller.
func (r *LockRegistry) Probe(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.locks[key]
	return !ok || !entry.held
}

// Sweep drops entries whose lock is unheld, bounding growth from the key
// space. Returns the number of entries removed.
func (r *LockRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, entry := range r.locks {
		if !entry.held {
			delete(r.locks, key)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// CacheSyncService guarantees at most one in-flight computation per cache
// key: contended executions retry with exponential backoff, contended
// refresh cycles are skipped outright.
type CacheSyncService struct {
	registry        *LockRegistry
	logger          *logrus.Logger
	retryAttempts   int
	retryDelay      time.Duration
	retryMultiplier int
	sweepInterval   time.Duration

	cron *cron.Cron
	mu   sync.Mutex
}

func NewCacheSyncService(registry *LockRegistry, logger *logrus.Logger, retryAttempts int, retryDelay time.Duration, retryMultiplier int, sweepInterval time.Duration) *CacheSyncService {
	return &CacheSyncService{
		registry:        registry,
		logger:          logger,
		retryAttempts:   retryAttempts,
		retryDelay:      retryDelay,
		retryMultiplier: retryMultiplier,
		sweepInterval:   sweepInterval,
	}
}

// ExecuteCacheOperation runs op under the key's lock. Acquisition is
// non-blocking; contention backs off and retries up to the configured
// attempts before surfacing ErrLockContended. An error from op itself is
// not retried: it propagates immediately, wrapped once, after the lock is
// released.
func (s *CacheSyncService) ExecuteCacheOperation(ctx context.Context, key string, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: cache operation requires a key", utils.ErrInvalidInput)
	}
	if op == nil {
		return nil, fmt.Errorf("%w: cache operation requires an operation", utils.ErrInvalidInput)
	}

	delay := s.retryDelay
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		if s.registry.TryAcquire(key) {
			return s.runLocked(ctx, key, op)
		}

		s.logger.WithFields(logrus.Fields{
			"cache_key": key,
			"attempt":   attempt,
			"backoff":   delay,
		}).Debug("Cache lock contended, backing off")

		if attempt == s.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: key %q: %v", utils.ErrLockContended, key, ctx.Err())
		case <-time.After(delay):
		}
		delay *= time.Duration(s.retryMultiplier)
	}

	return nil, fmt.Errorf("%w: key %q still locked after %d attempts", utils.ErrLockContended, key, s.retryAttempts)
}

func (s *CacheSyncService) runLocked(ctx context.Context, key string, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	defer s.registry.Release(key)

	result, err := op(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache operation for key %q: %w", key, err)
	}
	return result, nil
}

// CoordinateCacheRefresh runs refreshOperation under the cache type's
// lock. Refresh cycles are idempotent and best-effort: if another cycle
// holds the lock this one is skipped, logged, and reported as success.
func (s *CacheSyncService) CoordinateCacheRefresh(cacheType string, refreshOperation func() error) error {
	if cacheType == "" {
		return fmt.Errorf("%w: cache refresh requires a cache type", utils.ErrInvalidInput)
	}

	lockKey := "refresh:" + cacheType
	if !s.registry.TryAcquire(lockKey) {
		s.logger.WithField("cache_type", cacheType).Warn("Refresh already in progress, skipping cycle")
		return nil
	}
	defer s.registry.Release(lockKey)

	if err := refreshOperation(); err != nil {
		return fmt.Errorf("cache refresh for %q: %w", cacheType, err)
	}
	return nil
}

// ValidateCacheOperation reports whether the key's lock looks obtainable
// right now. Callers must not assume the answer reserved anything.
func (s *CacheSyncService) ValidateCacheOperation(key string) bool {
	return s.registry.Probe(key)
}

// Start schedules the periodic lock-table sweep.
func (s *CacheSyncService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("cache sync service is already running")
	}

	c := cron.New()
	schedule := fmt.Sprintf("@every %s", s.sweepInterval.String())
	if _, err := c.AddFunc(schedule, s.sweepLocks); err != nil {
		return fmt.Errorf("failed to schedule lock sweep: %w", err)
	}
	c.Start()
	s.cron = c

	s.logger.WithField("interval", s.sweepInterval).Info("Cache sync service started")
	return nil
}

// Stop halts the sweep schedule.
func (s *CacheSyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
		s.logger.Info("Cache sync service stopped")
	}
}

func (s *CacheSyncService) sweepLocks() {
	removed := s.registry.Sweep()
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": s.registry.Len(),
		}).Debug("Swept unheld cache locks")
	}
}
