package ringwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Coordinator owns the shared network analysis snapshot. It keeps a
// single fetch in flight at a time: concurrent callers on a cold or
// stale snapshot wait for the in-flight result instead of issuing
// their own detection calls.
type Coordinator struct {
	repo   domain.Repository
	cache  domain.Cache
	bus    domain.EventBus
	client Detector
	cfg    domain.RingConfig
	logger *slog.Logger

	mu       sync.Mutex
	snapshot *domain.NetworkAnalysisSnapshot
	fetching chan struct{} // non-nil while a fetch is in flight
	fetchErr error
}

// NewCoordinator creates a snapshot coordinator. The bus is optional;
// when present a message is published after every successful refresh.
func NewCoordinator(repo domain.Repository, cache domain.Cache, bus domain.EventBus, client Detector, cfg domain.RingConfig, logger *slog.Logger) *Coordinator {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetOrRefresh returns a fresh snapshot, fetching one when the current
// snapshot is cold or past its TTL. On retry exhaustion the error wraps
// ErrSnapshotUnavailable and callers evaluate without network evidence.
func (c *Coordinator) GetOrRefresh(ctx context.Context) (*domain.NetworkAnalysisSnapshot, error) {
	for {
		c.mu.Lock()
		if c.snapshot == nil {
			c.loadFromCacheLocked(ctx)
		}
		if c.snapshot != nil && !c.staleLocked() {
			snap := c.snapshot
			c.mu.Unlock()
			return snap, nil
		}
		if c.fetching != nil {
			latch := c.fetching
			c.mu.Unlock()
			select {
			case <-latch:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			// Re-check: the completed fetch either installed a fresh
			// snapshot or recorded an error.
			c.mu.Lock()
			snap, err := c.snapshot, c.fetchErr
			stale := snap == nil || c.staleLocked()
			c.mu.Unlock()
			if !stale {
				return snap, nil
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		latch := make(chan struct{})
		c.fetching = latch
		c.mu.Unlock()

		snap, err := c.fetch(ctx)

		c.mu.Lock()
		if err == nil {
			c.snapshot = snap
			c.fetchErr = nil
		} else {
			c.fetchErr = err
		}
		c.fetching = nil
		c.mu.Unlock()
		close(latch)

		return snap, err
	}
}

// Invalidate drops the cached snapshot, forcing the next caller to
// fetch.
func (c *Coordinator) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.snapshot = nil
	c.fetchErr = nil
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Delete(ctx, domain.KeyNetworkSnapshot); err != nil {
			return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
		}
	}
	return nil
}

// IsStale reports whether the current snapshot is missing or past TTL.
func (c *Coordinator) IsStale(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		c.loadFromCacheLocked(ctx)
	}
	return c.snapshot == nil || c.staleLocked()
}

func (c *Coordinator) staleLocked() bool {
	return time.Since(c.snapshot.FetchedAt) >= c.cfg.SnapshotTTL
}

// loadFromCacheLocked warms the in-memory snapshot from the shared
// cache, e.g. after a restart. Errors are ignored: a failed load just
// means a cold start.
func (c *Coordinator) loadFromCacheLocked(ctx context.Context) {
	if c.cache == nil {
		return
	}
	raw, err := c.cache.Get(ctx, domain.KeyNetworkSnapshot)
	if err != nil || raw == nil {
		return
	}
	var snap domain.NetworkAnalysisSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return
	}
	c.snapshot = &snap
}

// fetch gathers the dataset and runs detection with bounded retries on
// export lock contention.
func (c *Coordinator) fetch(ctx context.Context) (*domain.NetworkAnalysisSnapshot, error) {
	req, err := c.gather(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather detection dataset: %w: %w", err, ErrSnapshotUnavailable)
	}

	backoff := c.cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		snap, err := c.client.Detect(attemptCtx, req)
		cancel()

		if err == nil {
			c.store(ctx, snap)
			return snap, nil
		}
		lastErr = err

		if !errors.Is(err, ErrLockContention) {
			return nil, fmt.Errorf("detection failed: %w: %w", err, ErrSnapshotUnavailable)
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.Warn("ring service busy, retrying",
			"attempt", attempt,
			"backoff", backoff.String())

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("detection retries exhausted: %w: %w", lastErr, ErrSnapshotUnavailable)
}

// gather reads users, policies and claims in parallel.
func (c *Coordinator) gather(ctx context.Context) (*DetectRequest, error) {
	var (
		wg       sync.WaitGroup
		users    []*domain.User
		policies []*domain.Policy
		claims   []*domain.Claim

		errUsers, errPolicies, errClaims error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		users, errUsers = c.repo.ListUsers(ctx)
	}()
	go func() {
		defer wg.Done()
		policies, errPolicies = c.repo.ListPolicies(ctx)
	}()
	go func() {
		defer wg.Done()
		claims, errClaims = c.repo.ListClaims(ctx)
	}()
	wg.Wait()

	for _, err := range []error{errUsers, errPolicies, errClaims} {
		if err != nil {
			return nil, err
		}
	}

	return &DetectRequest{Users: users, Policies: policies, Claims: claims}, nil
}

// store persists the snapshot to the shared cache and announces it.
func (c *Coordinator) store(ctx context.Context, snap *domain.NetworkAnalysisSnapshot) {
	if c.cache != nil {
		raw, err := json.Marshal(snap)
		if err == nil {
			if err := c.cache.Set(ctx, domain.KeyNetworkSnapshot, raw, c.cfg.SnapshotTTL); err != nil {
				c.logger.Warn("failed to cache network snapshot", "error", err)
			}
		}
	}

	if c.bus != nil {
		payload, err := json.Marshal(map[string]any{
			"fetchedAt": snap.FetchedAt,
			"networks":  len(snap.SuspiciousNetworks),
		})
		if err == nil {
			if err := c.bus.Publish(ctx, domain.TopicSnapshotUpdated, payload); err != nil {
				c.logger.Warn("failed to publish snapshot event", "error", err)
			}
		}
	}

	c.logger.Info("network snapshot refreshed",
		"networks", len(snap.SuspiciousNetworks),
		"riskScores", len(snap.RiskScores))
}
