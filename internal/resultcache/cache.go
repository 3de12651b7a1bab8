package resultcache

import (
	"context"
	"sync"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/normalize"
	"go.uber.org/zap"
)

const searchKeyPrefix = "search:artist:"

// KV is the durable key-value substrate. *cache.CacheService satisfies it;
// tests substitute an in-memory fake.
type KV interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Config struct {
	// PendingTimeout bounds how long a pending claim blocks retries. A
	// crashed in-flight resolution self-heals once the claim ages out.
	PendingTimeout time.Duration
	// ResolvedTTL bounds how long a resolved verdict stays fresh; older
	// entries are treated as absent.
	ResolvedTTL time.Duration
}

// SearchCache stores identity-resolution outcomes per normalized artist
// query. TrySetPending is the sole admission-control point that prevents
// duplicate concurrent resolver calls for the same artist; all mutations are
// serialized through one mutex because the substrate offers no compare-and-set.
type SearchCache struct {
	kv             KV
	logger         *zap.Logger
	pendingTimeout time.Duration
	resolvedTTL    time.Duration
	now            func() time.Time

	mu sync.Mutex
}

func NewSearchCache(kv KV, cfg Config, logger *zap.Logger) *SearchCache {
	pendingTimeout := cfg.PendingTimeout
	if pendingTimeout <= 0 {
		pendingTimeout = 60 * time.Second
	}
	resolvedTTL := cfg.ResolvedTTL
	if resolvedTTL <= 0 {
		resolvedTTL = 24 * time.Hour
	}

	return &SearchCache{
		kv:             kv,
		logger:         logger,
		pendingTimeout: pendingTimeout,
		resolvedTTL:    resolvedTTL,
		now:            time.Now,
	}
}

func searchKey(query string) string {
	return searchKeyPrefix + query
}

// Get returns the live view of the entry for a query. A pending entry older
// than the pending timeout surfaces as an ephemeral failed view without
// mutating storage; a resolved entry older than its TTL is reported absent.
func (sc *SearchCache) Get(ctx context.Context, query string) (*domain.CacheEntry, error) {
	norm := normalize.Artist(query)
	if norm == "" {
		return nil, nil
	}

	entry, err := sc.load(ctx, norm)
	if err != nil || entry == nil {
		return entry, err
	}

	return sc.liveView(entry), nil
}

// TrySetPending claims a query for resolution. It returns false, changing
// nothing, when a live pending or unexpired resolved entry already exists;
// otherwise it writes a fresh pending entry, including over a failed or
// expired one so retries can proceed.
func (sc *SearchCache) TrySetPending(ctx context.Context, query string) (bool, error) {
	norm := normalize.Artist(query)
	if norm == "" {
		return false, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, err := sc.load(ctx, norm)
	if err != nil {
		// can't prove the claim is free, so don't take it
		return false, err
	}

	if entry != nil {
		age := sc.now().Sub(entry.UpdatedAt)
		switch entry.State {
		case domain.CacheStatePending:
			if age <= sc.pendingTimeout {
				sc.logger.Debug("Search already in flight", zap.String("query", norm))
				return false, nil
			}
		case domain.CacheStateResolved:
			if age <= sc.resolvedTTL {
				return false, nil
			}
		}
	}

	stamp := sc.now()
	pending := &domain.CacheEntry{
		State:     domain.CacheStatePending,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	if err := sc.store(ctx, norm, pending); err != nil {
		return false, err
	}

	sc.logger.Debug("Search claimed", zap.String("query", norm))
	return true, nil
}

// SetResolved records the resolver's verdict for this cycle.
func (sc *SearchCache) SetResolved(ctx context.Context, query string, payload *domain.ResolutionResult) error {
	return sc.finish(ctx, query, domain.CacheStateResolved, payload, "")
}

// SetFailed records a failed resolution attempt, eligible for retry.
func (sc *SearchCache) SetFailed(ctx context.Context, query string, reason string) error {
	return sc.finish(ctx, query, domain.CacheStateFailed, nil, reason)
}

func (sc *SearchCache) finish(ctx context.Context, query string, state domain.CacheState, payload *domain.ResolutionResult, reason string) error {
	norm := normalize.Artist(query)
	if norm == "" {
		return nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	createdAt := sc.now()
	if existing, err := sc.load(ctx, norm); err == nil && existing != nil {
		createdAt = existing.CreatedAt
	}

	entry := &domain.CacheEntry{
		State:       state,
		CreatedAt:   createdAt,
		UpdatedAt:   sc.now(),
		Payload:     payload,
		ErrorReason: reason,
	}
	if err := sc.store(ctx, norm, entry); err != nil {
		return err
	}

	sc.logger.Debug("Search finished",
		zap.String("query", norm),
		zap.String("state", string(state)),
	)
	return nil
}

func (sc *SearchCache) load(ctx context.Context, norm string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	found, err := sc.kv.GetJSON(ctx, searchKey(norm), &entry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

func (sc *SearchCache) store(ctx context.Context, norm string, entry *domain.CacheEntry) error {
	// Redis-side expiry is housekeeping only; state-machine freshness is
	// decided from the timestamps above.
	return sc.kv.SetJSON(ctx, searchKey(norm), entry, 2*sc.resolvedTTL)
}

func (sc *SearchCache) liveView(entry *domain.CacheEntry) *domain.CacheEntry {
	age := sc.now().Sub(entry.UpdatedAt)

	switch entry.State {
	case domain.CacheStatePending:
		if age > sc.pendingTimeout {
			view := *entry
			view.State = domain.CacheStateFailed
			view.ErrorReason = "pending search timed out"
			return &view
		}
	case domain.CacheStateResolved:
		if age > sc.resolvedTTL {
			return nil
		}
	}

	return entry
}
