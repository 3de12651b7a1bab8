package resultcache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

type fakeKV struct {
	data map[string][]byte
	sets int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeKV) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.sets++
	return nil
}

func newTestCache(kv KV, at time.Time) *SearchCache {
	sc := NewSearchCache(kv, Config{
		PendingTimeout: 60 * time.Second,
		ResolvedTTL:    24 * time.Hour,
	}, zap.NewNop())
	sc.now = func() time.Time { return at }
	return sc
}

func TestTrySetPendingClaimsOnce(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	sc := newTestCache(kv, time.Now())

	first, err := sc.TrySetPending(ctx, "Some Artist")
	if err != nil {
		t.Fatalf("first TrySetPending failed: %v", err)
	}
	second, err := sc.TrySetPending(ctx, "some artist")
	if err != nil {
		t.Fatalf("second TrySetPending failed: %v", err)
	}

	if !first || second {
		t.Fatalf("expected exactly one claim, got first=%v second=%v", first, second)
	}
}

func TestStalePendingSurfacesAsFailedWithoutMutation(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	start := time.Now()

	sc := newTestCache(kv, start)
	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("initial claim should succeed")
	}
	setsAfterClaim := kv.sets

	// advance past the pending timeout
	sc.now = func() time.Time { return start.Add(61 * time.Second) }

	entry, err := sc.Get(ctx, "artist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil || entry.State != domain.CacheStateFailed {
		t.Fatalf("stale pending should surface as failed, got %+v", entry)
	}
	if kv.sets != setsAfterClaim {
		t.Fatalf("Get must not write, sets went %d -> %d", setsAfterClaim, kv.sets)
	}

	// a stale pending claim must be reclaimable
	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("stale pending claim should be reclaimable")
	}
}

func TestExpiredResolvedReportedAbsent(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	start := time.Now()

	sc := newTestCache(kv, start)
	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("claim should succeed")
	}
	payload := &domain.ResolutionResult{CanonicalName: "Artist", CountryCode: "UA"}
	if err := sc.SetResolved(ctx, "artist", payload); err != nil {
		t.Fatalf("SetResolved failed: %v", err)
	}

	// fresh resolved entry blocks re-claims
	if ok, _ := sc.TrySetPending(ctx, "artist"); ok {
		t.Fatal("fresh resolved entry must block a new claim")
	}

	// advance past the resolved TTL
	sc.now = func() time.Time { return start.Add(25 * time.Hour) }

	entry, err := sc.Get(ctx, "artist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expired resolved entry should be absent, got %+v", entry)
	}
	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("expired resolved entry should be reclaimable")
	}
}

func TestFailedEntryIsRetriable(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	sc := newTestCache(kv, time.Now())

	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("claim should succeed")
	}
	if err := sc.SetFailed(ctx, "artist", "model unavailable"); err != nil {
		t.Fatalf("SetFailed failed: %v", err)
	}

	entry, _ := sc.Get(ctx, "artist")
	if entry == nil || entry.State != domain.CacheStateFailed || entry.ErrorReason != "model unavailable" {
		t.Fatalf("unexpected entry after failure: %+v", entry)
	}

	if ok, _ := sc.TrySetPending(ctx, "artist"); !ok {
		t.Fatal("failed entry should be immediately reclaimable")
	}
}
