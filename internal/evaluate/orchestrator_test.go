package evaluate

import (
	"context"
	"sync"
	"testing"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

type fakeSearchCache struct {
	mu       sync.Mutex
	allow    bool
	claims   []string
	resolved map[string]*domain.ResolutionResult
	failed   map[string]string
}

func newFakeSearchCache(allow bool) *fakeSearchCache {
	return &fakeSearchCache{
		allow:    allow,
		resolved: make(map[string]*domain.ResolutionResult),
		failed:   make(map[string]string),
	}
}

func (f *fakeSearchCache) TrySetPending(_ context.Context, query string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, query)
	return f.allow, nil
}

func (f *fakeSearchCache) SetResolved(_ context.Context, query string, payload *domain.ResolutionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved[query] = payload
	return nil
}

func (f *fakeSearchCache) SetFailed(_ context.Context, query, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[query] = reason
	return nil
}

type fakeResolver struct {
	mu      sync.Mutex
	results map[string]*domain.ResolutionResult
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, artistName string, _ *domain.ArtistContext, _ string) (*domain.ResolutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, artistName)
	if f.results == nil {
		return nil, nil
	}
	return f.results[artistName], nil
}

type fakeMetadata struct {
	contexts map[string]*domain.ArtistContext
}

func (f *fakeMetadata) Lookup(_ context.Context, artistName string) *domain.ArtistContext {
	if f.contexts == nil {
		return nil
	}
	return f.contexts[artistName]
}

type fakeSink struct {
	mu        sync.Mutex
	decisions []*domain.Decision
	tracks    []domain.Track
}

func (f *fakeSink) Apply(_ context.Context, track domain.Track, decision *domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, track)
	f.decisions = append(f.decisions, decision)
	return nil
}

func (f *fakeSink) last() *domain.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.decisions) == 0 {
		return nil
	}
	return f.decisions[len(f.decisions)-1]
}

func newTestOrchestrator(kb *fakeKnowledge, sc SearchCache, res Resolver, meta MetadataLookup, sink Sink) *Orchestrator {
	logger := zap.NewNop()
	evaluator := NewEvaluator(kb, AnyFlaggedStrict, logger)
	return NewOrchestrator(evaluator, kb, sc, res, meta, sink, logger)
}

func TestProcessSkipsResolutionWhenClaimDenied(t *testing.T) {
	kb := &fakeKnowledge{}
	sc := newFakeSearchCache(false)
	res := &fakeResolver{}
	sink := &fakeSink{}
	o := newTestOrchestrator(kb, sc, res, &fakeMetadata{}, sink)

	track := domain.Track{Title: "Some Song", ArtistString: "Busy Artist"}
	o.SetNowPlaying(track)
	decision := o.Process(context.Background(), track)

	if decision.Stage != domain.StagePendingSearch {
		t.Fatalf("expected pending decision, got %+v", decision)
	}
	if len(sc.claims) != 1 {
		t.Fatalf("expected one claim attempt, got %v", sc.claims)
	}
	if len(res.calls) != 0 {
		t.Fatalf("denied claim must not reach the resolver, calls=%v", res.calls)
	}
	if sink.last() != nil {
		t.Fatal("no verdict should be enforced when the claim is denied")
	}
}

func TestProcessResolvesAndEnforces(t *testing.T) {
	kb := &fakeKnowledge{}
	sc := newFakeSearchCache(true)
	res := &fakeResolver{
		results: map[string]*domain.ResolutionResult{
			"new artist": {CanonicalName: "New Artist", CountryCode: "RU", FlaggedOrigin: true},
		},
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(kb, sc, res, &fakeMetadata{}, sink)

	track := domain.Track{Title: "Some Song", ArtistString: "New Artist"}
	o.SetNowPlaying(track)
	o.Process(context.Background(), track)

	if _, ok := sc.resolved["new artist"]; !ok {
		t.Fatalf("verdict not recorded in search cache: %v", sc.resolved)
	}
	learned, _ := kb.FindArtist(context.Background(), "new artist")
	if learned == nil || !learned.FlaggedOrigin {
		t.Fatalf("resolved artist not persisted with alias: %+v", learned)
	}

	final := sink.last()
	if final == nil || !final.Blocked || final.Stage != domain.StageArtist {
		t.Fatalf("re-evaluated verdict not enforced, got %+v", final)
	}
}

func TestProcessHardSignalSkipsResolver(t *testing.T) {
	kb := &fakeKnowledge{}
	sc := newFakeSearchCache(true)
	res := &fakeResolver{}
	meta := &fakeMetadata{
		contexts: map[string]*domain.ArtistContext{
			"shady artist": {
				ChannelTitle:       "Shady Artist",
				Links:              []string{"https://vk.com/shady"},
				HasFlaggedPlatform: true,
			},
		},
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(kb, sc, res, meta, sink)

	track := domain.Track{Title: "Some Song", ArtistString: "Shady Artist"}
	o.SetNowPlaying(track)
	o.Process(context.Background(), track)

	if len(res.calls) != 0 {
		t.Fatalf("hard platform signal must settle without the resolver, calls=%v", res.calls)
	}
	payload := sc.resolved["shady artist"]
	if payload == nil || !payload.FlaggedOrigin {
		t.Fatalf("hard signal should resolve as flagged, got %+v", payload)
	}
	final := sink.last()
	if final == nil || !final.Blocked {
		t.Fatalf("flagged verdict not enforced, got %+v", final)
	}
}

func TestProcessUnusableResolutionFails(t *testing.T) {
	kb := &fakeKnowledge{}
	sc := newFakeSearchCache(true)
	res := &fakeResolver{} // resolves to nil: model could not identify the artist
	sink := &fakeSink{}
	o := newTestOrchestrator(kb, sc, res, &fakeMetadata{}, sink)

	track := domain.Track{Title: "Some Song", ArtistString: "Obscure Artist"}
	o.SetNowPlaying(track)
	o.Process(context.Background(), track)

	if _, ok := sc.failed["obscure artist"]; !ok {
		t.Fatalf("unusable resolution must mark the entry failed: %v", sc.failed)
	}
	if sink.last() != nil {
		t.Fatal("failed resolution must not produce a verdict")
	}
}

func TestProcessStaleTrackKeepsKnowledgeButSkipsEnforcement(t *testing.T) {
	kb := &fakeKnowledge{}
	sc := newFakeSearchCache(true)
	res := &fakeResolver{
		results: map[string]*domain.ResolutionResult{
			"new artist": {CanonicalName: "New Artist", CountryCode: "RU", FlaggedOrigin: true},
		},
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(kb, sc, res, &fakeMetadata{}, sink)

	track := domain.Track{Title: "Some Song", ArtistString: "New Artist"}
	o.SetNowPlaying(track)
	// playback moves on before resolution completes
	o.SetNowPlaying(domain.Track{Title: "Another Song", ArtistString: "Someone Else"})

	o.Process(context.Background(), track)

	learned, _ := kb.FindArtist(context.Background(), "new artist")
	if learned == nil {
		t.Fatal("knowledge must be kept even when the verdict goes stale")
	}
	if sink.last() != nil {
		t.Fatalf("stale verdict must not be enforced, got %+v", sink.last())
	}
}
