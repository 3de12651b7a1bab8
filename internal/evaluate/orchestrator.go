package evaluate

import (
	"context"
	"sync"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultResolveConcurrency = 4

// SearchCache is the pending-state gate in front of identity resolution.
// *resultcache.SearchCache satisfies it.
type SearchCache interface {
	TrySetPending(ctx context.Context, query string) (bool, error)
	SetResolved(ctx context.Context, query string, payload *domain.ResolutionResult) error
	SetFailed(ctx context.Context, query, reason string) error
}

// Resolver turns an artist name plus optional context into an identity
// judgment. *resolver.Service satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, artistName string, artistCtx *domain.ArtistContext, songTitle string) (*domain.ResolutionResult, error)
}

// MetadataLookup gathers best-effort descriptive context for an artist.
type MetadataLookup interface {
	Lookup(ctx context.Context, artistName string) *domain.ArtistContext
}

// KnowledgeWriter extends the read surface with the mutations resolution
// produces. *knowledgebase.Service satisfies it.
type KnowledgeWriter interface {
	Knowledge
	UpsertArtist(ctx context.Context, record *domain.Artist) (*domain.Artist, error)
}

// Sink receives decisions for enforcement. The bridge client implements it by
// translating blocking decisions into player commands.
type Sink interface {
	Apply(ctx context.Context, track domain.Track, decision *domain.Decision) error
}

// Orchestrator drives the full lifecycle of one playback observation:
// evaluate, and when the verdict is pending, resolve unknown artists, persist
// what was learned, and re-evaluate. It tracks the currently playing item so
// verdicts from slow resolutions are not enforced after playback moved on.
type Orchestrator struct {
	evaluator *Evaluator
	kb        KnowledgeWriter
	cache     SearchCache
	resolver  Resolver
	metadata  MetadataLookup
	sink      Sink
	logger    *zap.Logger

	concurrency int

	mu      sync.Mutex
	current domain.Track
}

func NewOrchestrator(
	evaluator *Evaluator,
	kb KnowledgeWriter,
	cache SearchCache,
	res Resolver,
	metadata MetadataLookup,
	sink Sink,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		evaluator:   evaluator,
		kb:          kb,
		cache:       cache,
		resolver:    res,
		metadata:    metadata,
		sink:        sink,
		logger:      logger,
		concurrency: defaultResolveConcurrency,
	}
}

// SetSink installs the enforcement sink. The sink is constructed after the
// orchestrator because it also feeds tracks into it; call before Start.
func (o *Orchestrator) SetSink(sink Sink) {
	o.sink = sink
}

// SetNowPlaying records the active playback session.
func (o *Orchestrator) SetNowPlaying(track domain.Track) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = track
}

// NowPlaying returns the active playback session.
func (o *Orchestrator) NowPlaying() domain.Track {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Process evaluates a track and, when the verdict is pending, resolves the
// unknown artists before returning. The returned decision is the initial one;
// verdicts produced by re-evaluation are delivered through the sink.
func (o *Orchestrator) Process(ctx context.Context, track domain.Track) *domain.Decision {
	decision := o.evaluator.Evaluate(ctx, track)

	o.logger.Info("Track evaluated",
		zap.String("title", track.Title),
		zap.String("artist", track.ArtistString),
		zap.String("stage", string(decision.Stage)),
		zap.Bool("blocked", decision.Blocked),
		zap.String("reason", decision.Reason),
	)

	if decision.Terminal() {
		return decision
	}

	p := pool.New().WithMaxGoroutines(o.concurrency)
	for _, name := range decision.PendingArtists {
		name := name
		p.Go(func() {
			o.resolveOne(ctx, track, name)
		})
	}
	p.Wait()

	return decision
}

// resolveOne takes a single unknown artist through admission control,
// metadata gathering, identity resolution, and knowledge persistence.
func (o *Orchestrator) resolveOne(ctx context.Context, track domain.Track, name string) {
	// The knowledgebase may have learned this artist since the evaluation
	// that queued it. If so, skip straight to the verdict.
	if artist, err := o.kb.FindArtist(ctx, name); err == nil && artist != nil {
		o.reEvaluate(ctx, track)
		return
	}

	claimed, err := o.cache.TrySetPending(ctx, name)
	if err != nil {
		o.logger.Warn("Pending claim failed, skipping resolution",
			zap.String("artist", name),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		o.logger.Debug("Resolution already in flight or recently settled",
			zap.String("artist", name),
		)
		return
	}

	result, err := o.resolveIdentity(ctx, track, name)
	if err != nil {
		o.logger.Warn("Identity resolution failed",
			zap.String("artist", name),
			zap.Error(err),
		)
		if ferr := o.cache.SetFailed(ctx, name, err.Error()); ferr != nil {
			o.logger.Warn("Failed to record resolution failure", zap.String("artist", name), zap.Error(ferr))
		}
		return
	}
	if result == nil || !result.Usable() {
		if ferr := o.cache.SetFailed(ctx, name, "no usable identity"); ferr != nil {
			o.logger.Warn("Failed to record resolution failure", zap.String("artist", name), zap.Error(ferr))
		}
		return
	}

	if err := o.cache.SetResolved(ctx, name, result); err != nil {
		o.logger.Warn("Failed to store resolved entry", zap.String("artist", name), zap.Error(err))
	}

	// The original query becomes an alias so future lookups hit the
	// knowledgebase directly instead of going through the cache again.
	record := &domain.Artist{
		CanonicalName: result.CanonicalName,
		Aliases:       []string{name},
		CountryCode:   result.CountryCode,
		FlaggedOrigin: result.FlaggedOrigin,
		Provenance:    domain.ProvenanceResolved,
	}
	if _, err := o.kb.UpsertArtist(ctx, record); err != nil {
		o.logger.Error("Failed to persist resolved artist",
			zap.String("artist", name),
			zap.String("canonical", result.CanonicalName),
			zap.Error(err),
		)
		return
	}

	o.logger.Info("Artist identity resolved",
		zap.String("artist", name),
		zap.String("canonical", result.CanonicalName),
		zap.String("country", result.CountryCode),
		zap.Bool("flagged", result.FlaggedOrigin),
	)

	o.reEvaluate(ctx, track)
}

// resolveIdentity gathers metadata and produces a resolution. A hard platform
// signal in the metadata settles the question without consulting the model.
func (o *Orchestrator) resolveIdentity(ctx context.Context, track domain.Track, name string) (*domain.ResolutionResult, error) {
	var artistCtx *domain.ArtistContext
	if o.metadata != nil {
		artistCtx = o.metadata.Lookup(ctx, name)
	}

	if artistCtx != nil && (artistCtx.HasFlaggedPlatform || artistCtx.HasFlaggedContact) {
		o.logger.Info("Hard platform signal, skipping model resolution",
			zap.String("artist", name),
			zap.Bool("flagged_platform", artistCtx.HasFlaggedPlatform),
			zap.Bool("flagged_contact", artistCtx.HasFlaggedContact),
		)
		canonical := name
		if artistCtx.ChannelTitle != "" {
			canonical = artistCtx.ChannelTitle
		}
		return &domain.ResolutionResult{
			CanonicalName: canonical,
			CountryCode:   "RU",
			FlaggedOrigin: true,
		}, nil
	}

	return o.resolver.Resolve(ctx, name, artistCtx, track.Title)
}

// reEvaluate re-runs the pipeline with the enriched knowledgebase. The
// verdict is enforced only if the originating title is still playing; the
// learned knowledge is kept either way.
func (o *Orchestrator) reEvaluate(ctx context.Context, track domain.Track) {
	decision := o.evaluator.Evaluate(ctx, track)

	current := o.NowPlaying()
	if current.Title != track.Title {
		o.logger.Info("Playback moved on, verdict not enforced",
			zap.String("resolved_title", track.Title),
			zap.String("current_title", current.Title),
		)
		return
	}

	if o.sink == nil {
		return
	}
	if err := o.sink.Apply(ctx, track, decision); err != nil {
		o.logger.Warn("Failed to apply decision",
			zap.String("title", track.Title),
			zap.Error(err),
		)
	}
}
