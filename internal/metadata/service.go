package metadata

import (
	"context"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/normalize"
	"github.com/dkachan/trackwarden/internal/resolver"
	"github.com/dkachan/trackwarden/internal/service/cache"
	"go.uber.org/zap"
)

const (
	metadataCacheKeyPrefix = "meta:artist:"
	metadataCacheTTL       = 30 * time.Minute
)

// Service gathers contextual metadata for an unknown artist: YouTube channel
// lookup first, Last.fm scrape as fallback, results cached. Lookup is
// best-effort by contract; every failure degrades to "no context".
type Service struct {
	youtube *YouTubeClient
	scraper *Scraper
	cache   *cache.CacheService
	logger  *zap.Logger
}

func NewService(youtube *YouTubeClient, scraper *Scraper, cacheSvc *cache.CacheService, logger *zap.Logger) *Service {
	return &Service{
		youtube: youtube,
		scraper: scraper,
		cache:   cacheSvc,
		logger:  logger,
	}
}

// Lookup returns descriptive context for an artist name, or nil when nothing
// could be gathered. Never returns an error.
func (s *Service) Lookup(ctx context.Context, artistName string) *domain.ArtistContext {
	norm := normalize.Artist(artistName)
	if norm == "" {
		return nil
	}

	cacheKey := metadataCacheKeyPrefix + norm
	if s.cache != nil {
		var cached domain.ArtistContext
		if found, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			s.logger.Debug("Metadata cache hit", zap.String("artist", norm))
			return &cached
		}
	}

	artistCtx := s.fetch(ctx, artistName)
	if artistCtx == nil {
		return nil
	}

	s.applyFlags(artistCtx)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, artistCtx, metadataCacheTTL); err != nil {
			s.logger.Warn("Failed to cache artist metadata", zap.String("artist", norm), zap.Error(err))
		}
	}

	return artistCtx
}

func (s *Service) fetch(ctx context.Context, artistName string) *domain.ArtistContext {
	if s.youtube != nil {
		candidates, err := s.youtube.SearchChannels(ctx, artistName)
		if err == nil && len(candidates) > 0 {
			candidate := resolver.PickCandidate(artistName, candidates)
			artistCtx, err := s.youtube.FetchChannelContext(ctx, candidate.ID)
			if err == nil && !artistCtx.Empty() {
				return artistCtx
			}
		}
	}

	if s.scraper != nil {
		artistCtx, err := s.scraper.FetchArtistContext(ctx, artistName)
		if err != nil {
			s.logger.Debug("Metadata scrape failed", zap.String("artist", artistName), zap.Error(err))
			return nil
		}
		return artistCtx
	}

	return nil
}

func (s *Service) applyFlags(artistCtx *domain.ArtistContext) {
	artistCtx.HasFlaggedPlatform = hasFlaggedPlatformLink(artistCtx.Links)
	artistCtx.HasFlaggedContact = hasFlaggedContact(artistCtx.Description)

	if artistCtx.HasFlaggedPlatform || artistCtx.HasFlaggedContact {
		s.logger.Info("Hard origin signal in artist metadata",
			zap.String("channel", artistCtx.ChannelTitle),
			zap.Bool("flagged_platform", artistCtx.HasFlaggedPlatform),
			zap.Bool("flagged_contact", artistCtx.HasFlaggedContact),
		)
	}
}
