package knowledgebase

import (
	"context"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/normalize"
	"github.com/dkachan/trackwarden/pkg/errors"
	"go.uber.org/zap"
)

// Store is the persistence surface the service needs. *Repository satisfies
// it; tests substitute fakes.
type Store interface {
	FindArtistByName(ctx context.Context, name string) (*domain.Artist, error)
	FindArtistByAlias(ctx context.Context, alias string) (*domain.Artist, error)
	InsertArtist(ctx context.Context, artist *domain.Artist) error
	UpdateArtistAliases(ctx context.Context, id int64, aliases []string) error
	TouchArtistLastSeen(ctx context.Context, id int64, seenAt time.Time) error
	FindSong(ctx context.Context, title, artistString string) (*domain.Song, error)
	InsertSong(ctx context.Context, song *domain.Song) error
}

// Service is the knowledgebase matcher: lookups take raw strings and
// normalize internally, so callers never deal with canonicalization.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// FindSong matches an explicit override by the normalized (title, artist
// string) pair. Exact match only; overrides never participate in fuzzy
// matching.
func (s *Service) FindSong(ctx context.Context, title, artistString string) (*domain.Song, error) {
	normTitle := normalize.Title(title)
	normArtist := normalize.Artist(artistString)
	if normTitle == "" || normArtist == "" {
		return nil, nil
	}

	song, err := s.store.FindSong(ctx, normTitle, normArtist)
	if err != nil {
		s.logger.Warn("Song override lookup failed", zap.String("title", normTitle), zap.Error(err))
		return nil, errors.NewStorageError("song lookup failed", "find", "song", err)
	}
	return song, nil
}

// FindArtist matches a single artist name against canonical names first,
// then alias sets. First match wins; the collection holds no normalized-name
// collisions by invariant.
func (s *Service) FindArtist(ctx context.Context, name string) (*domain.Artist, error) {
	norm := normalize.Artist(name)
	if norm == "" {
		return nil, nil
	}

	artist, err := s.store.FindArtistByName(ctx, norm)
	if err != nil {
		s.logger.Warn("Artist lookup failed", zap.String("name", norm), zap.Error(err))
		return nil, errors.NewStorageError("artist lookup failed", "find", "artist", err)
	}
	if artist != nil {
		return artist, nil
	}

	artist, err = s.store.FindArtistByAlias(ctx, norm)
	if err != nil {
		s.logger.Warn("Artist alias lookup failed", zap.String("name", norm), zap.Error(err))
		return nil, errors.NewStorageError("artist alias lookup failed", "find", "artist", err)
	}
	return artist, nil
}

// UpsertArtist inserts a new record or merges aliases into the existing one.
// On merge every other field of the stored record stays untouched; merging an
// already-known alias is a no-op.
func (s *Service) UpsertArtist(ctx context.Context, record *domain.Artist) (*domain.Artist, error) {
	norm := normalize.Artist(record.CanonicalName)
	if norm == "" {
		return nil, errors.NewValidationError("canonical name must not be empty", "canonicalName", record.CanonicalName)
	}

	aliases := make([]string, 0, len(record.Aliases))
	for _, alias := range record.Aliases {
		if a := normalize.Artist(alias); a != "" && a != norm {
			aliases = append(aliases, a)
		}
	}

	existing, err := s.store.FindArtistByName(ctx, norm)
	if err != nil {
		return nil, errors.NewStorageError("artist upsert lookup failed", "upsert", "artist", err)
	}

	if existing != nil {
		if !existing.MergeAliases(aliases) {
			return existing, nil
		}
		if err := s.store.UpdateArtistAliases(ctx, existing.ID, existing.Aliases); err != nil {
			return nil, errors.NewStorageError("artist alias merge failed", "upsert", "artist", err)
		}
		s.logger.Debug("Artist aliases merged",
			zap.String("artist", existing.CanonicalName),
			zap.Int("aliases", len(existing.Aliases)),
		)
		return existing, nil
	}

	inserted := &domain.Artist{
		CanonicalName: norm,
		Aliases:       aliases,
		CountryCode:   record.CountryCode,
		FlaggedOrigin: record.FlaggedOrigin,
		LastSeenAt:    record.LastSeenAt,
		Provenance:    record.Provenance,
	}
	if inserted.Provenance == "" {
		inserted.Provenance = domain.ProvenanceManual
	}
	if err := s.store.InsertArtist(ctx, inserted); err != nil {
		return nil, errors.NewStorageError("artist insert failed", "upsert", "artist", err)
	}

	s.logger.Info("Artist learned",
		zap.String("artist", inserted.CanonicalName),
		zap.String("country", inserted.CountryCode),
		zap.Bool("flagged", inserted.FlaggedOrigin),
		zap.String("provenance", string(inserted.Provenance)),
	)
	return inserted, nil
}

// TouchLastSeen stamps the artist's last playback encounter. Best effort.
func (s *Service) TouchLastSeen(ctx context.Context, artist *domain.Artist) {
	if artist == nil || artist.ID == 0 {
		return
	}
	seenAt := s.now()
	if err := s.store.TouchArtistLastSeen(ctx, artist.ID, seenAt); err != nil {
		s.logger.Warn("Failed to stamp last_seen_at",
			zap.String("artist", artist.CanonicalName),
			zap.Error(err),
		)
		return
	}
	artist.LastSeenAt = &seenAt
}

// AddSongOverride records an explicit user allow/deny verdict for one track.
func (s *Service) AddSongOverride(ctx context.Context, title, artistString string, allowed bool) (*domain.Song, error) {
	normTitle := normalize.Title(title)
	normArtist := normalize.Artist(artistString)
	if normTitle == "" {
		return nil, errors.NewValidationError("title must not be empty", "title", title)
	}
	if normArtist == "" {
		return nil, errors.NewValidationError("artist must not be empty", "artist", artistString)
	}

	song := &domain.Song{
		Title:        normTitle,
		ArtistString: normArtist,
		Allowed:      allowed,
	}
	if err := s.store.InsertSong(ctx, song); err != nil {
		return nil, errors.NewStorageError("song override insert failed", "insert", "song", err)
	}

	s.logger.Info("Song override recorded",
		zap.String("title", normTitle),
		zap.String("artist", normArtist),
		zap.Bool("allowed", allowed),
	)
	return song, nil
}
