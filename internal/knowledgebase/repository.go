package knowledgebase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/service/database"
	"go.uber.org/zap"
)

// Repository persists artists and song overrides in PostgreSQL. All name and
// title columns hold normalized strings; normalization happens in the service
// layer above.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(postgres *database.PostgresService, logger *zap.Logger) *Repository {
	return &Repository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artists (
			id BIGSERIAL PRIMARY KEY,
			canonical_name TEXT NOT NULL UNIQUE,
			aliases JSONB NOT NULL DEFAULT '[]',
			country_code TEXT,
			flagged_origin BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen_at TIMESTAMPTZ,
			provenance TEXT NOT NULL DEFAULT 'manual'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artists_aliases ON artists USING gin (aliases)`,
		`CREATE TABLE IF NOT EXISTS songs (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			artist_string TEXT NOT NULL,
			allowed BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (title, artist_string)
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// FindArtistByName retrieves an artist by normalized canonical name
func (r *Repository) FindArtistByName(ctx context.Context, name string) (*domain.Artist, error) {
	query := `
		SELECT id, canonical_name, aliases, country_code, flagged_origin, last_seen_at, provenance
		FROM artists
		WHERE canonical_name = $1
		LIMIT 1
	`
	return r.queryArtist(ctx, query, name)
}

// FindArtistByAlias retrieves an artist whose alias set contains the
// normalized name
func (r *Repository) FindArtistByAlias(ctx context.Context, alias string) (*domain.Artist, error) {
	query := `
		SELECT id, canonical_name, aliases, country_code, flagged_origin, last_seen_at, provenance
		FROM artists
		WHERE aliases ? $1
		LIMIT 1
	`
	return r.queryArtist(ctx, query, alias)
}

func (r *Repository) queryArtist(ctx context.Context, query string, arg any) (*domain.Artist, error) {
	var (
		id            int64
		canonicalName string
		aliasesJSON   []byte
		countryCode   sql.NullString
		flaggedOrigin bool
		lastSeenAt    sql.NullTime
		provenance    string
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &canonicalName, &aliasesJSON, &countryCode, &flaggedOrigin, &lastSeenAt, &provenance,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artist: %w", err)
	}

	return r.scanArtist(id, canonicalName, aliasesJSON, countryCode, flaggedOrigin, lastSeenAt, provenance)
}

// InsertArtist stores a new artist record
func (r *Repository) InsertArtist(ctx context.Context, artist *domain.Artist) error {
	aliasesJSON, err := json.Marshal(artist.Aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}
	if artist.Aliases == nil {
		aliasesJSON = []byte("[]")
	}

	query := `
		INSERT INTO artists (canonical_name, aliases, country_code, flagged_origin, last_seen_at, provenance)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		artist.CanonicalName, aliasesJSON, artist.CountryCode,
		artist.FlaggedOrigin, artist.LastSeenAt, string(artist.Provenance),
	).Scan(&artist.ID)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// UpdateArtistAliases replaces the alias set of an existing record. Merging
// is idempotent and additive, so last-writer-wins here is acceptable.
func (r *Repository) UpdateArtistAliases(ctx context.Context, id int64, aliases []string) error {
	if aliases == nil {
		aliases = []string{}
	}
	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE artists SET aliases = $2 WHERE id = $1`, id, aliasesJSON); err != nil {
		return fmt.Errorf("failed to update artist aliases: %w", err)
	}
	return nil
}

// TouchArtistLastSeen stamps the last playback encounter
func (r *Repository) TouchArtistLastSeen(ctx context.Context, id int64, seenAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE artists SET last_seen_at = $2 WHERE id = $1`, id, seenAt); err != nil {
		return fmt.Errorf("failed to touch artist last_seen_at: %w", err)
	}
	return nil
}

// FindSong retrieves an explicit override by normalized (title, artist) pair
func (r *Repository) FindSong(ctx context.Context, title, artistString string) (*domain.Song, error) {
	query := `
		SELECT id, title, artist_string, allowed, created_at
		FROM songs
		WHERE title = $1 AND artist_string = $2
		LIMIT 1
	`

	var song domain.Song
	err := r.db.QueryRowContext(ctx, query, title, artistString).Scan(
		&song.ID, &song.Title, &song.ArtistString, &song.Allowed, &song.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song override: %w", err)
	}

	return &song, nil
}

// InsertSong stores an explicit override, replacing a previous verdict for
// the same pair
func (r *Repository) InsertSong(ctx context.Context, song *domain.Song) error {
	query := `
		INSERT INTO songs (title, artist_string, allowed)
		VALUES ($1, $2, $3)
		ON CONFLICT (title, artist_string) DO UPDATE SET allowed = EXCLUDED.allowed
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, song.Title, song.ArtistString, song.Allowed).
		Scan(&song.ID, &song.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert song override: %w", err)
	}
	return nil
}

// ListArtists returns all artist records (diagnostics and export)
func (r *Repository) ListArtists(ctx context.Context) ([]*domain.Artist, error) {
	query := `
		SELECT id, canonical_name, aliases, country_code, flagged_origin, last_seen_at, provenance
		FROM artists
		ORDER BY canonical_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*domain.Artist
	for rows.Next() {
		var (
			id            int64
			canonicalName string
			aliasesJSON   []byte
			countryCode   sql.NullString
			flaggedOrigin bool
			lastSeenAt    sql.NullTime
			provenance    string
		)

		if err := rows.Scan(&id, &canonicalName, &aliasesJSON, &countryCode,
			&flaggedOrigin, &lastSeenAt, &provenance); err != nil {
			r.logger.Warn("Failed to scan artist row", zap.Error(err))
			continue
		}

		artist, err := r.scanArtist(id, canonicalName, aliasesJSON, countryCode, flaggedOrigin, lastSeenAt, provenance)
		if err != nil {
			r.logger.Warn("Failed to parse artist", zap.String("name", canonicalName), zap.Error(err))
			continue
		}
		artists = append(artists, artist)
	}

	return artists, rows.Err()
}

func (r *Repository) scanArtist(
	id int64,
	canonicalName string,
	aliasesJSON []byte,
	countryCode sql.NullString,
	flaggedOrigin bool,
	lastSeenAt sql.NullTime,
	provenance string,
) (*domain.Artist, error) {
	var aliases []string
	if len(aliasesJSON) > 0 {
		if err := json.Unmarshal(aliasesJSON, &aliases); err != nil {
			return nil, fmt.Errorf("failed to unmarshal aliases: %w", err)
		}
	}

	artist := &domain.Artist{
		ID:            id,
		CanonicalName: canonicalName,
		Aliases:       aliases,
		FlaggedOrigin: flaggedOrigin,
		Provenance:    domain.Provenance(provenance),
	}

	if countryCode.Valid {
		artist.CountryCode = countryCode.String
	}
	if lastSeenAt.Valid {
		seenAt := lastSeenAt.Time
		artist.LastSeenAt = &seenAt
	}

	return artist, nil
}
