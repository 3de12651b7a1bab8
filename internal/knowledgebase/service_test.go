package knowledgebase

import (
	"context"
	"testing"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

type fakeStore struct {
	artists []*domain.Artist
	songs   []*domain.Song
	nextID  int64
}

func (f *fakeStore) FindArtistByName(_ context.Context, name string) (*domain.Artist, error) {
	for _, a := range f.artists {
		if a.CanonicalName == name {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindArtistByAlias(_ context.Context, alias string) (*domain.Artist, error) {
	for _, a := range f.artists {
		if a.HasAlias(alias) {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertArtist(_ context.Context, artist *domain.Artist) error {
	f.nextID++
	artist.ID = f.nextID
	f.artists = append(f.artists, artist)
	return nil
}

func (f *fakeStore) UpdateArtistAliases(_ context.Context, id int64, aliases []string) error {
	for _, a := range f.artists {
		if a.ID == id {
			a.Aliases = aliases
			return nil
		}
	}
	return nil
}

func (f *fakeStore) TouchArtistLastSeen(_ context.Context, id int64, _ time.Time) error {
	return nil
}

func (f *fakeStore) FindSong(_ context.Context, title, artistString string) (*domain.Song, error) {
	for _, s := range f.songs {
		if s.Title == title && s.ArtistString == artistString {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertSong(_ context.Context, song *domain.Song) error {
	f.songs = append(f.songs, song)
	return nil
}

func TestFindArtistNormalizesAndChecksAliases(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := NewService(store, zap.NewNop())

	if _, err := svc.UpsertArtist(ctx, &domain.Artist{
		CanonicalName: "Океан Ельзи",
		Aliases:       []string{"Okean Elzy"},
		CountryCode:   "UA",
	}); err != nil {
		t.Fatalf("UpsertArtist failed: %v", err)
	}

	byName, err := svc.FindArtist(ctx, "  ОКЕАН ЕЛЬЗИ ")
	if err != nil || byName == nil {
		t.Fatalf("lookup by canonical name failed: artist=%v err=%v", byName, err)
	}

	byAlias, err := svc.FindArtist(ctx, "Okean Elzy")
	if err != nil || byAlias == nil {
		t.Fatalf("lookup by alias failed: artist=%v err=%v", byAlias, err)
	}
	if byAlias.CanonicalName != byName.CanonicalName {
		t.Fatalf("alias lookup returned a different artist: %q vs %q", byAlias.CanonicalName, byName.CanonicalName)
	}
}

func TestUpsertArtistMergesAliases(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := NewService(store, zap.NewNop())

	first, err := svc.UpsertArtist(ctx, &domain.Artist{
		CanonicalName: "Monatik",
		Aliases:       []string{"MONATIK Official"},
		FlaggedOrigin: false,
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := svc.UpsertArtist(ctx, &domain.Artist{
		CanonicalName: "MONATIK",
		Aliases:       []string{"monatik - topic"},
		FlaggedOrigin: true, // must not overwrite the stored record
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("second upsert created a new record: id %d vs %d", second.ID, first.ID)
	}
	if second.FlaggedOrigin {
		t.Fatal("merge must not overwrite existing fields")
	}
	if !second.HasAlias("monatik official") || !second.HasAlias("monatik - topic") {
		t.Fatalf("aliases not merged: %v", second.Aliases)
	}

	// merging the same alias again is a no-op
	third, err := svc.UpsertArtist(ctx, &domain.Artist{
		CanonicalName: "Monatik",
		Aliases:       []string{"monatik - topic"},
	})
	if err != nil {
		t.Fatalf("third upsert failed: %v", err)
	}
	if len(third.Aliases) != 2 {
		t.Fatalf("duplicate alias changed the set: %v", third.Aliases)
	}
}

func TestUpsertArtistRejectsEmptyCanonicalName(t *testing.T) {
	svc := NewService(&fakeStore{}, zap.NewNop())
	if _, err := svc.UpsertArtist(context.Background(), &domain.Artist{CanonicalName: "   "}); err == nil {
		t.Fatal("expected validation error for empty canonical name")
	}
}

func TestSongOverrideRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := NewService(store, zap.NewNop())

	if _, err := svc.AddSongOverride(ctx, "Smuglianka (Remastered)", "Unknown Ensemble", false); err != nil {
		t.Fatalf("AddSongOverride failed: %v", err)
	}

	song, err := svc.FindSong(ctx, "SMUGLIANKA", "unknown ensemble")
	if err != nil {
		t.Fatalf("FindSong failed: %v", err)
	}
	if song == nil || song.Allowed {
		t.Fatalf("expected blocked override, got %+v", song)
	}
}
