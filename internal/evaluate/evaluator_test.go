package evaluate

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

type fakeKnowledge struct {
	artists map[string]*domain.Artist
	songs   map[string]*domain.Song
	touched []string
}

func songKey(title, artistString string) string {
	return title + "|" + artistString
}

func (f *fakeKnowledge) FindSong(_ context.Context, title, artistString string) (*domain.Song, error) {
	if f.songs == nil {
		return nil, nil
	}
	return f.songs[songKey(title, artistString)], nil
}

func (f *fakeKnowledge) FindArtist(_ context.Context, name string) (*domain.Artist, error) {
	if f.artists == nil {
		return nil, nil
	}
	return f.artists[name], nil
}

func (f *fakeKnowledge) TouchLastSeen(_ context.Context, artist *domain.Artist) {
	f.touched = append(f.touched, artist.CanonicalName)
}

func (f *fakeKnowledge) UpsertArtist(_ context.Context, record *domain.Artist) (*domain.Artist, error) {
	if f.artists == nil {
		f.artists = make(map[string]*domain.Artist)
	}
	f.artists[record.CanonicalName] = record
	for _, alias := range record.Aliases {
		f.artists[alias] = record
	}
	return record, nil
}

func newTestEvaluator(kb Knowledge) *Evaluator {
	return NewEvaluator(kb, AnyFlaggedStrict, zap.NewNop())
}

func TestEvaluateInvalidInput(t *testing.T) {
	e := newTestEvaluator(&fakeKnowledge{})

	decision := e.Evaluate(context.Background(), domain.Track{Title: "Shum"})
	if decision.Blocked || decision.Stage != domain.StageInput {
		t.Fatalf("invalid input must be non-blocking at the input stage, got %+v", decision)
	}
}

func TestEvaluateSongOverrideWins(t *testing.T) {
	kb := &fakeKnowledge{
		songs: map[string]*domain.Song{
			songKey("smuglianka", "ensemble"): {Title: "smuglianka", ArtistString: "ensemble", Allowed: false},
		},
		// flagged-free artist entry proves the override short-circuits
		artists: map[string]*domain.Artist{
			"ensemble": {ID: 1, CanonicalName: "ensemble", FlaggedOrigin: false},
		},
	}
	e := newTestEvaluator(kb)

	decision := e.Evaluate(context.Background(), domain.Track{Title: "Smuglianka", ArtistString: "Ensemble"})
	if !decision.Blocked || decision.Stage != domain.StageSong || decision.Mode != domain.BlockModeStrict {
		t.Fatalf("blocked override expected, got %+v", decision)
	}
}

func TestEvaluateUkrainianTitleAllows(t *testing.T) {
	kb := &fakeKnowledge{
		artists: map[string]*domain.Artist{
			"flagged artist": {ID: 1, CanonicalName: "flagged artist", FlaggedOrigin: true},
		},
	}
	e := newTestEvaluator(kb)

	decision := e.Evaluate(context.Background(), domain.Track{Title: "Її любов", ArtistString: "Flagged Artist"})
	if decision.Blocked || decision.Stage != domain.StageLanguage {
		t.Fatalf("ukrainian title must allow before artist checks, got %+v", decision)
	}
}

func TestEvaluateFlaggedCollaboratorBlocks(t *testing.T) {
	kb := &fakeKnowledge{
		artists: map[string]*domain.Artist{
			"safe artist":    {ID: 1, CanonicalName: "safe artist", FlaggedOrigin: false},
			"flagged artist": {ID: 2, CanonicalName: "flagged artist", FlaggedOrigin: true},
		},
	}
	e := newTestEvaluator(kb)

	decision := e.Evaluate(context.Background(), domain.Track{
		Title:        "Some Song",
		ArtistString: "Safe Artist feat. Flagged Artist",
	})
	if !decision.Blocked || decision.Stage != domain.StageArtist {
		t.Fatalf("flagged collaborator must block, got %+v", decision)
	}
	if decision.Mode != domain.BlockModeStrict {
		t.Fatalf("default policy must block strictly, got %q", decision.Mode)
	}
	if !strings.Contains(decision.Reason, "flagged artist") {
		t.Fatalf("reason must name the flagged artist, got %q", decision.Reason)
	}
}

func TestEvaluateUnknownArtistGoesPending(t *testing.T) {
	kb := &fakeKnowledge{
		artists: map[string]*domain.Artist{
			"safe artist": {ID: 1, CanonicalName: "safe artist", FlaggedOrigin: false},
		},
	}
	e := newTestEvaluator(kb)

	decision := e.Evaluate(context.Background(), domain.Track{
		Title:        "Some Song",
		ArtistString: "Safe Artist & New Artist",
	})
	if decision.Blocked || decision.Stage != domain.StagePendingSearch {
		t.Fatalf("unknown artist must defer to resolution, got %+v", decision)
	}
	if !reflect.DeepEqual(decision.PendingArtists, []string{"new artist"}) {
		t.Fatalf("pending list should hold only the unknown artist, got %v", decision.PendingArtists)
	}
	if decision.Terminal() {
		t.Fatal("pending decision must not be terminal")
	}
}

func TestEvaluateAllSafeAllows(t *testing.T) {
	kb := &fakeKnowledge{
		artists: map[string]*domain.Artist{
			"safe artist": {ID: 1, CanonicalName: "safe artist", FlaggedOrigin: false},
		},
	}
	e := newTestEvaluator(kb)

	decision := e.Evaluate(context.Background(), domain.Track{Title: "Some Song", ArtistString: "Safe Artist"})
	if decision.Blocked || decision.Stage != domain.StageArtist || !decision.Terminal() {
		t.Fatalf("known safe artist must allow, got %+v", decision)
	}
	if len(kb.touched) != 1 {
		t.Fatalf("known artist should get a last-seen stamp, touched=%v", kb.touched)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	kb := &fakeKnowledge{
		artists: map[string]*domain.Artist{
			"flagged artist": {ID: 1, CanonicalName: "flagged artist", FlaggedOrigin: true},
		},
	}
	e := newTestEvaluator(kb)
	track := domain.Track{Title: "Some Song", ArtistString: "Flagged Artist"}

	first := e.Evaluate(context.Background(), track)
	second := e.Evaluate(context.Background(), track)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input and knowledge must yield the same decision: %+v vs %+v", first, second)
	}
}
