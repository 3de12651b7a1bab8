package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/normalize"
	"go.uber.org/zap"
)

// Knowledge is the knowledgebase surface the pipeline reads from.
// *knowledgebase.Service satisfies it; tests substitute fakes.
type Knowledge interface {
	FindSong(ctx context.Context, title, artistString string) (*domain.Song, error)
	FindArtist(ctx context.Context, name string) (*domain.Artist, error)
	TouchLastSeen(ctx context.Context, artist *domain.Artist)
}

// ModePolicy decides enforcement strength from the artist partition. The
// strict-vs-soft rule has shifted over time, so it stays injectable.
type ModePolicy func(flagged, safe, unknown []string) domain.BlockMode

// AnyFlaggedStrict blocks at full strength as soon as a single flagged
// collaborator appears, closing the featured-artist loophole.
func AnyFlaggedStrict(flagged, safe, unknown []string) domain.BlockMode {
	if len(flagged) > 0 {
		return domain.BlockModeStrict
	}
	return domain.BlockModeNone
}

// Evaluator derives a classification decision for one track. It is stateless
// given its inputs: it reads the knowledgebase and never writes, so repeated
// evaluation without intervening knowledge changes yields the same decision.
type Evaluator struct {
	kb     Knowledge
	policy ModePolicy
	logger *zap.Logger
}

func NewEvaluator(kb Knowledge, policy ModePolicy, logger *zap.Logger) *Evaluator {
	if policy == nil {
		policy = AnyFlaggedStrict
	}
	return &Evaluator{
		kb:     kb,
		policy: policy,
		logger: logger,
	}
}

// Evaluate runs the staged pipeline; the first decisive stage wins.
// Storage errors degrade to "unknown" rather than failing the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, track domain.Track) *domain.Decision {
	if !track.Valid() {
		return &domain.Decision{
			Blocked: false,
			Stage:   domain.StageInput,
			Reason:  "missing title or artist",
		}
	}

	// Stage 1: explicit per-track override
	if decision := e.checkSongOverride(ctx, track); decision != nil {
		return decision
	}

	// Stage 2: language heuristic. Runs before artist resolution because it
	// is cheap and independent of artist identity.
	if normalize.IsUkrainianText(track.Title) {
		return &domain.Decision{
			Blocked: false,
			Stage:   domain.StageLanguage,
			Reason:  "ukrainian characters in title",
		}
	}

	// Stage 3: per-artist knowledgebase check
	return e.checkArtists(ctx, track)
}

func (e *Evaluator) checkSongOverride(ctx context.Context, track domain.Track) *domain.Decision {
	song, err := e.kb.FindSong(ctx, track.Title, track.ArtistString)
	if err != nil {
		e.logger.Warn("Song override lookup degraded to miss", zap.Error(err))
		return nil
	}
	if song == nil {
		return nil
	}

	decision := &domain.Decision{
		Blocked: !song.Allowed,
		Stage:   domain.StageSong,
		Reason:  "explicit song override",
	}
	if decision.Blocked {
		decision.Mode = domain.BlockModeStrict
	}
	return decision
}

func (e *Evaluator) checkArtists(ctx context.Context, track domain.Track) *domain.Decision {
	names := normalize.SplitArtists(track.ArtistString)
	if len(names) == 0 {
		// degenerate credit, treat the whole string as one artist
		if whole := normalize.Artist(track.ArtistString); whole != "" {
			names = []string{whole}
		} else {
			names = []string{strings.ToLower(strings.TrimSpace(track.ArtistString))}
		}
	}

	var flagged, safe, unknown []string
	for _, name := range names {
		artist, err := e.kb.FindArtist(ctx, name)
		if err != nil {
			e.logger.Warn("Artist lookup degraded to unknown",
				zap.String("artist", name),
				zap.Error(err),
			)
			unknown = append(unknown, name)
			continue
		}
		if artist == nil {
			unknown = append(unknown, name)
			continue
		}

		e.kb.TouchLastSeen(ctx, artist)
		if artist.FlaggedOrigin {
			flagged = append(flagged, name)
		} else {
			safe = append(safe, name)
		}
	}

	if len(flagged) > 0 {
		return &domain.Decision{
			Blocked: true,
			Mode:    e.policy(flagged, safe, unknown),
			Stage:   domain.StageArtist,
			Reason:  fmt.Sprintf("flagged origin artists: %s", strings.Join(flagged, ", ")),
		}
	}

	if len(unknown) > 0 {
		return &domain.Decision{
			Blocked:        false,
			Stage:          domain.StagePendingSearch,
			Reason:         "awaiting identity resolution",
			PendingArtists: unknown,
		}
	}

	return &domain.Decision{
		Blocked: false,
		Stage:   domain.StageArtist,
		Reason:  "all artists known and safe",
	}
}
