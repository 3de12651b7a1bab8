package resolver

import (
	"context"
	"strings"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/normalize"
	"github.com/dkachan/trackwarden/internal/prompt"
	"github.com/dkachan/trackwarden/pkg/errors"
	"go.uber.org/zap"
)

// Verdicts below this confidence are discarded as "no result".
const minConfidence = 0.5

// JSONGenerator is the model surface the resolver needs. *ModelManager
// satisfies it; tests substitute fakes.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, dest any, opts *GenerateOptions) (*GenerateMetadata, error)
}

// Service is the identity resolver: best-effort origin classification of an
// unknown artist name with optional channel context.
type Service struct {
	models JSONGenerator
	logger *zap.Logger
}

func NewService(models JSONGenerator, logger *zap.Logger) *Service {
	return &Service{
		models: models,
		logger: logger,
	}
}

type rawVerdict struct {
	CanonicalName      string  `json:"canonicalName"`
	CountryCode        *string `json:"countryCode"`
	FlaggedOrigin      bool    `json:"flaggedOrigin"`
	TitleLanguageMatch bool    `json:"titleLanguageMatch"`
	Confidence         float64 `json:"confidence"`
}

// Resolve classifies one artist. A nil result with nil error means the model
// could not identify the artist; callers treat it like a failed attempt.
func (s *Service) Resolve(ctx context.Context, artistName string, artistCtx *domain.ArtistContext, songTitle string) (*domain.ResolutionResult, error) {
	if strings.TrimSpace(artistName) == "" {
		return nil, errors.NewValidationError("artist name must not be empty", "artistName", artistName)
	}

	originPrompt := prompt.BuildOriginPrompt(artistName, artistCtx, songTitle)

	var verdict rawVerdict
	metadata, err := s.models.GenerateJSON(ctx, originPrompt, &verdict, nil)
	if err != nil {
		return nil, errors.NewResolverError("origin resolution failed", artistName, err)
	}

	if strings.TrimSpace(verdict.CanonicalName) == "" {
		s.logger.Info("Resolver returned no identity",
			zap.String("query", artistName),
			zap.String("provider", metadata.Provider),
		)
		return nil, nil
	}

	if verdict.Confidence > 0 && verdict.Confidence < minConfidence {
		s.logger.Info("Resolver verdict below confidence threshold",
			zap.String("query", artistName),
			zap.String("candidate", verdict.CanonicalName),
			zap.Float64("confidence", verdict.Confidence),
		)
		return nil, nil
	}

	result := &domain.ResolutionResult{
		CanonicalName:      verdict.CanonicalName,
		FlaggedOrigin:      verdict.FlaggedOrigin,
		TitleLanguageMatch: verdict.TitleLanguageMatch,
	}
	if verdict.CountryCode != nil {
		result.CountryCode = strings.ToUpper(strings.TrimSpace(*verdict.CountryCode))
	}

	s.logger.Info("Artist resolved",
		zap.String("query", artistName),
		zap.String("canonical", result.CanonicalName),
		zap.String("country", result.CountryCode),
		zap.Bool("flagged", result.FlaggedOrigin),
		zap.String("provider", metadata.Provider),
		zap.Bool("used_fallback", metadata.UsedFallback),
	)

	return result, nil
}

// Suffixes that mark auto-generated or self-titled channel variants.
var channelSuffixes = []string{" - topic", " official", " channel", " music", " tv"}

// PickCandidate disambiguates multiple channel candidates for an artist name:
// exact name match, then suffixed channel variant, then prefix match, then
// the first candidate.
func PickCandidate(artistName string, candidates []domain.ChannelCandidate) *domain.ChannelCandidate {
	if len(candidates) == 0 {
		return nil
	}

	norm := normalize.Artist(artistName)
	if norm == "" {
		return &candidates[0]
	}

	for i := range candidates {
		if normalize.Artist(candidates[i].Title) == norm {
			return &candidates[i]
		}
	}

	for i := range candidates {
		title := normalize.Artist(candidates[i].Title)
		for _, suffix := range channelSuffixes {
			if title == norm+suffix {
				return &candidates[i]
			}
		}
	}

	for i := range candidates {
		if strings.HasPrefix(normalize.Artist(candidates[i].Title), norm) {
			return &candidates[i]
		}
	}

	return &candidates[0]
}
