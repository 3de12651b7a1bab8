package metadata

import (
	"context"
	"fmt"

	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const searchMaxResults = 5

// YouTubeClient looks up artist channels through the YouTube Data API.
// API-key access only; search.list is expensive (100 quota units) so results
// are cached by the service layer.
type YouTubeClient struct {
	service *youtube.Service
	logger  *zap.Logger
}

func NewYouTubeClient(apiKey string, logger *zap.Logger) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	logger.Info("YouTube metadata client initialized")

	return &YouTubeClient{
		service: service,
		logger:  logger,
	}, nil
}

// SearchChannels returns channel candidates matching an artist name.
func (yt *YouTubeClient) SearchChannels(ctx context.Context, query string) ([]domain.ChannelCandidate, error) {
	call := yt.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(searchMaxResults).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		yt.logger.Warn("YouTube channel search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	candidates := make([]domain.ChannelCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.ChannelId == "" || item.Snippet == nil {
			continue
		}
		candidates = append(candidates, domain.ChannelCandidate{
			ID:    item.Id.ChannelId,
			Title: item.Snippet.ChannelTitle,
		})
	}

	yt.logger.Debug("YouTube channel search",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// FetchChannelContext loads descriptive metadata for one channel.
func (yt *YouTubeClient) FetchChannelContext(ctx context.Context, channelID string) (*domain.ArtistContext, error) {
	call := yt.service.Channels.List([]string{"snippet"}).
		Id(channelID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		yt.logger.Warn("YouTube channel fetch failed", zap.String("channel_id", channelID), zap.Error(err))
		return nil, err
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, nil
	}

	snippet := resp.Items[0].Snippet
	artistCtx := &domain.ArtistContext{
		ChannelID:       channelID,
		ChannelTitle:    snippet.Title,
		Description:     snippet.Description,
		DeclaredCountry: snippet.Country,
		Links:           extractLinks(snippet.Description),
	}

	return artistCtx, nil
}
