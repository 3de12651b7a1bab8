package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dkachan/trackwarden/internal/domain"
	"go.uber.org/zap"
)

const (
	lastFMBaseURL  = "https://www.last.fm/music"
	scraperTimeout = 15 * time.Second
)

// Scraper is the fallback metadata source when no YouTube API key is
// configured or the API call fails: it scrapes the artist's Last.fm page for
// bio text and external links.
type Scraper struct {
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string
}

func NewScraper(logger *zap.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: scraperTimeout,
		},
		logger:  logger,
		baseURL: lastFMBaseURL,
	}
}

// FetchArtistContext scrapes descriptive metadata for an artist name.
func (s *Scraper) FetchArtistContext(ctx context.Context, artistName string) (*domain.ArtistContext, error) {
	pageURL := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(artistName))

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TrackWarden/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	artistCtx := &domain.ArtistContext{}

	if bio := strings.TrimSpace(doc.Find(".wiki-block-inner-2").First().Text()); bio != "" {
		artistCtx.Description = bio
	}
	if artistCtx.Description == "" {
		if og, exists := doc.Find(`meta[property="og:description"]`).Attr("content"); exists {
			artistCtx.Description = strings.TrimSpace(og)
		}
	}

	doc.Find(".external-links a, .resource-external-links a").Each(func(i int, sel *goquery.Selection) {
		if href, exists := sel.Attr("href"); exists && strings.HasPrefix(href, "http") {
			artistCtx.Links = append(artistCtx.Links, href)
		}
	})
	artistCtx.Links = append(artistCtx.Links, extractLinks(artistCtx.Description)...)

	if artistCtx.Empty() {
		s.logger.Debug("Scraper found no usable metadata", zap.String("artist", artistName))
		return nil, nil
	}

	s.logger.Debug("Scraper fetched artist page",
		zap.String("artist", artistName),
		zap.Int("links", len(artistCtx.Links)),
		zap.Int("description_len", len(artistCtx.Description)),
	)
	return artistCtx, nil
}
