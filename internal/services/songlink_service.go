package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"bandlink/internal/platforms"
)

// songlinkService implements LinkExpander against the song.link (Odesli)
// aggregation API.
type songlinkService struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

const songlinkAPIURL = "https://api.song.link/v1-alpha.1/links"

// Odesli platform keys mapped onto the closed platform set. Keys the service
// returns that are absent here (pandora, yandex, ...) are ignored.
var songlinkPlatforms = map[string]platforms.Platform{
	"spotify":      platforms.Spotify,
	"appleMusic":   platforms.AppleMusic,
	"youtube":      platforms.YouTube,
	"youtubeMusic": platforms.YouTubeMusic,
	"deezer":       platforms.Deezer,
	"tidal":        platforms.Tidal,
	"amazonMusic":  platforms.AmazonMusic,
	"soundcloud":   platforms.SoundCloud,
	"napster":      platforms.Napster,
}

// NewSonglinkService creates the aggregation expander. ratePerMinute bounds
// outbound calls process-wide; the Odesli API is strict about its limits and
// every expansion (including the verifier's re-resolutions) shares this one
// limiter, which also serializes re-resolution traffic.
func NewSonglinkService(apiKey string, ratePerMinute int) LinkExpander {
	client := resty.New().
		SetTimeout(15 * time.Second)

	return &songlinkService{
		client:  client,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
	}
}

// Expand makes exactly one request per call, preferring ISRC over URL lookup.
// Results that fail the per-platform deep-link shape test are dropped: a
// missing link beats a search-results page. Upstream failures yield an empty
// map — callers treat "nothing resolved" as a normal outcome.
func (s *songlinkService) Expand(ctx context.Context, query ExpandQuery) (map[platforms.Platform]string, error) {
	if query.ISRC == "" && query.SourceURL == "" {
		return map[platforms.Platform]string{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":          s.apiKey,
			"userCountry":  "US",
			"songIfSingle": "true",
		})

	if query.ISRC != "" {
		req.SetQueryParams(map[string]string{
			"platform": "spotify",
			"type":     "song",
			"isrc":     query.ISRC,
		})
	} else {
		req.SetQueryParam("url", query.SourceURL)
	}

	var body songlinkResponse
	resp, err := req.SetResult(&body).Get(songlinkAPIURL)

	if err != nil {
		slog.Warn("song.link request failed", "isrc", query.ISRC, "error", err)
		return map[platforms.Platform]string{}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Warn("song.link returned non-OK status",
			"isrc", query.ISRC, "status", resp.StatusCode())
		return map[platforms.Platform]string{}, nil
	}

	links := make(map[platforms.Platform]string, len(body.LinksByPlatform))
	for key, entry := range body.LinksByPlatform {
		platform, known := songlinkPlatforms[key]
		if !known || entry.URL == "" {
			continue
		}

		normalized := platforms.Normalize(platform, entry.URL)
		if !platforms.IsDeepLink(platform, normalized) {
			slog.Debug("dropping non-deep-link aggregator result",
				"platform", platform, "url", entry.URL)
			continue
		}
		links[platform] = normalized
	}

	return links, nil
}

// song.link API response structures
type songlinkResponse struct {
	EntityUniqueID  string                        `json:"entityUniqueId"`
	LinksByPlatform map[string]songlinkEntry      `json:"linksByPlatform"`
	Entities        map[string]songlinkEntityInfo `json:"entitiesByUniqueId"`
}

type songlinkEntry struct {
	EntityUniqueID string `json:"entityUniqueId"`
	URL            string `json:"url"`
}

type songlinkEntityInfo struct {
	Title        string `json:"title,omitempty"`
	ArtistName   string `json:"artistName,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}
