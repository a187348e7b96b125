package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"bandlink/internal/platforms"
)

// spotifyService implements IdentityResolver against the Spotify catalog.
type spotifyService struct {
	client      *resty.Client
	tokenSource *clientcredentials.Config
	accessToken string
	tokenExpiry time.Time
	mu          sync.RWMutex
}

// Spotify API endpoints
const (
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifyAPIURL    = "https://api.spotify.com/v1"
	spotifyOEmbedURL = "https://open.spotify.com/oembed"
)

// A token within this window of expiry is refreshed proactively, so
// concurrent callers near expiry never herd on the token endpoint.
const tokenRefreshWindow = 60 * time.Second

// Input shapes accepted by the resolver, tried in fixed priority order:
// bare ID, then URI, then web URL. First match wins.
var (
	spotifyBareIDPattern = regexp.MustCompile(`^([A-Za-z0-9]{22})$`)
	spotifyURIPattern    = regexp.MustCompile(`^spotify:track:([A-Za-z0-9]{22})$`)
	spotifyURLPattern    = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/(?:intl-[a-z]{2}(?:-[A-Za-z]{2})?/)?track/([A-Za-z0-9]{22})(?:[?#].*)?$`)
)

// ParseSpotifyInput extracts the track ID from a bare ID, URI, or web URL.
func ParseSpotifyInput(input string) (string, error) {
	for _, pattern := range []*regexp.Regexp{spotifyBareIDPattern, spotifyURIPattern, spotifyURLPattern} {
		if m := pattern.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
	}
	return "", &PlatformError{
		Platform:  "spotify",
		Operation: "parse_input",
		Message:   "not a track ID, URI, or URL",
		URL:       input,
		Err:       ErrBadInput,
	}
}

// NewSpotifyService creates the canonical identity resolver.
func NewSpotifyService(clientID, clientSecret string) IdentityResolver {
	tokenSource := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(1 * time.Second)

	return &spotifyService{
		client:      client,
		tokenSource: tokenSource,
	}
}

// Resolve fetches the canonical identity for the given input. Falls back to
// the unauthenticated oEmbed endpoint (title/artwork only, no ISRC) when the
// catalog call fails with a non-auth upstream error.
func (s *spotifyService) Resolve(ctx context.Context, input string) (*TrackInfo, error) {
	trackID, err := ParseSpotifyInput(input)
	if err != nil {
		return nil, err
	}

	info, err := s.getTrack(ctx, trackID)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadInput) {
		return nil, err
	}

	slog.Warn("Spotify catalog lookup failed, trying oEmbed fallback",
		"trackID", trackID, "error", err)

	fallback, embedErr := s.getEmbedMetadata(ctx, trackID)
	if embedErr != nil {
		return nil, err // surface the original catalog failure
	}
	return fallback, nil
}

// ResolveISRC finds the catalog entry for an ISRC via the search endpoint.
func (s *spotifyService) ResolveISRC(ctx context.Context, isrc string) (*TrackInfo, error) {
	if err := s.ensureValidToken(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	var searchResult SpotifySearchResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":     "isrc:" + isrc,
			"type":  "track",
			"limit": "1",
		}).
		SetResult(&searchResult).
		Get(fmt.Sprintf("%s/search", spotifyAPIURL))

	if err != nil {
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "search_isrc",
			Message:   "request failed",
			Err:       ErrUpstream,
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "search_isrc",
			Message:   fmt.Sprintf("API returned status %d", resp.StatusCode()),
			Err:       ErrUpstream,
		}
	}

	if len(searchResult.Tracks.Items) == 0 {
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "search_isrc",
			Message:   "no tracks with ISRC " + isrc,
			Err:       ErrNotFound,
		}
	}

	return convertSpotifyTrack(&searchResult.Tracks.Items[0]), nil
}

// Health checks token acquisition against the catalog.
func (s *spotifyService) Health(ctx context.Context) error {
	return s.ensureValidToken(ctx)
}

func (s *spotifyService) getTrack(ctx context.Context, trackID string) (*TrackInfo, error) {
	if err := s.ensureValidToken(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	var spotifyTrack SpotifyTrack
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&spotifyTrack).
		Get(fmt.Sprintf("%s/tracks/%s", spotifyAPIURL, trackID))

	if err != nil {
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "get_track",
			Message:   "request failed",
			Err:       ErrUpstream,
		}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "get_track",
			Message:   "track not found",
			Err:       ErrNotFound,
		}
	case resp.StatusCode() != http.StatusOK:
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "get_track",
			Message:   fmt.Sprintf("API returned status %d", resp.StatusCode()),
			Err:       ErrUpstream,
		}
	}

	return convertSpotifyTrack(&spotifyTrack), nil
}

// getEmbedMetadata queries the public oEmbed endpoint. Sufficient for
// display but never for ISRC-based expansion.
func (s *spotifyService) getEmbedMetadata(ctx context.Context, trackID string) (*TrackInfo, error) {
	trackURL := platforms.Normalize(platforms.Spotify, trackID)

	var embed spotifyOEmbed
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("url", trackURL).
		SetResult(&embed).
		Get(spotifyOEmbedURL)

	if err != nil || resp.StatusCode() != http.StatusOK {
		return nil, &PlatformError{
			Platform:  "spotify",
			Operation: "oembed",
			Message:   "embed metadata unavailable",
			Err:       ErrUpstream,
		}
	}

	return &TrackInfo{
		Platform:   platforms.Spotify,
		ExternalID: trackID,
		URL:        trackURL,
		Title:      embed.Title,
		Artist:     embed.AuthorName,
		ArtworkURL: embed.ThumbnailURL,
	}, nil
}

// ensureValidToken refreshes the app token when missing or inside the
// refresh window. The write lock single-flights the refresh; the process-wide
// token cache is the only state that outlives a request.
func (s *spotifyService) ensureValidToken(ctx context.Context) error {
	s.mu.RLock()
	valid := s.accessToken != "" && time.Until(s.tokenExpiry) > tokenRefreshWindow
	s.mu.RUnlock()
	if valid {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.accessToken != "" && time.Until(s.tokenExpiry) > tokenRefreshWindow {
		return nil
	}

	token, err := s.tokenSource.Token(ctx)
	if err != nil {
		return &PlatformError{
			Platform:  "spotify",
			Operation: "auth",
			Message:   "failed to get access token",
			Err:       ErrUpstream,
		}
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = token.Expiry

	slog.Info("Spotify access token refreshed", "expires_at", token.Expiry)

	return nil
}

func convertSpotifyTrack(track *SpotifyTrack) *TrackInfo {
	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
		for _, a := range track.Artists[1:] {
			artist += ", " + a.Name
		}
	}

	// Prefer a mid-size image for link landing pages.
	var artworkURL string
	if len(track.Album.Images) > 0 {
		artworkURL = track.Album.Images[0].URL
		for _, img := range track.Album.Images {
			if img.Width >= 300 && img.Width <= 640 {
				artworkURL = img.URL
				break
			}
		}
	}

	return &TrackInfo{
		Platform:   platforms.Spotify,
		ExternalID: track.ID,
		URL:        platforms.Normalize(platforms.Spotify, track.ID),
		Title:      track.Name,
		Artist:     artist,
		Album:      track.Album.Name,
		ISRC:       track.ExternalIDs.ISRC,
		DurationMs: track.DurationMs,
		ArtworkURL: artworkURL,
	}
}

// Spotify API response structures
type SpotifyTrack struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Artists     []SpotifyArtist    `json:"artists"`
	Album       SpotifyAlbum       `json:"album"`
	DurationMs  int                `json:"duration_ms"`
	ExternalIDs SpotifyExternalIDs `json:"external_ids"`
}

type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type SpotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type SpotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

type SpotifySearchResult struct {
	Tracks SpotifyTracksPaging `json:"tracks"`
}

type SpotifyTracksPaging struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type spotifyOEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}
