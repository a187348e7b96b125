package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpotifyID = "4iV5W9uYEdYUVa79Axb7Rh"

func TestParseSpotifyInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare track ID",
			input: "4iV5W9uYEdYUVa79Axb7Rh",
			want:  "4iV5W9uYEdYUVa79Axb7Rh",
		},
		{
			name:  "URI scheme",
			input: "spotify:track:4iV5W9uYEdYUVa79Axb7Rh",
			want:  "4iV5W9uYEdYUVa79Axb7Rh",
		},
		{
			name:  "web URL",
			input: "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
			want:  "4iV5W9uYEdYUVa79Axb7Rh",
		},
		{
			name:  "web URL without scheme",
			input: "open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
			want:  "4iV5W9uYEdYUVa79Axb7Rh",
		},
		{
			name:  "web URL with locale and tracking params",
			input: "https://open.spotify.com/intl-de/track/4iV5W9uYEdYUVa79Axb7Rh?si=abc123&utm_source=share",
			want:  "4iV5W9uYEdYUVa79Axb7Rh",
		},
		{
			name:    "album URL rejected",
			input:   "https://open.spotify.com/album/4iV5W9uYEdYUVa79Axb7Rh",
			wantErr: true,
		},
		{
			name:    "ID of wrong length rejected",
			input:   "4iV5W9uYEdYUVa79Axb7R",
			wantErr: true,
		},
		{
			name:    "arbitrary text rejected",
			input:   "not a track at all",
			wantErr: true,
		},
		{
			name:    "empty input rejected",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpotifyInput(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadInput), "parse failures must carry ErrBadInput")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// newTestSpotifyService returns a service with a pre-seeded token so tests
// never hit the token endpoint.
func newTestSpotifyService() *spotifyService {
	return &spotifyService{
		client:      resty.New(),
		accessToken: "test-token",
		tokenExpiry: time.Now().Add(time.Hour),
	}
}

func spotifyTrackJSON(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":   id,
		"name": "Test Track",
		"artists": []map[string]interface{}{
			{"id": "artist1", "name": "First Artist"},
			{"id": "artist2", "name": "Second Artist"},
		},
		"album": map[string]interface{}{
			"id":   "album1",
			"name": "Test Album",
			"images": []map[string]interface{}{
				{"url": "https://i.scdn.co/image/large", "width": 1000, "height": 1000},
				{"url": "https://i.scdn.co/image/medium", "width": 640, "height": 640},
				{"url": "https://i.scdn.co/image/small", "width": 64, "height": 64},
			},
		},
		"duration_ms":  240000,
		"external_ids": map[string]string{"isrc": "USRC17607839"},
	}
}

func TestSpotifyService_Resolve(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/tracks/"+testSpotifyID,
		httpmock.NewJsonResponderOrPanic(200, spotifyTrackJSON(testSpotifyID)))

	info, err := service.Resolve(context.Background(), "spotify:track:"+testSpotifyID)
	require.NoError(t, err)

	assert.Equal(t, testSpotifyID, info.ExternalID)
	assert.Equal(t, "https://open.spotify.com/track/"+testSpotifyID, info.URL)
	assert.Equal(t, "Test Track", info.Title)
	assert.Equal(t, "First Artist, Second Artist", info.Artist)
	assert.Equal(t, "Test Album", info.Album)
	assert.Equal(t, "USRC17607839", info.ISRC)
	assert.Equal(t, 240000, info.DurationMs)
	assert.Equal(t, "https://i.scdn.co/image/medium", info.ArtworkURL, "should prefer mid-size artwork")
}

func TestSpotifyService_Resolve_NotFound(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/tracks/"+testSpotifyID,
		httpmock.NewStringResponder(404, `{"error":{"status":404}}`))
	httpmock.RegisterResponder("GET", spotifyOEmbedURL,
		httpmock.NewJsonResponderOrPanic(200, map[string]string{"title": "ghost"}))

	_, err := service.Resolve(context.Background(), testSpotifyID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	// A definitive 404 must not trigger the oEmbed fallback.
	info := httpmock.GetCallCountInfo()
	assert.Zero(t, info["GET "+spotifyOEmbedURL])
}

func TestSpotifyService_Resolve_OEmbedFallback(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/tracks/"+testSpotifyID,
		httpmock.NewStringResponder(503, "upstream sad"))
	httpmock.RegisterResponder("GET", spotifyOEmbedURL,
		httpmock.NewJsonResponderOrPanic(200, map[string]string{
			"title":         "Fallback Track",
			"author_name":   "Fallback Artist",
			"thumbnail_url": "https://i.scdn.co/image/thumb",
		}))

	info, err := service.Resolve(context.Background(), testSpotifyID)
	require.NoError(t, err)

	assert.Equal(t, "Fallback Track", info.Title)
	assert.Equal(t, "Fallback Artist", info.Artist)
	assert.Equal(t, "https://i.scdn.co/image/thumb", info.ArtworkURL)
	assert.Empty(t, info.ISRC, "oEmbed metadata never includes an ISRC")
}

func TestSpotifyService_Resolve_BadInputSkipsNetwork(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	_, err := service.Resolve(context.Background(), "https://open.spotify.com/playlist/xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadInput))
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestSpotifyService_ResolveISRC(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/search",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"tracks": map[string]interface{}{
				"items": []interface{}{spotifyTrackJSON(testSpotifyID)},
				"total": 1,
			},
		}))

	info, err := service.ResolveISRC(context.Background(), "USRC17607839")
	require.NoError(t, err)
	assert.Equal(t, testSpotifyID, info.ExternalID)
	assert.Equal(t, "USRC17607839", info.ISRC)
}

func TestSpotifyService_ResolveISRC_NoMatch(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/search",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"tracks": map[string]interface{}{"items": []interface{}{}, "total": 0},
		}))

	_, err := service.ResolveISRC(context.Background(), "USRC00000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSpotifyService_ResolveISRC_UpstreamError(t *testing.T) {
	service := newTestSpotifyService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", spotifyAPIURL+"/search",
		httpmock.NewStringResponder(500, "boom"))

	_, err := service.ResolveISRC(context.Background(), "USRC17607839")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}
