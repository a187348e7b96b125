package services

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bandlink/internal/platforms"
)

func newTestSonglinkService() *songlinkService {
	return &songlinkService{
		client:  resty.New(),
		apiKey:  "test-key",
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func songlinkLinks(byPlatform map[string]string) map[string]interface{} {
	links := make(map[string]interface{}, len(byPlatform))
	for key, url := range byPlatform {
		links[key] = map[string]string{"entityUniqueId": key + "::1", "url": url}
	}
	return map[string]interface{}{
		"entityUniqueId":  "SPOTIFY_SONG::1",
		"linksByPlatform": links,
	}
}

func TestSonglinkService_Expand(t *testing.T) {
	service := newTestSonglinkService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", songlinkAPIURL,
		httpmock.NewJsonResponderOrPanic(200, songlinkLinks(map[string]string{
			"spotify":    "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
			"deezer":     "https://www.deezer.com/en/track/3135556?utm_source=songlink",
			"appleMusic": "https://music.apple.com/us/album/discovery/697194953?i=697195787",
			"youtube":    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
			"pandora":    "https://www.pandora.com/TR:123456",
		})))

	links, err := service.Expand(context.Background(), ExpandQuery{ISRC: "USRC17607839"})
	require.NoError(t, err)

	assert.Equal(t, "https://www.deezer.com/track/3135556", links[platforms.Deezer],
		"locale segment and tracking params must be stripped")
	assert.Equal(t, "https://music.apple.com/us/song/697195787", links[platforms.AppleMusic],
		"album-with-song URL must normalize to the song URL")
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", links[platforms.YouTube])
	assert.Equal(t, "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh", links[platforms.Spotify])
	assert.Len(t, links, 4, "unknown platform keys are ignored")
}

func TestSonglinkService_Expand_DropsNonDeepLinks(t *testing.T) {
	service := newTestSonglinkService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", songlinkAPIURL,
		httpmock.NewJsonResponderOrPanic(200, songlinkLinks(map[string]string{
			"appleMusic": "https://music.apple.com/us/album/discovery/697194953",
			"soundcloud": "https://soundcloud.com/search?q=test+track",
			"tidal":      "https://tidal.com/browse/track/1766030",
		})))

	links, err := service.Expand(context.Background(), ExpandQuery{ISRC: "USRC17607839"})
	require.NoError(t, err)

	assert.Equal(t, map[platforms.Platform]string{
		platforms.Tidal: "https://tidal.com/browse/track/1766030",
	}, links, "album pages and search pages are not track links")
}

func TestSonglinkService_Expand_UpstreamFailure(t *testing.T) {
	service := newTestSonglinkService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", songlinkAPIURL,
		httpmock.NewStringResponder(429, "rate limited"))

	links, err := service.Expand(context.Background(), ExpandQuery{ISRC: "USRC17607839"})
	require.NoError(t, err, "upstream failure degrades to partial results, never an error")
	assert.Empty(t, links)
}

func TestSonglinkService_Expand_EmptyQuery(t *testing.T) {
	service := newTestSonglinkService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	links, err := service.Expand(context.Background(), ExpandQuery{})
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Zero(t, httpmock.GetTotalCallCount(), "nothing to look up, nothing to call")
}

func TestSonglinkService_Expand_PrefersISRC(t *testing.T) {
	service := newTestSonglinkService()
	httpmock.ActivateNonDefault(service.client.GetClient())
	defer httpmock.DeactivateAndReset()

	var gotQuery url.Values
	httpmock.RegisterResponder("GET", songlinkAPIURL,
		func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query()
			return httpmock.NewJsonResponse(200, songlinkLinks(nil))
		})

	_, err := service.Expand(context.Background(), ExpandQuery{
		ISRC:      "USRC17607839",
		SourceURL: "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
	})
	require.NoError(t, err)

	assert.Equal(t, "USRC17607839", gotQuery.Get("isrc"))
	assert.Empty(t, gotQuery.Get("url"), "ISRC lookup must win over URL lookup")
}
