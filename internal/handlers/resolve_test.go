package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bandlink/internal/handlers"
	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/services"
	"bandlink/internal/testutil"
)

// mockTrackResolver stubs the resolution pipeline behind the handler.
type mockTrackResolver struct {
	mock.Mock
}

func (m *mockTrackResolver) Resolve(ctx context.Context, input string) (*models.Track, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Track), args.Error(1)
}

func (m *mockTrackResolver) ResolveISRC(ctx context.Context, isrc string) (*models.Track, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Track), args.Error(1)
}

func (m *mockTrackResolver) Health(ctx context.Context) map[string]error {
	args := m.Called(ctx)
	return args.Get(0).(map[string]error)
}

func setupResolveRouter(t *testing.T, resolver *mockTrackResolver) *testutil.HTTPTestHelper {
	helper := testutil.NewHTTPTestHelper(t)
	handler := handlers.NewResolveHandler(resolver)
	helper.Router().POST("/api/v1/resolve", handler.Resolve)
	return helper
}

func TestResolveHandler_ByURL(t *testing.T) {
	resolver := &mockTrackResolver{}
	helper := setupResolveRouter(t, resolver)

	track := testutil.NewTrackBuilder().
		WithLink(platforms.Spotify, "https://open.spotify.com/track/"+testutil.TestSpotifyID1, 1.0).
		WithLink(platforms.Deezer, "https://www.deezer.com/track/3135556", 0.9).
		Build()
	input := "https://open.spotify.com/track/" + testutil.TestSpotifyID1
	resolver.On("Resolve", mock.Anything, input).Return(track, nil)

	recorder := helper.PostJSON("/api/v1/resolve", handlers.ResolveRequest{URL: input})

	var resp handlers.ResolveResponse
	helper.AssertJSONResponse(recorder, http.StatusOK, &resp)

	assert.Equal(t, track.ID.Hex(), resp.Track.ID)
	assert.Equal(t, "Test Track", resp.Track.Title)
	assert.Equal(t, map[string]string{
		"spotify": "https://open.spotify.com/track/" + testutil.TestSpotifyID1,
		"deezer":  "https://www.deezer.com/track/3135556",
	}, resp.Links)
}

func TestResolveHandler_ByISRC(t *testing.T) {
	resolver := &mockTrackResolver{}
	helper := setupResolveRouter(t, resolver)

	track := testutil.NewTrackBuilder().Build()
	resolver.On("ResolveISRC", mock.Anything, testutil.TestISRC1).Return(track, nil)

	recorder := helper.PostJSON("/api/v1/resolve", handlers.ResolveRequest{ISRC: testutil.TestISRC1})

	var resp handlers.ResolveResponse
	helper.AssertJSONResponse(recorder, http.StatusOK, &resp)
	assert.Equal(t, testutil.TestISRC1, resp.Track.ISRC)
	resolver.AssertNotCalled(t, "Resolve")
}

func TestResolveHandler_MissingInput(t *testing.T) {
	resolver := &mockTrackResolver{}
	helper := setupResolveRouter(t, resolver)

	recorder := helper.PostJSON("/api/v1/resolve", handlers.ResolveRequest{})
	helper.AssertErrorResponse(recorder, http.StatusBadRequest, "url or isrc")
}

func TestResolveHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad input", fmt.Errorf("parse: %w", services.ErrBadInput), http.StatusBadRequest},
		{"not found", fmt.Errorf("catalog: %w", services.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("spotify: %w", services.ErrUpstream), http.StatusBadGateway},
		{"unknown", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockTrackResolver{}
			helper := setupResolveRouter(t, resolver)

			resolver.On("Resolve", mock.Anything, mock.Anything).Return(nil, tt.err)

			recorder := helper.PostJSON("/api/v1/resolve", handlers.ResolveRequest{URL: "spotify:track:" + testutil.TestSpotifyID1})
			helper.AssertErrorResponse(recorder, tt.wantStatus, "Failed to resolve")
		})
	}
}

func TestResolveHandler_InvalidJSON(t *testing.T) {
	resolver := &mockTrackResolver{}
	helper := setupResolveRouter(t, resolver)

	recorder := helper.PostJSON("/api/v1/resolve", "not an object")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
