package verify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/services"
	"bandlink/internal/testutil"
)

func TestHealthy(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{301, true},
		{308, true},
		{399, true},
		{199, false},
		{404, false},
		{410, false},
		{500, false},
		{TimeoutStatus, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, healthy(tt.status), "status %d", tt.status)
	}
}

func TestProber_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	prober := NewProber(2 * time.Second)
	assert.Equal(t, http.StatusNoContent, prober.Probe(context.Background(), server.URL))
}

func TestProber_Probe_TimeoutSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	prober := NewProber(50 * time.Millisecond)
	assert.Equal(t, TimeoutStatus, prober.Probe(context.Background(), server.URL))
}

func TestProber_Probe_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	prober := NewProber(time.Second)
	assert.Equal(t, TimeoutStatus, prober.Probe(context.Background(), url))
}

// linkCapture records every UpdateLink write for later assertions.
type linkCapture struct {
	mu    sync.Mutex
	links []models.PlatformLink
}

func (c *linkCapture) record(args mock.Arguments) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = append(c.links, args.Get(2).(models.PlatformLink))
}

func (c *linkCapture) byPlatform(p platforms.Platform) *models.PlatformLink {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.links {
		if c.links[i].Platform == p {
			return &c.links[i]
		}
	}
	return nil
}

func TestVerifier_RunBatch_HealthyLinks(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	track := testutil.NewTrackBuilder().
		WithLink(platforms.Spotify, "https://open.spotify.com/track/"+testutil.TestSpotifyID1, 1.0).
		WithLink(platforms.Deezer, "https://www.deezer.com/track/3135556", 0.9).
		Build()

	repo.On("FindStalest", mock.Anything, 10).Return([]*models.Track{track}, nil)
	prober.On("Probe", mock.Anything, mock.Anything).Return(200)

	capture := &linkCapture{}
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).
		Run(capture.record).Return(nil)

	verifier := NewVerifier(repo, resolver, prober, 10, 2)
	result, err := verifier.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{OK: 2}, result)
	resolver.AssertNotCalled(t, "ReResolveLink")

	deezer := capture.byPlatform(platforms.Deezer)
	require.NotNil(t, deezer)
	assert.Equal(t, 0.9, deezer.Confidence, "a healthy probe never changes confidence")
	require.NotNil(t, deezer.LastVerifiedAt)
	require.NotNil(t, deezer.LastCheckedStatus)
	assert.Equal(t, 200, *deezer.LastCheckedStatus)
}

func TestVerifier_RunBatch_RepairsDeadLink(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	oldURL := "https://www.deezer.com/track/999"
	newURL := "https://www.deezer.com/track/3135556"
	track := testutil.NewTrackBuilder().
		WithLink(platforms.Deezer, oldURL, 0.9).
		Build()

	repo.On("FindStalest", mock.Anything, 10).Return([]*models.Track{track}, nil)
	prober.On("Probe", mock.Anything, oldURL).Return(404)
	resolver.On("ReResolveLink", mock.Anything, track, platforms.Deezer).Return(newURL, true)

	capture := &linkCapture{}
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).
		Run(capture.record).Return(nil)

	verifier := NewVerifier(repo, resolver, prober, 10, 1)
	result, err := verifier.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Fixed: 1}, result)

	written := capture.byPlatform(platforms.Deezer)
	require.NotNil(t, written)
	assert.Equal(t, newURL, written.URL)
	assert.Equal(t, services.FreshConfidence, written.Confidence,
		"a repaired link starts over at fresh confidence")
	assert.NotNil(t, written.LastVerifiedAt)
}

func TestVerifier_RunBatch_DecaysWhenNoReplacement(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	url := "https://tidal.com/browse/track/1766030"
	track := testutil.NewTrackBuilder().
		WithLink(platforms.Tidal, url, 0.9).
		Build()

	repo.On("FindStalest", mock.Anything, 10).Return([]*models.Track{track}, nil)
	prober.On("Probe", mock.Anything, url).Return(410)
	resolver.On("ReResolveLink", mock.Anything, track, platforms.Tidal).Return("", false)

	capture := &linkCapture{}
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).
		Run(capture.record).Return(nil)

	verifier := NewVerifier(repo, resolver, prober, 10, 1)
	result, err := verifier.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Dropped: 1}, result)

	written := capture.byPlatform(platforms.Tidal)
	require.NotNil(t, written)
	assert.Equal(t, url, written.URL, "the URL is kept for the next sweep")
	assert.InDelta(t, 0.9-DecayStep, written.Confidence, 1e-9)
	assert.Nil(t, written.LastVerifiedAt, "a failed check never advances the verification clock")
}

func TestVerifier_ConfidenceClampsAtZero(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	url := "https://www.deezer.com/track/999"
	track := testutil.NewTrackBuilder().
		WithLink(platforms.Deezer, url, 0.1).
		Build()

	repo.On("FindStalest", mock.Anything, 10).Return([]*models.Track{track}, nil)
	prober.On("Probe", mock.Anything, url).Return(404)
	resolver.On("ReResolveLink", mock.Anything, track, platforms.Deezer).Return("", false)

	capture := &linkCapture{}
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).
		Run(capture.record).Return(nil)

	verifier := NewVerifier(repo, resolver, prober, 10, 1)
	_, err := verifier.RunBatch(context.Background())
	require.NoError(t, err)

	written := capture.byPlatform(platforms.Deezer)
	require.NotNil(t, written)
	assert.Equal(t, 0.0, written.Confidence)
}

func TestVerifier_Report(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	track := testutil.NewTrackBuilder().
		WithLink(platforms.Deezer, "https://www.deezer.com/track/3135556", 0.9).
		Build()

	repo.On("FindByID", mock.Anything, track.ID.Hex()).Return(track, nil)

	capture := &linkCapture{}
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).
		Run(capture.record).Return(nil)

	verifier := NewVerifier(repo, resolver, prober, 10, 1)
	err := verifier.Report(context.Background(), track.ID.Hex(), platforms.Deezer, "opens wrong song")
	require.NoError(t, err)

	written := capture.byPlatform(platforms.Deezer)
	require.NotNil(t, written)
	assert.InDelta(t, 0.9-ReportPenalty, written.Confidence, 1e-9)
}

func TestVerifier_Report_UnknownLink(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	verifier := NewVerifier(repo, &testutil.MockReResolver{}, &testutil.MockProber{}, 10, 1)

	track := testutil.NewTrackBuilder().Build() // no Tidal link
	repo.On("FindByID", mock.Anything, track.ID.Hex()).Return(track, nil)

	err := verifier.Report(context.Background(), track.ID.Hex(), platforms.Tidal, "")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	repo.AssertNotCalled(t, "UpdateLink")
}

func TestVerifier_Report_UnknownTrack(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	verifier := NewVerifier(repo, &testutil.MockReResolver{}, &testutil.MockProber{}, 10, 1)

	repo.On("FindByID", mock.Anything, testutil.TestTrackID2).Return(nil, nil)

	err := verifier.Report(context.Background(), testutil.TestTrackID2, platforms.Deezer, "")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestVerifier_VerifyTrack_UnknownTrack(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	verifier := NewVerifier(repo, &testutil.MockReResolver{}, &testutil.MockProber{}, 10, 1)

	repo.On("FindByID", mock.Anything, testutil.TestTrackID2).Return(nil, nil)

	_, err := verifier.VerifyTrack(context.Background(), testutil.TestTrackID2)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestVerifier_ReportTriggersVerification(t *testing.T) {
	repo := &testutil.MockTrackRepository{}
	resolver := &testutil.MockReResolver{}
	prober := &testutil.MockProber{}

	track := testutil.NewTrackBuilder().
		WithLink(platforms.Deezer, "https://www.deezer.com/track/3135556", 0.9).
		Build()

	repo.On("FindByID", mock.Anything, track.ID.Hex()).Return(track, nil)
	repo.On("UpdateLink", mock.Anything, track.ID, mock.Anything).Return(nil)
	prober.On("Probe", mock.Anything, mock.Anything).Return(200)

	verifier := NewVerifier(repo, resolver, prober, 10, 1)
	verifier.Start()

	err := verifier.Report(context.Background(), track.ID.Hex(), platforms.Deezer, "stale")
	require.NoError(t, err)

	verifier.Stop() // waits for the queued verification to drain
	prober.AssertCalled(t, "Probe", mock.Anything, "https://www.deezer.com/track/3135556")
}
