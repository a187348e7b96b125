package testutil

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/services"
)

// Stable test identifiers
const (
	TestISRC1      = "USRC17607839"
	TestISRC2      = "GBUM71029604"
	TestSpotifyID1 = "4iV5W9uYEdYUVa79Axb7Rh"
	TestSpotifyID2 = "1301WleyT98MSxVHPZCA6M"
	TestTrackID1   = "507f1f77bcf86cd799439011"
	TestTrackID2   = "507f1f77bcf86cd799439012"
)

// TrackBuilder provides a fluent interface for creating test tracks
type TrackBuilder struct {
	track *models.Track
}

// NewTrackBuilder creates a builder with a Spotify-sourced default track
func NewTrackBuilder() *TrackBuilder {
	track := models.NewTrack(platforms.Spotify, TestSpotifyID1, "Test Track", "Test Artist")
	track.ISRC = TestISRC1
	objID, _ := primitive.ObjectIDFromHex(TestTrackID1)
	track.ID = objID
	return &TrackBuilder{track: track}
}

// WithID sets the track ID
func (b *TrackBuilder) WithID(id string) *TrackBuilder {
	objID, _ := primitive.ObjectIDFromHex(id)
	b.track.ID = objID
	return b
}

// WithTitle sets the track title
func (b *TrackBuilder) WithTitle(title string) *TrackBuilder {
	b.track.Title = title
	return b
}

// WithArtist sets the track artist
func (b *TrackBuilder) WithArtist(artist string) *TrackBuilder {
	b.track.Artist = artist
	return b
}

// WithISRC sets the ISRC code
func (b *TrackBuilder) WithISRC(isrc string) *TrackBuilder {
	b.track.ISRC = isrc
	return b
}

// WithSource sets the source coordinates
func (b *TrackBuilder) WithSource(platform platforms.Platform, sourceID string) *TrackBuilder {
	b.track.SourcePlatform = platform
	b.track.SourceID = sourceID
	return b
}

// WithLink adds a platform link at the given confidence
func (b *TrackBuilder) WithLink(platform platforms.Platform, url string, confidence float64) *TrackBuilder {
	b.track.UpsertLink(platform, url, confidence)
	return b
}

// WithVerifiedLink adds a link that was verified at the given time
func (b *TrackBuilder) WithVerifiedLink(platform platforms.Platform, url string, confidence float64, verifiedAt time.Time) *TrackBuilder {
	b.track.UpsertLink(platform, url, confidence)
	link := b.track.Link(platform)
	status := 200
	link.LastCheckedStatus = &status
	link.LastVerifiedAt = &verifiedAt
	return b
}

// Build returns the constructed track
func (b *TrackBuilder) Build() *models.Track {
	return b.track
}

// NewTestSmartLink creates an active smart link pointing at the given track
func NewTestSmartLink(slug string, trackID primitive.ObjectID) *models.SmartLink {
	now := time.Now()
	return &models.SmartLink{
		ID:        primitive.NewObjectID(),
		Slug:      slug,
		Title:     "Test Smart Link",
		TrackID:   trackID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestTrackInfo creates a resolved Spotify identity for tests
func NewTestTrackInfo() *services.TrackInfo {
	return &services.TrackInfo{
		Platform:   platforms.Spotify,
		ExternalID: TestSpotifyID1,
		URL:        "https://open.spotify.com/track/" + TestSpotifyID1,
		Title:      "Test Track",
		Artist:     "Test Artist",
		Album:      "Test Album",
		ISRC:       TestISRC1,
		DurationMs: 240000,
	}
}
