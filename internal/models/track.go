package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bandlink/internal/platforms"
)

const CurrentSchemaVersion = 1

// Track is the canonical identity of a recording plus its per-platform links.
// Identity fields are written once when the track is first resolved;
// re-resolution produces a fresh identity rather than mutating one in place.
type Track struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchemaVersion int                `bson:"schema_version" json:"schema_version"`

	// Canonical identity
	ISRC       string `bson:"isrc,omitempty" json:"isrc,omitempty"`
	Title      string `bson:"title" json:"title"`
	Artist     string `bson:"artist" json:"artist"`
	Album      string `bson:"album,omitempty" json:"album,omitempty"`
	DurationMs int    `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	ArtworkURL string `bson:"artwork_url,omitempty" json:"artwork_url,omitempty"`

	// Source-of-truth coordinates, unique per track
	SourcePlatform platforms.Platform `bson:"source_platform" json:"source_platform"`
	SourceID       string             `bson:"source_id" json:"source_id"`

	// Per-platform links (embedded, unique per platform)
	Links []PlatformLink `bson:"links" json:"links"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlatformLink is one stored deep link. A link is never deleted: a
// permanently dead link keeps its row with confidence pinned at 0, which
// preserves audit history and the option of future recovery. Absence of a row
// and a low-confidence row are distinct states.
type PlatformLink struct {
	Platform          platforms.Platform `bson:"platform" json:"platform"`
	URL               string             `bson:"url" json:"url"`
	Confidence        float64            `bson:"confidence" json:"confidence"`
	LastCheckedStatus *int               `bson:"last_checked_status,omitempty" json:"last_checked_status,omitempty"`
	LastVerifiedAt    *time.Time         `bson:"last_verified_at,omitempty" json:"last_verified_at,omitempty"`
}

// NewTrack creates a track keyed by its source coordinates.
func NewTrack(sourcePlatform platforms.Platform, sourceID, title, artist string) *Track {
	now := time.Now()
	return &Track{
		SchemaVersion:  CurrentSchemaVersion,
		Title:          title,
		Artist:         artist,
		SourcePlatform: sourcePlatform,
		SourceID:       sourceID,
		Links:          make([]PlatformLink, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpsertLink adds or overwrites the link for a platform. Confidence is
// clamped to [0,1] on every write path.
func (t *Track) UpsertLink(platform platforms.Platform, url string, confidence float64) {
	now := time.Now()
	confidence = ClampConfidence(confidence)

	for i := range t.Links {
		if t.Links[i].Platform == platform {
			t.Links[i].URL = url
			t.Links[i].Confidence = confidence
			t.UpdatedAt = now
			return
		}
	}

	t.Links = append(t.Links, PlatformLink{
		Platform:   platform,
		URL:        url,
		Confidence: confidence,
	})
	t.UpdatedAt = now
}

// Link returns the stored link for a platform, or nil if absent.
func (t *Track) Link(platform platforms.Platform) *PlatformLink {
	for i := range t.Links {
		if t.Links[i].Platform == platform {
			return &t.Links[i]
		}
	}
	return nil
}

// HasPlatform checks whether the track has a link for the platform.
func (t *Track) HasPlatform(platform platforms.Platform) bool {
	return t.Link(platform) != nil
}

// LinkURLs returns the platform→URL map of all stored links.
func (t *Track) LinkURLs() map[platforms.Platform]string {
	urls := make(map[platforms.Platform]string, len(t.Links))
	for _, link := range t.Links {
		urls[link.Platform] = link.URL
	}
	return urls
}

// ClampConfidence bounds a confidence score to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
