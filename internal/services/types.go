package services

import (
	"context"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
)

// TrackInfo is the canonical identity of a track as reported by the
// source-of-truth catalog. It is a pure value: resolving never persists.
type TrackInfo struct {
	Platform   platforms.Platform `json:"platform"`
	ExternalID string             `json:"external_id"`
	URL        string             `json:"url"`

	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}

// ToTrack converts resolved identity into a new Track document.
func (t *TrackInfo) ToTrack() *models.Track {
	track := models.NewTrack(t.Platform, t.ExternalID, t.Title, t.Artist)
	track.Album = t.Album
	track.ISRC = t.ISRC
	track.DurationMs = t.DurationMs
	track.ArtworkURL = t.ArtworkURL
	return track
}

// IdentityResolver turns raw user input into a canonical track identity.
type IdentityResolver interface {
	// Resolve accepts a bare 22-character ID, a spotify:track: URI, or a
	// web URL. ErrBadInput on parse failure, ErrNotFound when the catalog
	// has no such track.
	Resolve(ctx context.Context, input string) (*TrackInfo, error)

	// ResolveISRC finds the catalog entry for an ISRC. ErrNotFound when
	// the catalog has no recording under that code.
	ResolveISRC(ctx context.Context, isrc string) (*TrackInfo, error)

	// Health checks catalog reachability (token acquisition).
	Health(ctx context.Context) error
}

// ExpandQuery identifies the track to expand. ISRC is preferred when present;
// SourceURL is the fallback join key.
type ExpandQuery struct {
	ISRC      string
	SourceURL string
}

// LinkExpander maps one canonical identity to per-platform deep links.
// Implementations must only return URLs that pass the platform's deep-link
// shape test; "nothing resolved" is an empty map, not an error.
type LinkExpander interface {
	Expand(ctx context.Context, query ExpandQuery) (map[platforms.Platform]string, error)
}

// Confidence assigned to a link that was just produced by resolution or
// re-resolution. Freshly derived from the canonical identity, so trusted
// high but below the source link's 1.0.
const FreshConfidence = 0.9

// SourceConfidence is the confidence of the source platform's own link,
// which is correct by construction.
const SourceConfidence = 1.0
