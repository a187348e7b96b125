package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
)

// TrackRepository defines the interface for track and link persistence.
type TrackRepository interface {
	// Create and update
	Save(ctx context.Context, track *models.Track) error
	Update(ctx context.Context, track *models.Track) error

	// Find operations
	FindByID(ctx context.Context, id string) (*models.Track, error)
	FindBySource(ctx context.Context, platform platforms.Platform, sourceID string) (*models.Track, error)
	FindByISRC(ctx context.Context, isrc string) (*models.Track, error)

	// FindStalest returns up to limit tracks ordered by the age of their
	// least-recently-verified link, never-verified first. This bounds
	// worst-case staleness for the verification sweep.
	FindStalest(ctx context.Context, limit int) ([]*models.Track, error)

	// UpdateLink overwrites a single (track, platform) link in place.
	// Updates are idempotent last-write-wins; no cross-row transaction.
	UpdateLink(ctx context.Context, trackID primitive.ObjectID, link models.PlatformLink) error

	// Maintenance
	Count(ctx context.Context) (int64, error)
}

// SmartLinkRepository reads the user-facing composite records. Writes happen
// in the dashboard service; this side only bumps the click counter.
type SmartLinkRepository interface {
	Save(ctx context.Context, link *models.SmartLink) error
	FindBySlug(ctx context.Context, slug string) (*models.SmartLink, error)
	IncrementClicks(ctx context.Context, id primitive.ObjectID) error
}
