package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bandlink/internal/cache"
	"bandlink/internal/models"
	"bandlink/internal/platforms"
)

// cachedTrackRepository wraps a TrackRepository with a read-through cache on
// the hot lookup paths (by ID and by source coordinates). Write paths
// invalidate; the verifier's UpdateLink goes through here so a repaired URL
// is visible on the next redirect.
type cachedTrackRepository struct {
	repository TrackRepository
	cache      cache.Cache
}

// NewCachedTrackRepository creates a new cached track repository
func NewCachedTrackRepository(repository TrackRepository, c cache.Cache) TrackRepository {
	return &cachedTrackRepository{
		repository: repository,
		cache:      c,
	}
}

func trackIDKey(id string) string { return "track:id:" + id }

func (r *cachedTrackRepository) Save(ctx context.Context, track *models.Track) error {
	if err := r.repository.Save(ctx, track); err != nil {
		return err
	}
	r.invalidate(ctx, track)
	return nil
}

func (r *cachedTrackRepository) Update(ctx context.Context, track *models.Track) error {
	if err := r.repository.Update(ctx, track); err != nil {
		return err
	}
	r.invalidate(ctx, track)
	return nil
}

func (r *cachedTrackRepository) FindByID(ctx context.Context, id string) (*models.Track, error) {
	cacheKey := trackIDKey(id)

	if cached := r.getCached(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	track, err := r.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.setCached(ctx, cacheKey, track)
	return track, nil
}

func (r *cachedTrackRepository) FindBySource(ctx context.Context, platform platforms.Platform, sourceID string) (*models.Track, error) {
	cacheKey := cache.TrackKey(platform, sourceID)

	if cached := r.getCached(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	track, err := r.repository.FindBySource(ctx, platform, sourceID)
	if err != nil {
		return nil, err
	}
	r.setCached(ctx, cacheKey, track)
	return track, nil
}

// FindByISRC is not cached: it only runs inside resolution, which is already
// gated by the source-coordinate lookup.
func (r *cachedTrackRepository) FindByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	return r.repository.FindByISRC(ctx, isrc)
}

// FindStalest always reads through: the verifier needs current timestamps.
func (r *cachedTrackRepository) FindStalest(ctx context.Context, limit int) ([]*models.Track, error) {
	return r.repository.FindStalest(ctx, limit)
}

func (r *cachedTrackRepository) UpdateLink(ctx context.Context, trackID primitive.ObjectID, link models.PlatformLink) error {
	if err := r.repository.UpdateLink(ctx, trackID, link); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, trackIDKey(trackID.Hex())); err != nil {
		slog.Warn("Failed to invalidate track cache", "trackID", trackID.Hex(), "error", err)
	}
	// The source-coordinate entry holds the same document.
	track, err := r.repository.FindByID(ctx, trackID.Hex())
	if err == nil && track != nil {
		r.invalidate(ctx, track)
	}
	return nil
}

func (r *cachedTrackRepository) Count(ctx context.Context) (int64, error) {
	return r.repository.Count(ctx)
}

func (r *cachedTrackRepository) getCached(ctx context.Context, key string) *models.Track {
	data, err := r.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var track models.Track
	if err := json.Unmarshal(data, &track); err != nil {
		slog.Warn("Failed to unmarshal cached track", "key", key, "error", err)
		return nil
	}
	return &track
}

func (r *cachedTrackRepository) setCached(ctx context.Context, key string, track *models.Track) {
	if track == nil {
		return
	}
	data, err := json.Marshal(track)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, cache.TrackTTL); err != nil {
		slog.Warn("Failed to cache track", "key", key, "error", err)
	}
}

func (r *cachedTrackRepository) invalidate(ctx context.Context, track *models.Track) {
	keys := []string{
		trackIDKey(track.ID.Hex()),
		cache.TrackKey(track.SourcePlatform, track.SourceID),
	}
	for _, key := range keys {
		if err := r.cache.Delete(ctx, key); err != nil {
			slog.Warn("Failed to invalidate track cache", "key", key, "error", err)
		}
	}
}
