package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
)

// mongoTrackRepository implements TrackRepository using MongoDB
type mongoTrackRepository struct {
	collection *mongo.Collection
}

// NewMongoTrackRepository creates a new MongoDB-backed track repository
func NewMongoTrackRepository(db *models.Database) TrackRepository {
	return &mongoTrackRepository{
		collection: db.DB.Collection("tracks"),
	}
}

// Save creates a new track or replaces an existing one
func (r *mongoTrackRepository) Save(ctx context.Context, track *models.Track) error {
	track.SchemaVersion = models.CurrentSchemaVersion
	track.UpdatedAt = time.Now()

	if track.ID.IsZero() {
		track.CreatedAt = time.Now()
		result, err := r.collection.InsertOne(ctx, track)
		if err != nil {
			return fmt.Errorf("failed to insert track: %w", err)
		}
		track.ID = result.InsertedID.(primitive.ObjectID)
		return nil
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": track.ID}, track)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return nil
}

// Update updates an existing track
func (r *mongoTrackRepository) Update(ctx context.Context, track *models.Track) error {
	if track.ID.IsZero() {
		return fmt.Errorf("track ID is required for update")
	}

	track.UpdatedAt = time.Now()
	track.SchemaVersion = models.CurrentSchemaVersion

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": track.ID}, track)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return nil
}

// FindByID finds a track by its ObjectID
func (r *mongoTrackRepository) FindByID(ctx context.Context, id string) (*models.Track, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid object ID: %w", err)
	}

	var track models.Track
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&track)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find track by ID: %w", err)
	}

	return &track, nil
}

// FindBySource finds the track resolved from the given source coordinates.
func (r *mongoTrackRepository) FindBySource(ctx context.Context, platform platforms.Platform, sourceID string) (*models.Track, error) {
	filter := bson.M{
		"source_platform": platform,
		"source_id":       sourceID,
	}

	var track models.Track
	err := r.collection.FindOne(ctx, filter).Decode(&track)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find track by source: %w", err)
	}

	return &track, nil
}

// FindByISRC finds a track by its ISRC code
func (r *mongoTrackRepository) FindByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	var track models.Track
	err := r.collection.FindOne(ctx, bson.M{"isrc": isrc}).Decode(&track)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find track by ISRC: %w", err)
	}

	return &track, nil
}

// FindStalest returns tracks ordered by least-recently-verified link.
// Missing last_verified_at sorts first in MongoDB, so never-checked links
// are selected before stale-but-previously-healthy ones.
func (r *mongoTrackRepository) FindStalest(ctx context.Context, limit int) ([]*models.Track, error) {
	filter := bson.M{"links.0": bson.M{"$exists": true}}
	opts := options.Find().
		SetSort(bson.D{{Key: "links.last_verified_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stalest tracks: %w", err)
	}
	defer cursor.Close(ctx)

	var tracks []*models.Track
	if err := cursor.All(ctx, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode stalest tracks: %w", err)
	}

	return tracks, nil
}

// UpdateLink overwrites one embedded link by (track, platform).
func (r *mongoTrackRepository) UpdateLink(ctx context.Context, trackID primitive.ObjectID, link models.PlatformLink) error {
	link.Confidence = models.ClampConfidence(link.Confidence)

	filter := bson.M{"_id": trackID, "links.platform": link.Platform}
	update := bson.M{
		"$set": bson.M{
			"links.$":    link,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("no %s link on track %s", link.Platform, trackID.Hex())
	}
	return nil
}

// Count returns the number of tracks
func (r *mongoTrackRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
