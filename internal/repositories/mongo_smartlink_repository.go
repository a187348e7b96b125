package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bandlink/internal/models"
)

// mongoSmartLinkRepository implements SmartLinkRepository using MongoDB
type mongoSmartLinkRepository struct {
	collection *mongo.Collection
}

// NewMongoSmartLinkRepository creates a new MongoDB-backed smart-link repository
func NewMongoSmartLinkRepository(db *models.Database) SmartLinkRepository {
	return &mongoSmartLinkRepository{
		collection: db.DB.Collection("smart_links"),
	}
}

func (r *mongoSmartLinkRepository) Save(ctx context.Context, link *models.SmartLink) error {
	link.UpdatedAt = time.Now()

	if link.ID.IsZero() {
		link.CreatedAt = time.Now()
		result, err := r.collection.InsertOne(ctx, link)
		if err != nil {
			return fmt.Errorf("failed to insert smart link: %w", err)
		}
		link.ID = result.InsertedID.(primitive.ObjectID)
		return nil
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": link.ID}, link)
	if err != nil {
		return fmt.Errorf("failed to update smart link: %w", err)
	}
	return nil
}

func (r *mongoSmartLinkRepository) FindBySlug(ctx context.Context, slug string) (*models.SmartLink, error) {
	var link models.SmartLink
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&link)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find smart link by slug: %w", err)
	}
	return &link, nil
}

// IncrementClicks bumps the click counter atomically; the counter is
// monotonically increasing and tolerant of concurrent redirects.
func (r *mongoSmartLinkRepository) IncrementClicks(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"clicks": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return nil
}
