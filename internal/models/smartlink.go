package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SmartLink is the user-facing composite: one public slug resolving to a
// track's platform links plus presentation metadata. Created and edited by
// the dashboard (an external collaborator); this service only reads it at
// redirect time and bumps the click counter.
type SmartLink struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug          string             `bson:"slug" json:"slug"`
	Title         string             `bson:"title" json:"title"`
	Template      string             `bson:"template,omitempty" json:"template,omitempty"`
	CoverImageURL string             `bson:"cover_image_url,omitempty" json:"cover_image_url,omitempty"`
	TrackID       primitive.ObjectID `bson:"track_id" json:"track_id"`
	Active        bool               `bson:"active" json:"active"`
	Clicks        int64              `bson:"clicks" json:"clicks"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
