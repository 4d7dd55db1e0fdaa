package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the shared model for the secondary per-site collections:
// features, opinions, graphics and charts. They are structurally identical
// and served by one generic service.
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug"          json:"slug"`
	Title       string             `bson:"title"         json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Body        string             `bson:"body,omitempty"        json:"body,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty"   json:"image_url,omitempty"`
	Category    string             `bson:"category,omitempty"    json:"category,omitempty"`
	Tags        []string           `bson:"tags,omitempty"        json:"tags,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"            json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"            json:"updated_at"`
}
