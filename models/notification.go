package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPreference is a saved filter describing products a user wants to hear about.
// Nil filters match any value.
type NotificationPreference struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	UserID        string             `json:"userId" bson:"userId"`
	Category      *string            `json:"category,omitempty" bson:"category,omitempty"`
	Condition     *string            `json:"condition,omitempty" bson:"condition,omitempty"`
	MinPrice      *float64           `json:"minPrice,omitempty" bson:"minPrice,omitempty"`
	MaxPrice      *float64           `json:"maxPrice,omitempty" bson:"maxPrice,omitempty"`
	City          *string            `json:"city,omitempty" bson:"city,omitempty"`
	ReceiveEmails bool               `json:"receiveEmails" bson:"receiveEmails"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Notification tells a user about a product matching one of their preferences
type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    string             `json:"userId" bson:"userId"`
	ProductID string             `json:"productId" bson:"productId"`
	Category  string             `json:"category" bson:"category"`
	Message   string             `json:"message" bson:"message"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
