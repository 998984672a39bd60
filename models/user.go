package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAdmin grants access to the moderation endpoints
const RoleAdmin = "admin"

// User holds the structure for the user collection in mongo
type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	Email           string             `json:"email" bson:"email"`
	Username        string             `json:"username" bson:"username"`
	Password        string             `json:"-" bson:"password"`
	Roles           []string           `json:"roles" bson:"roles"`
	EmailVerified   bool               `json:"emailVerified" bson:"emailVerified"`
	EmailVerifiedAt *time.Time         `json:"emailVerifiedAt,omitempty" bson:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID    string
	Email string
	Roles []string
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
