package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus is the listing state of a product
type ProductStatus string

// Listing states. BLOCKED is set when a scam report against the product is confirmed.
const (
	ProductStatusActive  ProductStatus = "ACTIVE"
	ProductStatusSold    ProductStatus = "SOLD"
	ProductStatusBlocked ProductStatus = "BLOCKED"
)

// Product holds the structure for the products collection in mongo
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	SellerID    string             `json:"sellerId" bson:"sellerId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	Condition   string             `json:"condition" bson:"condition"`
	Price       float64            `json:"price" bson:"price"`
	City        string             `json:"city" bson:"city"`
	Status      ProductStatus      `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
