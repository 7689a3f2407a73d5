package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	RichDescription string             `bson:"richDescription" json:"richDescription"`
	Image           string             `bson:"image" json:"image"`
	Images          []string           `bson:"images" json:"images"`
	Brand           string             `bson:"brand" json:"brand"`
	Price           float64            `bson:"price" json:"price"`
	Category        primitive.ObjectID `bson:"category" json:"category"`
	CountInStock    int                `bson:"countInStock" json:"countInStock"`
	Rating          float64            `bson:"rating" json:"rating"`
	NumReviews      int                `bson:"numReviews" json:"numReviews"`
	IsFeatured      bool               `bson:"isFeatured" json:"isFeatured"`
	DateCreated     time.Time          `bson:"dateCreated" json:"dateCreated"`
}

// PopulatedProduct is a product with its category reference resolved.
// The outer Category shadows the embedded reference when encoded to JSON.
type PopulatedProduct struct {
	*Product
	Category *Category `json:"category"`
}
