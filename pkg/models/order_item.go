package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// OrderItem is a single line of exactly one order. It is never shared.
type OrderItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
}

// PricedOrderItem is an order item joined with its product's unit price.
type PricedOrderItem struct {
	ID       primitive.ObjectID `bson:"_id"`
	Quantity int                `bson:"quantity"`
	Product  primitive.ObjectID `bson:"product"`
	Price    float64            `bson:"price"`
}

type PopulatedOrderItem struct {
	ID       primitive.ObjectID `json:"id"`
	Quantity int                `json:"quantity"`
	Product  *PopulatedProduct  `json:"product"`
}
