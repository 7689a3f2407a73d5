package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const StatusPending = "Pending"

type Order struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderItems       []primitive.ObjectID `bson:"orderItems" json:"orderItems"`
	ShippingAddress1 string               `bson:"shippingAddress1" json:"shippingAddress1"`
	ShippingAddress2 string               `bson:"shippingAddress2,omitempty" json:"shippingAddress2,omitempty"`
	City             string               `bson:"city" json:"city"`
	Zip              string               `bson:"zip" json:"zip"`
	Country          string               `bson:"country" json:"country"`
	Phone            string               `bson:"phone" json:"phone"`
	Status           string               `bson:"status" json:"status"`
	TotalPrice       float64              `bson:"totalPrice" json:"totalPrice"`
	User             primitive.ObjectID   `bson:"user" json:"user"`
	DateOrdered      time.Time            `bson:"dateOrdered" json:"dateOrdered"`
}

// UserRef is the projection of a user embedded in populated documents.
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name,omitempty" json:"name,omitempty"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
}

// OrderSummary is an order with the submitting user's name resolved.
type OrderSummary struct {
	*Order
	User *UserRef `json:"user"`
}

// OrderDetail is an order with its user and line items fully resolved.
type OrderDetail struct {
	*Order
	User       *UserRef             `json:"user"`
	OrderItems []PopulatedOrderItem `json:"orderItems"`
}
