package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Phone        string             `bson:"phone" json:"phone"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	Street       string             `bson:"street" json:"street"`
	Apartment    string             `bson:"apartment" json:"apartment"`
	Zip          string             `bson:"zip" json:"zip"`
	City         string             `bson:"city" json:"city"`
	Country      string             `bson:"country" json:"country"`
	DateCreated  time.Time          `bson:"dateCreated" json:"dateCreated"`
}
