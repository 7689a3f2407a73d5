package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Rating      float64            `bson:"rating" json:"rating"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	DateCreated time.Time          `bson:"dateCreated" json:"dateCreated"`
}

type FeedbackDetail struct {
	*Feedback
	User *UserRef `json:"user"`
}
