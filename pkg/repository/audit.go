package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Service   string             `bson:"service" json:"service"`
	Action    string             `bson:"action" json:"action"`
	EntityID  string             `bson:"entity_id" json:"entity_id"`
	Data      bson.M             `bson:"data" json:"data"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	log.CreatedAt = time.Now()
	id, err := insert(ctx, m.collection(m.config.AuditCollection), log)
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]AuditLog, error) {
	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	return findAll[AuditLog](ctx, m.collection(m.config.AuditCollection), filter, opts)
}
