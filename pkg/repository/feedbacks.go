package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFeedbacks returns all feedback, newest first, with the author's email.
func (m *MongoRepository) ListFeedbacks(ctx context.Context) ([]models.FeedbackDetail, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	feedbacks, err := findAll[models.Feedback](ctx, m.collection(feedbacksCollection), bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedbacks: %w", err)
	}
	return m.populateFeedbacks(ctx, feedbacks)
}

func (m *MongoRepository) GetFeedback(ctx context.Context, id primitive.ObjectID) (*models.FeedbackDetail, error) {
	feedback, err := findByID[models.Feedback](ctx, m.collection(feedbacksCollection), id)
	if err != nil {
		return nil, err
	}
	details, err := m.populateFeedbacks(ctx, []models.Feedback{*feedback})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (m *MongoRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	feedback.DateCreated = time.Now()
	id, err := insert(ctx, m.collection(feedbacksCollection), feedback)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	feedback.ID = id
	return nil
}

func (m *MongoRepository) DeleteFeedback(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	return removeByID[models.Feedback](ctx, m.collection(feedbacksCollection), id)
}

func (m *MongoRepository) CountFeedbacks(ctx context.Context) (int64, error) {
	return m.collection(feedbacksCollection).CountDocuments(ctx, bson.M{})
}

func (m *MongoRepository) populateFeedbacks(ctx context.Context, feedbacks []models.Feedback) ([]models.FeedbackDetail, error) {
	ids := make([]primitive.ObjectID, 0, len(feedbacks))
	for _, f := range feedbacks {
		ids = append(ids, f.User)
	}
	users, err := m.userRefs(ctx, ids, "email")
	if err != nil {
		return nil, err
	}

	out := make([]models.FeedbackDetail, len(feedbacks))
	for i := range feedbacks {
		out[i] = models.FeedbackDetail{Feedback: &feedbacks[i], User: users[feedbacks[i].User]}
	}
	return out, nil
}
