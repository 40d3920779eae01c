package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FeedbackCollection = "feedback"

type FeedbackRepository interface {
	// Put writes f under f.ID, replacing any document already stored there.
	Put(ctx context.Context, f *models.Feedback) error
	FindByID(ctx context.Context, id string) (*models.Feedback, error)
	FindByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection(FeedbackCollection)}
}

func (r *feedbackRepo) Put(ctx context.Context, f *models.Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": f.ID},
		f,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *feedbackRepo) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	var f models.Feedback
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepo) FindByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	var f models.Feedback
	err := r.col.FindOne(ctx,
		bson.M{"interviewId": interviewID, "userId": userID},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
