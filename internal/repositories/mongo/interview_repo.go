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

const InterviewsCollection = "interviews"

type InterviewRepository interface {
	Create(ctx context.Context, in *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	SaveTranscript(ctx context.Context, id string, upd models.TranscriptUpdate) error
	LatestFinalized(ctx context.Context, excludeUserID string, limit int64) ([]models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection(InterviewsCollection)}
}

func (r *interviewRepo) Create(ctx context.Context, in *models.Interview) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, in)
	return err
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var in models.Interview
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&in)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// SaveTranscript merges the transcript fields into an existing interview
// owned by upd.UserID. It never creates the document or changes its owner.
func (r *interviewRepo) SaveTranscript(ctx context.Context, id string, upd models.TranscriptUpdate) error {
	set := bson.M{
		"finalized":       true,
		"voiceBased":      upd.VoiceBased,
		"transcript":      upd.Transcript,
		"durationMinutes": upd.DurationMinutes,
		"updatedAt":       upd.UpdatedAt.UTC(),
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "userId": upd.UserID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// latestFinalizedQuery is served by the by_finalized_created index.
func latestFinalizedQuery(excludeUserID string, limit int64) (bson.D, *options.FindOptions) {
	filter := bson.D{
		{Key: "finalized", Value: true},
		{Key: "userId", Value: bson.D{{Key: "$ne", Value: excludeUserID}}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	return filter, opts
}

func (r *interviewRepo) LatestFinalized(ctx context.Context, excludeUserID string, limit int64) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	filter, opts := latestFinalizedQuery(excludeUserID, limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Interview{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Interview{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
