package store

import (
	"context"
	"fmt"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewCollection struct {
	collection *mongo.Collection
}

func NewReviewCollection(collection *mongo.Collection) *ReviewCollection {
	return &ReviewCollection{collection: collection}
}

func (r *ReviewCollection) Create(ctx context.Context, review *models.Review) error {
	now := time.Now().UTC()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt, review.UpdatedAt = now, now
	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (r *ReviewCollection) List(ctx context.Context) ([]models.Review, error) {
	return r.find(ctx, bson.M{})
}

func (r *ReviewCollection) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	return r.find(ctx, bson.M{"doctor": doctorID})
}

func (r *ReviewCollection) ListByDoctors(ctx context.Context, doctorIDs []primitive.ObjectID) ([]models.Review, error) {
	if len(doctorIDs) == 0 {
		return []models.Review{}, nil
	}
	return r.find(ctx, bson.M{"doctor": bson.M{"$in": doctorIDs}})
}

func (r *ReviewCollection) ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *ReviewCollection) find(ctx context.Context, filter bson.M) ([]models.Review, error) {
	opts := options.Find().SetSort(newestFirst)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewCollection) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewCollection) DeleteByDoctor(ctx context.Context, doctorID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"doctor": doctorID})
	if err != nil {
		return 0, fmt.Errorf("delete reviews of doctor %s: %w", doctorID.Hex(), err)
	}
	return res.DeletedCount, nil
}

func (r *ReviewCollection) Stats(ctx context.Context, doctorID primitive.ObjectID) (models.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "doctor", Value: doctorID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$doctor"},
			{Key: "numReviews", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []models.RatingStats
	if err := cursor.All(ctx, &stats); err != nil {
		return models.RatingStats{}, fmt.Errorf("decode rating stats: %w", err)
	}
	if len(stats) == 0 {
		return models.RatingStats{}, nil
	}
	return stats[0], nil
}
