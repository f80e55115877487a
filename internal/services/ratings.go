package services

import (
	"context"
	"fmt"

	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingAggregator keeps a doctor's totalRating and numReviews equal to the
// mean and count of the doctor's current reviews.
type RatingAggregator struct {
	reviews store.ReviewStore
	doctors store.DoctorStore
	log     zerolog.Logger
}

func NewRatingAggregator(reviews store.ReviewStore, doctors store.DoctorStore, log zerolog.Logger) *RatingAggregator {
	return &RatingAggregator{reviews: reviews, doctors: doctors, log: log}
}

// Recompute reads the full review set of one doctor and overwrites the
// derived fields. With no reviews left both fields are reset to zero.
func (a *RatingAggregator) Recompute(ctx context.Context, doctorID primitive.ObjectID) error {
	stats, err := a.reviews.Stats(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("recompute rating for doctor %s: %w", doctorID.Hex(), err)
	}

	avg, count := 0.0, 0
	if stats.NumReviews > 0 {
		avg, count = stats.AvgRating, stats.NumReviews
	}
	if err := a.doctors.SetRating(ctx, doctorID, avg, count); err != nil {
		return fmt.Errorf("store rating for doctor %s: %w", doctorID.Hex(), err)
	}

	a.log.Debug().
		Str("doctor_id", doctorID.Hex()).
		Float64("total_rating", avg).
		Int("num_reviews", count).
		Msg("rating recomputed")
	return nil
}

// RecomputeAll recomputes every doctor and returns how many were updated.
// It stops at the first failure.
func (a *RatingAggregator) RecomputeAll(ctx context.Context) (int, error) {
	doctors, err := a.doctors.Search(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list doctors: %w", err)
	}
	for i, d := range doctors {
		if err := a.Recompute(ctx, d.ID); err != nil {
			return i, err
		}
	}
	return len(doctors), nil
}
