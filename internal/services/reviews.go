package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidRating = fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)

// ReviewService is the only writer of the reviews collection. Every insert and
// removal is followed by an explicit rating recomputation for the doctor.
type ReviewService struct {
	reviews store.ReviewStore
	doctors store.DoctorStore
	ratings *RatingAggregator
	log     zerolog.Logger
}

func NewReviewService(reviews store.ReviewStore, doctors store.DoctorStore, ratings *RatingAggregator, log zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, doctors: doctors, ratings: ratings, log: log}
}

// Create stores a review for an existing doctor. If the recomputation fails
// the review is already persisted and is returned together with the error.
func (s *ReviewService) Create(ctx context.Context, doctorID, authorID primitive.ObjectID, rating int, text string) (*models.Review, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		return nil, err
	}

	review := &models.Review{
		Doctor:     doctorID,
		User:       authorID,
		Rating:     rating,
		ReviewText: text,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	if err := s.doctors.AddReview(ctx, doctorID, review.ID); err != nil {
		return review, fmt.Errorf("link review to doctor: %w", err)
	}
	if err := s.ratings.Recompute(ctx, doctorID); err != nil {
		return review, err
	}
	return review, nil
}

// Remove deletes one review and recomputes its doctor.
func (s *ReviewService) Remove(ctx context.Context, review *models.Review) error {
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return err
	}
	return s.detach(ctx, review.Doctor, review.ID)
}

// RemoveByAuthor deletes every review written by one account and recomputes
// each doctor that lost a review.
func (s *ReviewService) RemoveByAuthor(ctx context.Context, authorID primitive.ObjectID) (int, error) {
	reviews, err := s.reviews.ListByAuthor(ctx, authorID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := range reviews {
		if err := s.Remove(ctx, &reviews[i]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// RemoveByDoctor drops a doctor's reviews. The doctor is being deleted, so no
// recomputation follows.
func (s *ReviewService) RemoveByDoctor(ctx context.Context, doctorID primitive.ObjectID) (int64, error) {
	return s.reviews.DeleteByDoctor(ctx, doctorID)
}

func (s *ReviewService) detach(ctx context.Context, doctorID, reviewID primitive.ObjectID) error {
	err := s.doctors.RemoveReview(ctx, doctorID, reviewID)
	if errors.Is(err, store.ErrNotFound) {
		// Doctor already gone; nothing left to keep consistent.
		s.log.Warn().Str("doctor_id", doctorID.Hex()).Msg("review removed for missing doctor")
		return nil
	}
	if err != nil {
		return fmt.Errorf("unlink review from doctor: %w", err)
	}
	return s.ratings.Recompute(ctx, doctorID)
}
