package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Doctor     primitive.ObjectID `bson:"doctor" json:"doctor"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Rating     int                `bson:"rating" json:"rating"`
	ReviewText string             `bson:"reviewText" json:"reviewText"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RatingStats is the aggregate of one doctor's reviews.
type RatingStats struct {
	NumReviews int     `bson:"numReviews"`
	AvgRating  float64 `bson:"avgRating"`
}
