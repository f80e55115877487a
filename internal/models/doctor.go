package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalCancelled ApprovalStatus = "cancelled"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalCancelled:
		return true
	}
	return false
}

type Doctor struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	Password       string               `bson:"password" json:"-"`
	Photo          string               `bson:"photo,omitempty" json:"photo,omitempty"`
	Gender         string               `bson:"gender,omitempty" json:"gender,omitempty"`
	Role           Role                 `bson:"role" json:"role"`
	Specialization string               `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Phone          string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio            string               `bson:"bio,omitempty" json:"bio,omitempty"`
	IsApproved     ApprovalStatus       `bson:"isApproved" json:"isApproved"`
	Reviews        []primitive.ObjectID `bson:"reviews" json:"reviews"`
	// Derived from the reviews collection, see services.RatingAggregator.
	TotalRating float64   `bson:"totalRating" json:"totalRating"`
	NumReviews  int       `bson:"numReviews" json:"numReviews"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DoctorUpdate carries the fields a doctor may change on their own record.
type DoctorUpdate struct {
	Name           *string
	Photo          *string
	Gender         *string
	Specialization *string
	Phone          *string
	Bio            *string
	Password       *string // already hashed
}

// DoctorSummary is the populated form of a doctor reference.
type DoctorSummary struct {
	ID             primitive.ObjectID `json:"_id"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization,omitempty"`
	Photo          string             `json:"photo,omitempty"`
}

func (d *Doctor) Summary() *DoctorSummary {
	return &DoctorSummary{ID: d.ID, Name: d.Name, Specialization: d.Specialization, Photo: d.Photo}
}
