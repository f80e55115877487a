package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Doctor    primitive.ObjectID `bson:"doctor" json:"doctor"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Date      time.Time          `bson:"date" json:"date"`
	Time      string             `bson:"time" json:"time"`
	Status    BookingStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
