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

type BookingCollection struct {
	collection *mongo.Collection
}

func NewBookingCollection(collection *mongo.Collection) *BookingCollection {
	return &BookingCollection{collection: collection}
}

func (b *BookingCollection) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if booking.Status == "" {
		booking.Status = models.BookingPending
	}
	booking.CreatedAt, booking.UpdatedAt = now, now
	if _, err := b.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (b *BookingCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := b.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (b *BookingCollection) ListByPatient(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return b.find(ctx, bson.M{"user": userID})
}

func (b *BookingCollection) ListByDoctors(ctx context.Context, doctorIDs []primitive.ObjectID) ([]models.Booking, error) {
	if len(doctorIDs) == 0 {
		return []models.Booking{}, nil
	}
	return b.find(ctx, bson.M{"doctor": bson.M{"$in": doctorIDs}})
}

func (b *BookingCollection) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(newestFirst)
	cursor, err := b.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

func (b *BookingCollection) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	if err := b.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (b *BookingCollection) DeleteByPatient(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return b.deleteMany(ctx, bson.M{"user": userID})
}

func (b *BookingCollection) DeleteByDoctor(ctx context.Context, doctorID primitive.ObjectID) (int64, error) {
	return b.deleteMany(ctx, bson.M{"doctor": doctorID})
}

func (b *BookingCollection) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := b.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete bookings: %w", err)
	}
	return res.DeletedCount, nil
}
