// Package store holds the MongoDB-backed repositories for accounts, reviews and
// bookings.
package store

import (
	"context"
	"errors"

	"github.com/harentsoaR/medbook-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	PatientsCollection = "users"
	DoctorsCollection  = "doctors"
	ReviewsCollection  = "reviews"
	BookingsCollection = "bookings"
	EmailsCollection   = "account_emails"
)

type PatientStore interface {
	Create(ctx context.Context, p *models.Patient) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error)
	FindByEmail(ctx context.Context, email string) (*models.Patient, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Patient, error)
	List(ctx context.Context) ([]models.Patient, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DoctorStore interface {
	Create(ctx context.Context, d *models.Doctor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*models.Doctor, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Doctor, error)
	// Search returns every doctor for an empty query. A non-empty query matches
	// approved doctors whose name or specialization contains it, ignoring case.
	Search(ctx context.Context, query string) ([]models.Doctor, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error)
	SetApproval(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Doctor, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetRating(ctx context.Context, id primitive.ObjectID, avg float64, count int) error
	AddReview(ctx context.Context, id, reviewID primitive.ObjectID) error
	RemoveReview(ctx context.Context, id, reviewID primitive.ObjectID) error
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Review, error)
	ListByDoctors(ctx context.Context, doctorIDs []primitive.ObjectID) ([]models.Review, error)
	ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByDoctor(ctx context.Context, doctorID primitive.ObjectID) (int64, error)
	// Stats aggregates count and mean rating over one doctor's reviews.
	// A doctor without reviews yields the zero value.
	Stats(ctx context.Context, doctorID primitive.ObjectID) (models.RatingStats, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	// ListByPatient returns the patient's bookings, newest first.
	ListByPatient(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
	ListByDoctors(ctx context.Context, doctorIDs []primitive.ObjectID) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error)
	DeleteByPatient(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteByDoctor(ctx context.Context, doctorID primitive.ObjectID) (int64, error)
}

// EmailRegistry is the single uniqueness authority for account emails across
// the patient and doctor collections.
type EmailRegistry interface {
	Claim(ctx context.Context, email string, accountID primitive.ObjectID, role models.Role) error
	Release(ctx context.Context, email string) error
}

// Stores bundles every repository the API needs.
type Stores struct {
	Patients PatientStore
	Doctors  DoctorStore
	Reviews  ReviewStore
	Bookings BookingStore
	Emails   EmailRegistry
}

func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Patients: NewPatientCollection(db.Collection(PatientsCollection)),
		Doctors:  NewDoctorCollection(db.Collection(DoctorsCollection)),
		Reviews:  NewReviewCollection(db.Collection(ReviewsCollection)),
		Bookings: NewBookingCollection(db.Collection(BookingsCollection)),
		Emails:   NewEmailCollection(db.Collection(EmailsCollection)),
	}
}

// newestFirst orders by creation time, descending. createdAt only has
// millisecond precision, so _id breaks ties.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateEmail
	}
	return err
}
