package handlers

import (
	"context"

	"github.com/harentsoaR/medbook-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DoctorDetail is a doctor with its review and booking references resolved.
type DoctorDetail struct {
	*models.Doctor
	Reviews      []models.Review  `json:"reviews"`
	Appointments []models.Booking `json:"appointments"`
}

// ReviewView is a review with doctor and author resolved.
type ReviewView struct {
	models.Review
	Doctor interface{} `json:"doctor"`
	User   interface{} `json:"user"`
}

// BookingView is a booking with the doctor resolved.
type BookingView struct {
	models.Booking
	Doctor interface{} `json:"doctor"`
}

func (h *Handler) doctorDetail(ctx context.Context, doctor *models.Doctor) (*DoctorDetail, error) {
	details, err := h.doctorDetails(ctx, []models.Doctor{*doctor})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// doctorDetails resolves reviews and bookings for a page of doctors with one
// query per collection.
func (h *Handler) doctorDetails(ctx context.Context, doctors []models.Doctor) ([]DoctorDetail, error) {
	ids := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	reviews, err := h.Stores.Reviews.ListByDoctors(ctx, ids)
	if err != nil {
		return nil, err
	}
	bookings, err := h.Stores.Bookings.ListByDoctors(ctx, ids)
	if err != nil {
		return nil, err
	}

	reviewsByDoctor := make(map[primitive.ObjectID][]models.Review, len(doctors))
	for _, r := range reviews {
		reviewsByDoctor[r.Doctor] = append(reviewsByDoctor[r.Doctor], r)
	}
	bookingsByDoctor := make(map[primitive.ObjectID][]models.Booking, len(doctors))
	for _, b := range bookings {
		bookingsByDoctor[b.Doctor] = append(bookingsByDoctor[b.Doctor], b)
	}

	details := make([]DoctorDetail, 0, len(doctors))
	for i := range doctors {
		d := &doctors[i]
		detail := DoctorDetail{
			Doctor:       d,
			Reviews:      reviewsByDoctor[d.ID],
			Appointments: bookingsByDoctor[d.ID],
		}
		if detail.Reviews == nil {
			detail.Reviews = []models.Review{}
		}
		if detail.Appointments == nil {
			detail.Appointments = []models.Booking{}
		}
		details = append(details, detail)
	}
	return details, nil
}

// populateReviews resolves references in two batched lookups. A reference
// whose document is gone is left as the bare id.
func (h *Handler) populateReviews(ctx context.Context, reviews []models.Review) ([]ReviewView, error) {
	doctorIDs := make([]primitive.ObjectID, 0, len(reviews))
	userIDs := make([]primitive.ObjectID, 0, len(reviews))
	for _, r := range reviews {
		doctorIDs = append(doctorIDs, r.Doctor)
		userIDs = append(userIDs, r.User)
	}

	doctors, err := h.Stores.Doctors.FindByIDs(ctx, uniqueIDs(doctorIDs))
	if err != nil {
		return nil, err
	}
	patients, err := h.Stores.Patients.FindByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}

	doctorByID := make(map[primitive.ObjectID]*models.DoctorSummary, len(doctors))
	for i := range doctors {
		doctorByID[doctors[i].ID] = doctors[i].Summary()
	}
	patientByID := make(map[primitive.ObjectID]*models.PatientSummary, len(patients))
	for i := range patients {
		patientByID[patients[i].ID] = patients[i].Summary()
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		v := ReviewView{Review: r, Doctor: r.Doctor, User: r.User}
		if d, ok := doctorByID[r.Doctor]; ok {
			v.Doctor = d
		}
		if p, ok := patientByID[r.User]; ok {
			v.User = p
		}
		views = append(views, v)
	}
	return views, nil
}

func (h *Handler) populateBookings(ctx context.Context, bookings []models.Booking) ([]BookingView, error) {
	ids := make([]primitive.ObjectID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.Doctor)
	}
	doctors, err := h.Stores.Doctors.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.DoctorSummary, len(doctors))
	for i := range doctors {
		byID[doctors[i].ID] = doctors[i].Summary()
	}

	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		v := BookingView{Booking: b, Doctor: b.Doctor}
		if d, ok := byID[b.Doctor]; ok {
			v.Doctor = d
		}
		views = append(views, v)
	}
	return views, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
