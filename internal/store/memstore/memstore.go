// Package memstore is an in-memory implementation of the store interfaces,
// used by tests in place of MongoDB.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// New returns a fresh, empty set of stores.
func New() store.Stores {
	return store.Stores{
		Patients: &Patients{docs: map[primitive.ObjectID]models.Patient{}},
		Doctors:  &Doctors{docs: map[primitive.ObjectID]models.Doctor{}},
		Reviews:  &Reviews{docs: map[primitive.ObjectID]models.Review{}},
		Bookings: &Bookings{docs: map[primitive.ObjectID]models.Booking{}},
		Emails:   &Emails{claims: map[string]primitive.ObjectID{}},
	}
}

// clock hands out strictly increasing timestamps so newest-first ordering is
// deterministic even within one clock tick.
var clock struct {
	sync.Mutex
	last time.Time
}

func now() time.Time {
	clock.Lock()
	defer clock.Unlock()
	t := time.Now().UTC()
	if !t.After(clock.last) {
		t = clock.last.Add(time.Microsecond)
	}
	clock.last = t
	return t
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func assign(s *string, v *string) {
	if v != nil {
		*s = *v
	}
}

type Patients struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Patient
}

func (s *Patients) Create(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Email == p.Email {
			return store.ErrDuplicateEmail
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	s.docs[p.ID] = *p
	return nil
}

func (s *Patients) FindByID(_ context.Context, id primitive.ObjectID) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Patients) FindByEmail(_ context.Context, email string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.docs {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Patients) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Patient, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.docs[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Patients) List(_ context.Context) ([]models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Patient, 0, len(s.docs))
	for _, p := range s.docs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Patients) Update(_ context.Context, id primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	assign(&p.Name, upd.Name)
	assign(&p.Photo, upd.Photo)
	assign(&p.Gender, upd.Gender)
	assign(&p.Password, upd.Password)
	p.UpdatedAt = now()
	s.docs[id] = p
	return &p, nil
}

func (s *Patients) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

type Doctors struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Doctor
}

func (s *Doctors) Create(_ context.Context, d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Email == d.Email {
			return store.ErrDuplicateEmail
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.IsApproved == "" {
		d.IsApproved = models.ApprovalPending
	}
	if d.Reviews == nil {
		d.Reviews = []primitive.ObjectID{}
	}
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	s.docs[d.ID] = cloneDoctor(*d)
	return nil
}

func cloneDoctor(d models.Doctor) models.Doctor {
	d.Reviews = append([]primitive.ObjectID{}, d.Reviews...)
	return d
}

func (s *Doctors) FindByID(_ context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d = cloneDoctor(d)
	return &d, nil
}

func (s *Doctors) FindByEmail(_ context.Context, email string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.Email == email {
			d = cloneDoctor(d)
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Doctors) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Doctor, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.docs[id]; ok {
			out = append(out, cloneDoctor(d))
		}
	}
	return out, nil
}

func (s *Doctors) Search(_ context.Context, query string) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	out := make([]models.Doctor, 0)
	for _, d := range s.docs {
		if q != "" {
			if d.IsApproved != models.ApprovalApproved {
				continue
			}
			if !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Specialization), q) {
				continue
			}
		}
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Doctors) Update(_ context.Context, id primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error) {
	return s.modify(id, func(d *models.Doctor) {
		assign(&d.Name, upd.Name)
		assign(&d.Photo, upd.Photo)
		assign(&d.Gender, upd.Gender)
		assign(&d.Specialization, upd.Specialization)
		assign(&d.Phone, upd.Phone)
		assign(&d.Bio, upd.Bio)
		assign(&d.Password, upd.Password)
		d.UpdatedAt = now()
	})
}

func (s *Doctors) SetApproval(_ context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Doctor, error) {
	return s.modify(id, func(d *models.Doctor) {
		d.IsApproved = status
		d.UpdatedAt = now()
	})
}

func (s *Doctors) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *Doctors) SetRating(_ context.Context, id primitive.ObjectID, avg float64, count int) error {
	_, err := s.modify(id, func(d *models.Doctor) {
		d.TotalRating = avg
		d.NumReviews = count
	})
	return err
}

func (s *Doctors) AddReview(_ context.Context, id, reviewID primitive.ObjectID) error {
	_, err := s.modify(id, func(d *models.Doctor) {
		for _, r := range d.Reviews {
			if r == reviewID {
				return
			}
		}
		d.Reviews = append(d.Reviews, reviewID)
	})
	return err
}

func (s *Doctors) RemoveReview(_ context.Context, id, reviewID primitive.ObjectID) error {
	_, err := s.modify(id, func(d *models.Doctor) {
		kept := d.Reviews[:0]
		for _, r := range d.Reviews {
			if r != reviewID {
				kept = append(kept, r)
			}
		}
		d.Reviews = kept
	})
	return err
}

func (s *Doctors) modify(id primitive.ObjectID, fn func(d *models.Doctor)) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d = cloneDoctor(d)
	fn(&d)
	s.docs[id] = d
	out := cloneDoctor(d)
	return &out, nil
}

type Reviews struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Review

	// StatsErr, when set, is returned by Stats. Tests use it to simulate a
	// failing aggregation.
	StatsErr error
}

func (s *Reviews) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	s.docs[r.ID] = *r
	return nil
}

func (s *Reviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Reviews) List(_ context.Context) ([]models.Review, error) {
	return s.filter(func(models.Review) bool { return true }), nil
}

func (s *Reviews) ListByDoctor(_ context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	return s.filter(func(r models.Review) bool { return r.Doctor == doctorID }), nil
}

func (s *Reviews) ListByDoctors(_ context.Context, doctorIDs []primitive.ObjectID) ([]models.Review, error) {
	in := idSet(doctorIDs)
	return s.filter(func(r models.Review) bool {
		_, ok := in[r.Doctor]
		return ok
	}), nil
}

func (s *Reviews) ListByAuthor(_ context.Context, userID primitive.ObjectID) ([]models.Review, error) {
	return s.filter(func(r models.Review) bool { return r.User == userID }), nil
}

func (s *Reviews) filter(keep func(models.Review) bool) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Review, 0)
	for _, r := range s.docs {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Reviews) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *Reviews) DeleteByDoctor(_ context.Context, doctorID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.docs {
		if r.Doctor == doctorID {
			delete(s.docs, id)
			n++
		}
	}
	return n, nil
}

func (s *Reviews) Stats(_ context.Context, doctorID primitive.ObjectID) (models.RatingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StatsErr != nil {
		return models.RatingStats{}, s.StatsErr
	}
	var stats models.RatingStats
	sum := 0
	for _, r := range s.docs {
		if r.Doctor == doctorID {
			stats.NumReviews++
			sum += r.Rating
		}
	}
	if stats.NumReviews > 0 {
		stats.AvgRating = float64(sum) / float64(stats.NumReviews)
	}
	return stats, nil
}

type Bookings struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Booking
}

func (s *Bookings) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	s.docs[b.ID] = *b
	return nil
}

func (s *Bookings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Bookings) ListByPatient(_ context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return s.filter(func(b models.Booking) bool { return b.User == userID }), nil
}

func (s *Bookings) ListByDoctors(_ context.Context, doctorIDs []primitive.ObjectID) ([]models.Booking, error) {
	in := idSet(doctorIDs)
	return s.filter(func(b models.Booking) bool {
		_, ok := in[b.Doctor]
		return ok
	}), nil
}

func (s *Bookings) filter(keep func(models.Booking) bool) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Booking, 0)
	for _, b := range s.docs {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Bookings) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = now()
	s.docs[id] = b
	return &b, nil
}

func (s *Bookings) DeleteByPatient(_ context.Context, userID primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(b models.Booking) bool { return b.User == userID }), nil
}

func (s *Bookings) DeleteByDoctor(_ context.Context, doctorID primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(b models.Booking) bool { return b.Doctor == doctorID }), nil
}

func (s *Bookings) deleteWhere(match func(models.Booking) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.docs {
		if match(b) {
			delete(s.docs, id)
			n++
		}
	}
	return n
}

type Emails struct {
	mu     sync.Mutex
	claims map[string]primitive.ObjectID
}

func (s *Emails) Claim(_ context.Context, email string, accountID primitive.ObjectID, _ models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.claims[email]; taken {
		return store.ErrDuplicateEmail
	}
	s.claims[email] = accountID
	return nil
}

func (s *Emails) Release(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, email)
	return nil
}
