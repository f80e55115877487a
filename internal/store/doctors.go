package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DoctorCollection struct {
	collection *mongo.Collection
}

func NewDoctorCollection(collection *mongo.Collection) *DoctorCollection {
	return &DoctorCollection{collection: collection}
}

func (d *DoctorCollection) Create(ctx context.Context, doctor *models.Doctor) error {
	now := time.Now().UTC()
	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	if doctor.IsApproved == "" {
		doctor.IsApproved = models.ApprovalPending
	}
	if doctor.Reviews == nil {
		doctor.Reviews = []primitive.ObjectID{}
	}
	doctor.CreatedAt, doctor.UpdatedAt = now, now
	if _, err := d.collection.InsertOne(ctx, doctor); err != nil {
		return fmt.Errorf("insert doctor: %w", translate(err))
	}
	return nil
}

func (d *DoctorCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *DoctorCollection) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	return d.findOne(ctx, bson.M{"email": email})
}

func (d *DoctorCollection) findOne(ctx context.Context, filter bson.M) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := d.collection.FindOne(ctx, filter).Decode(&doctor); err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (d *DoctorCollection) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Doctor, error) {
	if len(ids) == 0 {
		return []models.Doctor{}, nil
	}
	return d.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (d *DoctorCollection) Search(ctx context.Context, query string) ([]models.Doctor, error) {
	return d.find(ctx, doctorSearchFilter(query))
}

// doctorSearchFilter treats the query as a literal substring.
func doctorSearchFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(query)
	return bson.M{
		"isApproved": models.ApprovalApproved,
		"$or": []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"specialization": bson.M{"$regex": pattern, "$options": "i"}},
		},
	}
}

func (d *DoctorCollection) find(ctx context.Context, filter bson.M) ([]models.Doctor, error) {
	cursor, err := d.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := make([]models.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("decode doctors: %w", err)
	}
	return doctors, nil
}

func (d *DoctorCollection) Update(ctx context.Context, id primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	setIfPresent(set, "name", upd.Name)
	setIfPresent(set, "photo", upd.Photo)
	setIfPresent(set, "gender", upd.Gender)
	setIfPresent(set, "specialization", upd.Specialization)
	setIfPresent(set, "phone", upd.Phone)
	setIfPresent(set, "bio", upd.Bio)
	setIfPresent(set, "password", upd.Password)
	return d.findOneAndSet(ctx, id, set)
}

func (d *DoctorCollection) SetApproval(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Doctor, error) {
	return d.findOneAndSet(ctx, id, bson.M{"isApproved": status, "updatedAt": time.Now().UTC()})
}

func (d *DoctorCollection) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Doctor, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Doctor
	err := d.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (d *DoctorCollection) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRating overwrites the derived rating fields.
func (d *DoctorCollection) SetRating(ctx context.Context, id primitive.ObjectID, avg float64, count int) error {
	return d.updateOne(ctx, id, bson.M{"$set": bson.M{"totalRating": avg, "numReviews": count}})
}

func (d *DoctorCollection) AddReview(ctx context.Context, id, reviewID primitive.ObjectID) error {
	return d.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"reviews": reviewID}})
}

func (d *DoctorCollection) RemoveReview(ctx context.Context, id, reviewID primitive.ObjectID) error {
	return d.updateOne(ctx, id, bson.M{"$pull": bson.M{"reviews": reviewID}})
}

func (d *DoctorCollection) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := d.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update doctor %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
