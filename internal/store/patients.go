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

type PatientCollection struct {
	collection *mongo.Collection
}

func NewPatientCollection(collection *mongo.Collection) *PatientCollection {
	return &PatientCollection{collection: collection}
}

func (p *PatientCollection) Create(ctx context.Context, patient *models.Patient) error {
	now := time.Now().UTC()
	if patient.ID.IsZero() {
		patient.ID = primitive.NewObjectID()
	}
	patient.CreatedAt, patient.UpdatedAt = now, now
	if _, err := p.collection.InsertOne(ctx, patient); err != nil {
		return fmt.Errorf("insert patient: %w", translate(err))
	}
	return nil
}

func (p *PatientCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	return p.findOne(ctx, bson.M{"_id": id})
}

func (p *PatientCollection) FindByEmail(ctx context.Context, email string) (*models.Patient, error) {
	return p.findOne(ctx, bson.M{"email": email})
}

func (p *PatientCollection) findOne(ctx context.Context, filter bson.M) (*models.Patient, error) {
	var patient models.Patient
	if err := p.collection.FindOne(ctx, filter).Decode(&patient); err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (p *PatientCollection) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Patient, error) {
	if len(ids) == 0 {
		return []models.Patient{}, nil
	}
	return p.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (p *PatientCollection) List(ctx context.Context) ([]models.Patient, error) {
	return p.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (p *PatientCollection) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Patient, error) {
	cursor, err := p.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := make([]models.Patient, 0)
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return patients, nil
}

func (p *PatientCollection) Update(ctx context.Context, id primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	setIfPresent(set, "name", upd.Name)
	setIfPresent(set, "photo", upd.Photo)
	setIfPresent(set, "gender", upd.Gender)
	setIfPresent(set, "password", upd.Password)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Patient
	err := p.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (p *PatientCollection) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := p.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func setIfPresent(set bson.M, key string, value *string) {
	if value != nil {
		set[key] = *value
	}
}
