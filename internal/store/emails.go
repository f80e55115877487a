package store

import (
	"context"
	"fmt"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EmailClaim reserves an email for one account. The email itself is the _id,
// so the collection's primary key enforces uniqueness.
type EmailClaim struct {
	Email     string             `bson:"_id"`
	AccountID primitive.ObjectID `bson:"accountId"`
	Role      models.Role        `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type EmailCollection struct {
	collection *mongo.Collection
}

func NewEmailCollection(collection *mongo.Collection) *EmailCollection {
	return &EmailCollection{collection: collection}
}

func (e *EmailCollection) Claim(ctx context.Context, email string, accountID primitive.ObjectID, role models.Role) error {
	claim := EmailClaim{Email: email, AccountID: accountID, Role: role, CreatedAt: time.Now().UTC()}
	if _, err := e.collection.InsertOne(ctx, claim); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("claim email: %w", err)
	}
	return nil
}

func (e *EmailCollection) Release(ctx context.Context, email string) error {
	if _, err := e.collection.DeleteOne(ctx, bson.M{"_id": email}); err != nil {
		return fmt.Errorf("release email: %w", err)
	}
	return nil
}
