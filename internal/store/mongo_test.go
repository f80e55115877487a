package store

import (
	"context"
	"testing"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestReviewCollection_Stats(t *testing.T) {
	mt := newMockT(t)
	doctorID := primitive.NewObjectID()

	mt.Run("reviews present", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: doctorID},
			{Key: "numReviews", Value: int32(2)},
			{Key: "avgRating", Value: 4.0},
		}))

		stats, err := NewReviewCollection(mt.Coll).Stats(context.Background(), doctorID)
		require.NoError(mt, err)
		assert.Equal(mt, models.RatingStats{NumReviews: 2, AvgRating: 4.0}, stats)

		cmd := mt.GetStartedEvent().Command
		stages, err := cmd.Lookup("pipeline").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 2)
		match := stages[0].Document().Lookup("$match").Document()
		assert.Equal(mt, doctorID, match.Lookup("doctor").ObjectID())
		group := stages[1].Document().Lookup("$group").Document()
		assert.Equal(mt, "$rating", group.Lookup("avgRating", "$avg").StringValue())
	})

	mt.Run("no reviews", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		stats, err := NewReviewCollection(mt.Coll).Stats(context.Background(), doctorID)
		require.NoError(mt, err)
		assert.Equal(mt, models.RatingStats{}, stats)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline"}))

		_, err := NewReviewCollection(mt.Coll).Stats(context.Background(), doctorID)
		assert.Error(mt, err)
	})
}

func TestDoctorCollection_RatingAndReviewUpdates(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		doctors := NewDoctorCollection(mt.Coll)

		assert.NoError(mt, doctors.SetRating(ctx, primitive.NewObjectID(), 4.5, 2))
		assert.NoError(mt, doctors.AddReview(ctx, primitive.NewObjectID(), primitive.NewObjectID()))
	})

	mt.Run("unknown doctor", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)
		doctors := NewDoctorCollection(mt.Coll)

		assert.ErrorIs(mt, doctors.SetRating(ctx, primitive.NewObjectID(), 0, 0), ErrNotFound)
		assert.ErrorIs(mt, doctors.AddReview(ctx, primitive.NewObjectID(), primitive.NewObjectID()), ErrNotFound)
		assert.ErrorIs(mt, doctors.RemoveReview(ctx, primitive.NewObjectID(), primitive.NewObjectID()), ErrNotFound)
	})

	mt.Run("set rating overwrites both fields", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		id := primitive.NewObjectID()

		require.NoError(mt, NewDoctorCollection(mt.Coll).SetRating(ctx, id, 3.5, 4))

		update := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document()
		set := update.Lookup("u", "$set").Document()
		assert.Equal(mt, 3.5, set.Lookup("totalRating").Double())
		assert.Equal(mt, int32(4), set.Lookup("numReviews").Int32())
		assert.Equal(mt, id, update.Lookup("q", "_id").ObjectID())
	})
}

func TestDoctorCollection_FindByID(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Dr A"},
			{Key: "isApproved", Value: "approved"},
			{Key: "totalRating", Value: 4.5},
			{Key: "numReviews", Value: int32(2)},
		}))

		doctor, err := NewDoctorCollection(mt.Coll).FindByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, doctor.ID)
		assert.Equal(mt, models.ApprovalApproved, doctor.IsApproved)
		assert.Equal(mt, 4.5, doctor.TotalRating)
		assert.Equal(mt, 2, doctor.NumReviews)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := NewDoctorCollection(mt.Coll).FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestEmailCollection_Claim(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()

	mt.Run("free", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := NewEmailCollection(mt.Coll).Claim(ctx, "jane@example.com", primitive.NewObjectID(), models.RolePatient)
		require.NoError(mt, err)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "jane@example.com", doc.Lookup("_id").StringValue())
	})

	mt.Run("taken", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: medbook.account_emails index: _id_",
		}))

		err := NewEmailCollection(mt.Coll).Claim(ctx, "jane@example.com", primitive.NewObjectID(), models.RoleDoctor)
		assert.ErrorIs(mt, err, ErrDuplicateEmail)
	})
}

func TestPatientCollection_CreateDuplicateEmail(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: medbook.users index: email_1",
		}))

		err := NewPatientCollection(mt.Coll).Create(context.Background(), &models.Patient{Email: "jane@example.com"})
		assert.ErrorIs(mt, err, ErrDuplicateEmail)
	})
}

func TestBookingCollection_ListByPatientNewestFirst(t *testing.T) {
	mt := newMockT(t)

	mt.Run("sorted query", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: newer}, {Key: "user", Value: userID}, {Key: "time", Value: "10:00"}},
			bson.D{{Key: "_id", Value: older}, {Key: "user", Value: userID}, {Key: "time", Value: "09:00"}},
		))

		bookings, err := NewBookingCollection(mt.Coll).ListByPatient(context.Background(), userID)
		require.NoError(mt, err)
		require.Len(mt, bookings, 2)
		assert.Equal(mt, newer, bookings[0].ID)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, userID, cmd.Lookup("filter", "user").ObjectID())
		sortKeys, err := cmd.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, sortKeys, 2)
		assert.Equal(mt, "createdAt", sortKeys[0].Key())
		assert.Equal(mt, int32(-1), sortKeys[0].Value().Int32())
		assert.Equal(mt, "_id", sortKeys[1].Key())
		assert.Equal(mt, int32(-1), sortKeys[1].Value().Int32())
	})
}

func TestNewestFirstBreaksTiesOnID(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, newestFirst)
}
