package store

import (
	"testing"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDoctorSearchFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, doctorSearchFilter(""))
}

func TestDoctorSearchFilter_ApprovedCaseInsensitive(t *testing.T) {
	f := doctorSearchFilter("cardio")

	assert.Equal(t, models.ApprovalApproved, f["isApproved"])
	assert.Equal(t, []bson.M{
		{"name": bson.M{"$regex": "cardio", "$options": "i"}},
		{"specialization": bson.M{"$regex": "cardio", "$options": "i"}},
	}, f["$or"])
}

func TestDoctorSearchFilter_QuotesMetacharacters(t *testing.T) {
	f := doctorSearchFilter("a.b(c")

	or := f["$or"].([]bson.M)
	assert.Equal(t, `a\.b\(c`, or[0]["name"].(bson.M)["$regex"])
}
