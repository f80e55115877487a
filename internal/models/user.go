package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Patient is stored in the "users" collection. Admin accounts live there too.
type Patient struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // Hide from JSON responses
	Photo     string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Gender    string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Role      Role               `bson:"role" json:"role"` // "patient" or "admin"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PatientUpdate carries the fields a patient may change on their own record.
// Nil means "leave unchanged".
type PatientUpdate struct {
	Name     *string
	Photo    *string
	Gender   *string
	Password *string // already hashed
}

// PatientSummary is the populated form of a patient reference.
type PatientSummary struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{ID: p.ID, Name: p.Name, Email: p.Email}
}
