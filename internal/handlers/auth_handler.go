package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=patient doctor"`
	Photo    string `json:"photo"`
	Gender   string `json:"gender" binding:"omitempty,oneof=male female other"`
	// Doctor only.
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a patient or doctor account and returns a token for it.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}
	ctx := c.Request.Context()
	email := utils.NormalizeEmail(req.Email)

	// Fast path: the email is already used by an account of either kind.
	taken, err := h.emailInUse(c, email)
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	if taken {
		utils.Fail(c, http.StatusBadRequest, "Email already registered", nil)
		return
	}

	hashed, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		h.serverError(c, "Failed to hash password", err)
		return
	}

	id := primitive.NewObjectID()
	role := models.Role(req.Role)
	if err := h.Stores.Emails.Claim(ctx, email, id, role); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			utils.Fail(c, http.StatusBadRequest, "Email already registered", nil)
			return
		}
		h.serverError(c, "Server error", err)
		return
	}

	var created interface{}
	if role == models.RoleDoctor {
		doctor := &models.Doctor{
			ID:             id,
			Name:           req.Name,
			Email:          email,
			Password:       hashed,
			Photo:          req.Photo,
			Gender:         req.Gender,
			Role:           models.RoleDoctor,
			Specialization: req.Specialization,
			Phone:          req.Phone,
		}
		err = h.Stores.Doctors.Create(ctx, doctor)
		created = doctor
	} else {
		patient := &models.Patient{
			ID:       id,
			Name:     req.Name,
			Email:    email,
			Password: hashed,
			Photo:    req.Photo,
			Gender:   req.Gender,
			Role:     models.RolePatient,
		}
		err = h.Stores.Patients.Create(ctx, patient)
		created = patient
	}
	if err != nil {
		if relErr := h.Stores.Emails.Release(ctx, email); relErr != nil {
			h.Log.Error().Err(relErr).Str("email", email).Msg("failed to release email claim")
		}
		if errors.Is(err, store.ErrDuplicateEmail) {
			utils.Fail(c, http.StatusBadRequest, "Email already registered", nil)
			return
		}
		h.serverError(c, "Failed to create account", err)
		return
	}

	token, err := h.Tokens.GenerateJWT(id.Hex(), string(role))
	if err != nil {
		h.serverError(c, "Could not generate token", err)
		return
	}

	h.Log.Info().Str("user_id", id.Hex()).Str("role", string(role)).Msg("account registered")
	utils.OKWithToken(c, http.StatusCreated, "Registered", token, created)
}

func (h *Handler) emailInUse(c *gin.Context, email string) (bool, error) {
	ctx := c.Request.Context()
	if _, err := h.Stores.Patients.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if _, err := h.Stores.Doctors.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// Login checks the credentials against patients first, then doctors.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Missing fields", nil)
		return
	}
	ctx := c.Request.Context()
	email := utils.NormalizeEmail(req.Email)

	var (
		id      primitive.ObjectID
		role    models.Role
		hash    string
		account interface{}
	)
	patient, err := h.Stores.Patients.FindByEmail(ctx, email)
	switch {
	case err == nil:
		id, role, hash, account = patient.ID, patient.Role, patient.Password, patient
	case errors.Is(err, store.ErrNotFound):
		doctor, derr := h.Stores.Doctors.FindByEmail(ctx, email)
		if errors.Is(derr, store.ErrNotFound) {
			utils.Fail(c, http.StatusNotFound, "User not found", nil)
			return
		}
		if derr != nil {
			h.serverError(c, "Server error", derr)
			return
		}
		id, role, hash, account = doctor.ID, doctor.Role, doctor.Password, doctor
	default:
		h.serverError(c, "Server error", err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, hash) {
		utils.Fail(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Tokens.GenerateJWT(id.Hex(), string(role))
	if err != nil {
		h.serverError(c, "Could not generate token", err)
		return
	}

	utils.OKWithToken(c, http.StatusOK, "Logged in", token, account)
}
