package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
)

type UpdateDoctorRequest struct {
	Name           *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Photo          *string `json:"photo,omitempty"`
	Gender         *string `json:"gender,omitempty" binding:"omitempty,oneof=male female other"`
	Specialization *string `json:"specialization,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	Password       *string `json:"password,omitempty" binding:"omitempty,min=6"`
}

// GetAllDoctors lists every doctor, or with ?query= only approved doctors
// whose name or specialization matches. Reviews and appointments are
// resolved on each.
func (h *Handler) GetAllDoctors(c *gin.Context) {
	ctx := c.Request.Context()
	doctors, err := h.Stores.Doctors.Search(ctx, c.Query("query"))
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	details, err := h.doctorDetails(ctx, doctors)
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	utils.OKList(c, http.StatusOK, "Doctors retrieved successfully", details, len(details))
}

func (h *Handler) GetSingleDoctor(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	doctor, err := h.Stores.Doctors.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	detail, err := h.doctorDetail(c.Request.Context(), doctor)
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	utils.OK(c, http.StatusOK, "Doctor found successfully", detail)
}

// UpdateDoctor lets a doctor change their own record.
func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	if callerID, _ := middleware.CurrentUserID(c); callerID != id {
		utils.Fail(c, http.StatusForbidden, "You can only update your own profile", nil)
		return
	}

	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}

	upd := models.DoctorUpdate{
		Name:           req.Name,
		Photo:          req.Photo,
		Gender:         req.Gender,
		Specialization: req.Specialization,
		Phone:          req.Phone,
		Bio:            req.Bio,
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			h.serverError(c, "Failed to hash password", err)
			return
		}
		upd.Password = &hashed
	}
	if upd == (models.DoctorUpdate{}) {
		utils.Fail(c, http.StatusBadRequest, "No update fields provided", nil)
		return
	}

	updated, err := h.Stores.Doctors.Update(c.Request.Context(), id, upd)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	utils.OK(c, http.StatusOK, "Doctor updated successfully", updated)
}

// DeleteDoctor removes the doctor together with its reviews and bookings.
func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	doctor, err := h.Stores.Doctors.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}

	if err := h.Stores.Doctors.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, "Server error", err)
		return
	}
	if _, err := h.Reviews.RemoveByDoctor(ctx, id); err != nil {
		h.serverError(c, "Doctor deleted but reviews could not be removed", err)
		return
	}
	if _, err := h.Stores.Bookings.DeleteByDoctor(ctx, id); err != nil {
		h.serverError(c, "Doctor deleted but bookings could not be removed", err)
		return
	}
	if err := h.Stores.Emails.Release(ctx, doctor.Email); err != nil {
		h.Log.Error().Err(err).Str("email", doctor.Email).Msg("failed to release email claim")
	}

	utils.OK(c, http.StatusOK, "Doctor deleted successfully", nil)
}

// GetDoctorProfile returns the authenticated doctor's own record.
func (h *Handler) GetDoctorProfile(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	doctor, err := h.Stores.Doctors.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Failed to fetch doctor profile", err)
		return
	}
	detail, err := h.doctorDetail(c.Request.Context(), doctor)
	if err != nil {
		h.serverError(c, "Failed to fetch doctor profile", err)
		return
	}
	utils.OK(c, http.StatusOK, "Doctor profile fetched successfully", detail)
}

// SetDoctorApproval is the admin switch behind the search filter.
func (h *Handler) SetDoctorApproval(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=pending approved cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}

	updated, err := h.Stores.Doctors.SetApproval(c.Request.Context(), id, models.ApprovalStatus(req.Status))
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	utils.OK(c, http.StatusOK, "Doctor approval updated", updated)
}
