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

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Photo    *string `json:"photo,omitempty"`
	Gender   *string `json:"gender,omitempty" binding:"omitempty,oneof=male female other"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6"`
}

func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.Stores.Patients.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to fetch users", err)
		return
	}
	utils.OKList(c, http.StatusOK, "Users found", users, len(users))
}

func (h *Handler) GetSingleUser(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.Stores.Patients.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "No user found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	utils.OK(c, http.StatusOK, "User found", user)
}

// UpdateUser lets a patient change their own record.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	if callerID, _ := middleware.CurrentUserID(c); callerID != id {
		utils.Fail(c, http.StatusForbidden, "You can only update your own profile", nil)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}

	upd := models.PatientUpdate{Name: req.Name, Photo: req.Photo, Gender: req.Gender}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			h.serverError(c, "Failed to hash password", err)
			return
		}
		upd.Password = &hashed
	}
	if upd == (models.PatientUpdate{}) {
		utils.Fail(c, http.StatusBadRequest, "No update fields provided", nil)
		return
	}

	updated, err := h.Stores.Patients.Update(c.Request.Context(), id, upd)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "No user found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Failed to update", err)
		return
	}
	utils.OK(c, http.StatusOK, "Successfully updated", updated)
}

// DeleteUser removes the caller's own account along with their reviews and
// bookings. Doctors that lose a review are recomputed.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	if callerID, _ := middleware.CurrentUserID(c); callerID != id {
		utils.Fail(c, http.StatusForbidden, "You can only delete your own account", nil)
		return
	}
	ctx := c.Request.Context()

	user, err := h.Stores.Patients.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "No user found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}

	if _, err := h.Reviews.RemoveByAuthor(ctx, id); err != nil {
		h.serverError(c, "Failed to remove user reviews", err)
		return
	}
	if _, err := h.Stores.Bookings.DeleteByPatient(ctx, id); err != nil {
		h.serverError(c, "Failed to remove user bookings", err)
		return
	}
	if err := h.Stores.Patients.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, "Failed to delete", err)
		return
	}
	if err := h.Stores.Emails.Release(ctx, user.Email); err != nil {
		h.Log.Error().Err(err).Str("email", user.Email).Msg("failed to release email claim")
	}

	utils.OK(c, http.StatusOK, "Successfully deleted", nil)
}

func (h *Handler) GetUserProfile(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	user, err := h.Stores.Patients.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Something went wrong, cannot get profile", err)
		return
	}
	utils.OK(c, http.StatusOK, "Profile info is getting", user)
}

// GetMyAppointments lists the caller's bookings, newest first, with the
// doctor of each booking resolved.
func (h *Handler) GetMyAppointments(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	bookings, err := h.Stores.Bookings.ListByPatient(ctx, id)
	if err != nil {
		h.serverError(c, "Something went wrong, cannot get appointments", err)
		return
	}
	views, err := h.populateBookings(ctx, bookings)
	if err != nil {
		h.serverError(c, "Something went wrong, cannot get appointments", err)
		return
	}
	utils.OKList(c, http.StatusOK, "Appointments are getting", views, len(views))
}
