package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bookingDateLayout = "2006-01-02"

type CreateBookingRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

// CreateBooking books a doctor for the calling patient and texts the doctor.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}
	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}
	date, err := time.Parse(bookingDateLayout, req.Date)
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil)
		return
	}
	ctx := c.Request.Context()

	doctor, err := h.Stores.Doctors.FindByID(ctx, doctorID)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}
	patientID, _ := middleware.CurrentUserID(c)
	patient, err := h.Stores.Patients.FindByID(ctx, patientID)
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}

	booking := &models.Booking{
		Doctor: doctorID,
		User:   patientID,
		Date:   date,
		Time:   req.Time,
		Status: models.BookingPending,
	}
	if err := h.Stores.Bookings.Create(ctx, booking); err != nil {
		h.serverError(c, "Failed to create booking", err)
		return
	}

	if h.NotificationSvc != nil {
		h.NotificationSvc.NotifyDoctorOfBooking(doctor, patient, booking)
	}

	utils.OK(c, http.StatusCreated, "Booking created successfully", booking)
}

// UpdateBookingStatus lets the booked doctor set any status and the booking
// patient cancel.
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "booking")
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}
	status := models.BookingStatus(req.Status)
	ctx := c.Request.Context()

	booking, err := h.Stores.Bookings.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Booking not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}

	callerID, _ := middleware.CurrentUserID(c)
	switch middleware.CurrentRole(c) {
	case models.RoleDoctor:
		if booking.Doctor != callerID {
			utils.Fail(c, http.StatusForbidden, "This booking is not yours", nil)
			return
		}
	case models.RolePatient:
		if booking.User != callerID {
			utils.Fail(c, http.StatusForbidden, "This booking is not yours", nil)
			return
		}
		if status != models.BookingCancelled {
			utils.Fail(c, http.StatusForbidden, "Patients can only cancel a booking", nil)
			return
		}
	default:
		utils.Fail(c, http.StatusForbidden, "You're not authorized to access this resource.", nil)
		return
	}

	updated, err := h.Stores.Bookings.UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		utils.Fail(c, http.StatusNotFound, "Booking not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Failed to update booking", err)
		return
	}
	utils.OK(c, http.StatusOK, "Booking updated successfully", updated)
}
