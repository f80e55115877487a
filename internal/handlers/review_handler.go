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

type CreateReviewRequest struct {
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText string `json:"reviewText" binding:"required"`
}

func (h *Handler) GetAllReviews(c *gin.Context) {
	ctx := c.Request.Context()
	reviews, err := h.Stores.Reviews.List(ctx)
	if err != nil {
		h.serverError(c, "Not found", err)
		return
	}
	views, err := h.populateReviews(ctx, reviews)
	if err != nil {
		h.serverError(c, "Not found", err)
		return
	}
	utils.OKList(c, http.StatusOK, "Successful", views, len(views))
}

func (h *Handler) GetDoctorReviews(c *gin.Context) {
	doctorID, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	reviews, err := h.Stores.Reviews.ListByDoctor(ctx, doctorID)
	if err != nil {
		h.serverError(c, "Not found", err)
		return
	}
	views, err := h.populateReviews(ctx, reviews)
	if err != nil {
		h.serverError(c, "Not found", err)
		return
	}
	utils.OKList(c, http.StatusOK, "Successful", views, len(views))
}

// CreateReview stores the caller's review of a doctor and refreshes the
// doctor's rating.
func (h *Handler) CreateReview(c *gin.Context) {
	doctorID, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.ValidationMessage(err), nil)
		return
	}
	authorID, _ := middleware.CurrentUserID(c)

	review, err := h.Reviews.Create(c.Request.Context(), doctorID, authorID, req.Rating, req.ReviewText)
	switch {
	case errors.Is(err, store.ErrNotFound) && review == nil:
		utils.Fail(c, http.StatusNotFound, "Doctor not found", nil)
		return
	case err != nil && review == nil:
		h.serverError(c, "Failed to submit review", err)
		return
	case err != nil:
		// The review is stored; only the derived rating is stale.
		h.Log.Error().Err(err).Str("review_id", review.ID.Hex()).Msg("review saved but rating not refreshed")
		h.serverError(c, "Review saved but rating could not be updated", err)
		return
	}

	utils.OK(c, http.StatusCreated, "Review added successfully", review)
}

// DeleteReview lets the author or an admin remove a review.
func (h *Handler) DeleteReview(c *gin.Context) {
	doctorID, ok := objectIDParam(c, "id", "doctor")
	if !ok {
		return
	}
	reviewID, ok := objectIDParam(c, "reviewId", "review")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	review, err := h.Stores.Reviews.FindByID(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && review.Doctor != doctorID) {
		utils.Fail(c, http.StatusNotFound, "Review not found", nil)
		return
	}
	if err != nil {
		h.serverError(c, "Server error", err)
		return
	}

	callerID, _ := middleware.CurrentUserID(c)
	if review.User != callerID && middleware.CurrentRole(c) != models.RoleAdmin {
		utils.Fail(c, http.StatusForbidden, "You can only delete your own review", nil)
		return
	}

	if err := h.Reviews.Remove(ctx, review); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(c, http.StatusNotFound, "Review not found", nil)
			return
		}
		h.serverError(c, "Failed to delete review", err)
		return
	}
	utils.OK(c, http.StatusOK, "Review deleted successfully", nil)
}
