package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler holds everything the route handlers need.
type Handler struct {
	Stores          store.Stores
	Reviews         *services.ReviewService
	Ratings         *services.RatingAggregator
	NotificationSvc *services.NotificationService
	Tokens          *utils.TokenManager
	BcryptCost      int
	Log             zerolog.Logger
}

func NewHandler(
	stores store.Stores,
	tokens *utils.TokenManager,
	notificationSvc *services.NotificationService,
	bcryptCost int,
	log zerolog.Logger,
) *Handler {
	ratings := services.NewRatingAggregator(stores.Reviews, stores.Doctors, log)
	return &Handler{
		Stores:          stores,
		Ratings:         ratings,
		Reviews:         services.NewReviewService(stores.Reviews, stores.Doctors, ratings, log),
		NotificationSvc: notificationSvc,
		Tokens:          tokens,
		BcryptCost:      bcryptCost,
		Log:             log,
	}
}

// objectIDParam parses a path parameter, answering 400 when it is malformed.
func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// serverError logs the cause and answers 500.
func (h *Handler) serverError(c *gin.Context, message string, err error) {
	h.Log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(message)
	_ = c.Error(err)
	utils.Fail(c, http.StatusInternalServerError, message, err)
}
