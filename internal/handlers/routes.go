package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
)

// Routes mounts the API under /api/v1 plus a liveness text at /.
func (h *Handler) Routes(r gin.IRouter, g *middleware.Guard) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Api is working")
	})

	auth := g.Authenticate()
	patient := g.Restrict(models.RolePatient)
	doctor := g.Restrict(models.RoleDoctor)
	admin := g.Restrict(models.RoleAdmin)

	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", h.GetAllDoctors)
		doctors.GET("/profile/me", auth, doctor, h.GetDoctorProfile)
		doctors.GET("/:id", h.GetSingleDoctor)
		doctors.PUT("/:id", auth, doctor, h.UpdateDoctor)
		doctors.DELETE("/:id", auth, admin, h.DeleteDoctor)
		doctors.PATCH("/:id/approval", auth, admin, h.SetDoctorApproval)

		doctors.GET("/:id/reviews", h.GetDoctorReviews)
		doctors.POST("/:id/reviews", auth, patient, h.CreateReview)
		doctors.DELETE("/:id/reviews/:reviewId", auth, g.Restrict(models.RolePatient, models.RoleAdmin), h.DeleteReview)
	}

	users := api.Group("/users")
	{
		users.GET("", auth, admin, h.GetAllUsers)
		users.GET("/profile/me", auth, patient, h.GetUserProfile)
		users.GET("/appointments/my-appointments", auth, patient, h.GetMyAppointments)
		users.GET("/:id", auth, patient, h.GetSingleUser)
		users.PUT("/:id", auth, patient, h.UpdateUser)
		users.DELETE("/:id", auth, patient, h.DeleteUser)
	}

	api.GET("/reviews", h.GetAllReviews)

	bookings := api.Group("/bookings", auth)
	{
		bookings.POST("", patient, h.CreateBooking)
		bookings.PATCH("/:id/status", g.Restrict(models.RoleDoctor, models.RolePatient), h.UpdateBookingStatus)
	}
}
