package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the guard for handlers to use.
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// Guard authenticates bearer tokens and restricts routes to a set of roles.
type Guard struct {
	Tokens   *utils.TokenManager
	Patients store.PatientStore
	Doctors  store.DoctorStore
	Log      zerolog.Logger
}

func NewGuard(tokens *utils.TokenManager, patients store.PatientStore, doctors store.DoctorStore, log zerolog.Logger) *Guard {
	return &Guard{Tokens: tokens, Patients: patients, Doctors: doctors, Log: log}
}

// Authenticate verifies the bearer token and attaches the account id and role
// to the request. It does not check that the account still exists.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Abort(c, http.StatusUnauthorized, "No token provided. Authorization denied.")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Abort(c, http.StatusUnauthorized, "No token provided. Authorization denied.")
			return
		}

		claims, err := g.Tokens.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			g.Log.Debug().Err(err).Msg("token rejected")
			utils.Abort(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, models.Role(claims.Role))

		c.Next()
	}
}

// Restrict lets the request through only if the authenticated account still
// exists and its role is one of roles. Patients are looked up before doctors.
func (g *Guard) Restrict(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			utils.Abort(c, http.StatusUnauthorized, "User not authenticated.")
			return
		}

		role, err := g.lookupRole(c, userID)
		if errors.Is(err, store.ErrNotFound) {
			utils.Abort(c, http.StatusNotFound, "User not found.")
			return
		}
		if err != nil {
			g.Log.Error().Err(err).Str("user_id", userID.Hex()).Msg("role lookup failed")
			utils.Abort(c, http.StatusInternalServerError, "Server error in role restriction.")
			return
		}

		if !hasRole(roles, role) {
			utils.Abort(c, http.StatusForbidden, "You're not authorized to access this resource.")
			return
		}

		// The stored role wins over the one in the token.
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

func (g *Guard) lookupRole(c *gin.Context, id primitive.ObjectID) (models.Role, error) {
	ctx := c.Request.Context()
	patient, err := g.Patients.FindByID(ctx, id)
	if err == nil {
		return patient.Role, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	doctor, err := g.Doctors.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return doctor.Role, nil
}

func hasRole(allowed []models.Role, role models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentUserID returns the authenticated account id, if any.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}
	hex, _ := raw.(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// CurrentRole returns the caller's role as last set by the guard.
func CurrentRole(c *gin.Context) models.Role {
	raw, _ := c.Get(UserRoleKey)
	role, _ := raw.(models.Role)
	return role
}
