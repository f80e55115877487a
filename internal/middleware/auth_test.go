package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/store/memstore"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type guardFixture struct {
	guard   *Guard
	tokens  *utils.TokenManager
	stores  store.Stores
	patient *models.Patient
	doctor  *models.Doctor
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	ctx := context.Background()
	stores := memstore.New()
	tokens := utils.NewTokenManager("guard-secret", time.Hour)

	patient := &models.Patient{Name: "Pat", Email: "pat@example.com", Role: models.RolePatient}
	require.NoError(t, stores.Patients.Create(ctx, patient))
	doctor := &models.Doctor{Name: "Doc", Email: "doc@example.com", Role: models.RoleDoctor}
	require.NoError(t, stores.Doctors.Create(ctx, doctor))

	return &guardFixture{
		guard:   NewGuard(tokens, stores.Patients, stores.Doctors, zerolog.Nop()),
		tokens:  tokens,
		stores:  stores,
		patient: patient,
		doctor:  doctor,
	}
}

func (f *guardFixture) router(roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.GET("/protected", f.guard.Authenticate(), f.guard.Restrict(roles...), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "role": CurrentRole(c)})
	})
	return r
}

func (f *guardFixture) token(t *testing.T, id primitive.ObjectID, role models.Role) string {
	t.Helper()
	token, err := f.tokens.GenerateJWT(id.Hex(), string(role))
	require.NoError(t, err)
	return token
}

func do(r http.Handler, authHeader string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthenticate_MissingToken(t *testing.T) {
	f := newGuardFixture(t)

	w, body := do(f.router(models.RolePatient), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No token provided. Authorization denied.", body["message"])
}

func TestAuthenticate_NotBearer(t *testing.T) {
	f := newGuardFixture(t)
	token := f.token(t, f.patient.ID, models.RolePatient)

	w, _ := do(f.router(models.RolePatient), "Basic "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	f := newGuardFixture(t)

	w, body := do(f.router(models.RolePatient), "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token.", body["message"])
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newGuardFixture(t)
	expired := utils.NewTokenManager("guard-secret", -time.Minute)
	token, err := expired.GenerateJWT(f.patient.ID.Hex(), string(models.RolePatient))
	require.NoError(t, err)

	w, _ := do(f.router(models.RolePatient), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestrict_AllowsMatchingRole(t *testing.T) {
	f := newGuardFixture(t)

	w, body := do(f.router(models.RolePatient), "Bearer "+f.token(t, f.patient.ID, models.RolePatient))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, f.patient.ID.Hex(), body["id"])
	assert.Equal(t, "patient", body["role"])

	w, body = do(f.router(models.RoleDoctor), "Bearer "+f.token(t, f.doctor.ID, models.RoleDoctor))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "doctor", body["role"])
}

func TestRestrict_ForbiddenRole(t *testing.T) {
	f := newGuardFixture(t)

	w, body := do(f.router(models.RoleDoctor), "Bearer "+f.token(t, f.patient.ID, models.RolePatient))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You're not authorized to access this resource.", body["message"])
}

func TestRestrict_UsesStoredRole(t *testing.T) {
	f := newGuardFixture(t)

	// The token claims admin but the account is a plain patient.
	w, _ := do(f.router(models.RoleAdmin), "Bearer "+f.token(t, f.patient.ID, models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRestrict_DeletedAccount(t *testing.T) {
	f := newGuardFixture(t)
	token := f.token(t, f.patient.ID, models.RolePatient)
	require.NoError(t, f.stores.Patients.Delete(context.Background(), f.patient.ID))

	w, body := do(f.router(models.RolePatient), "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found.", body["message"])
}

func TestRestrict_MalformedAccountID(t *testing.T) {
	f := newGuardFixture(t)
	token, err := f.tokens.GenerateJWT("not-an-object-id", string(models.RolePatient))
	require.NoError(t, err)

	w, _ := do(f.router(models.RolePatient), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestrict_WithoutAuthenticate(t *testing.T) {
	f := newGuardFixture(t)
	r := gin.New()
	r.GET("/protected", f.guard.Restrict(models.RolePatient), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w, body := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not authenticated.", body["message"])
}
