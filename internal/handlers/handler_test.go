package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/store/memstore"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Count   int             `json:"count"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	handler *Handler
	stores  store.Stores
	tokens  *utils.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	stores := memstore.New()
	tokens := utils.NewTokenManager("handler-test-secret", time.Hour)
	h := NewHandler(stores, tokens, nil, bcrypt.MinCost, zerolog.Nop())
	guard := middleware.NewGuard(tokens, stores.Patients, stores.Doctors, zerolog.Nop())

	r := gin.New()
	h.Routes(r, guard)
	return &testServer{t: t, router: r, handler: h, stores: stores, tokens: tokens}
}

func (s *testServer) request(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// account is the decoded data of a register or login response.
type account struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Password    string  `json:"password"`
	IsApproved  string  `json:"isApproved"`
	TotalRating float64 `json:"totalRating"`
	NumReviews  int     `json:"numReviews"`
}

func (s *testServer) register(name, email, role string, extra map[string]interface{}) (account, string) {
	s.t.Helper()
	body := map[string]interface{}{"name": name, "email": email, "password": "secret123", "role": role}
	for k, v := range extra {
		body[k] = v
	}
	w, env := s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var acc account
	require.NoError(s.t, json.Unmarshal(env.Data, &acc))
	return acc, env.Token
}

func (s *testServer) approve(doctorID string) {
	s.t.Helper()
	id := mustObjectID(s.t, doctorID)
	_, err := s.stores.Doctors.SetApproval(context.Background(), id, models.ApprovalApproved)
	require.NoError(s.t, err)
}

func (s *testServer) admin() string {
	s.t.Helper()
	admin := &models.Patient{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(s.t, s.stores.Patients.Create(context.Background(), admin))
	token, err := s.tokens.GenerateJWT(admin.ID.Hex(), string(models.RoleAdmin))
	require.NoError(s.t, err)
	return token
}

func (s *testServer) doctor(id string) account {
	s.t.Helper()
	w, env := s.request(http.MethodGet, "/api/v1/doctors/"+id, "", nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var acc account
	require.NoError(s.t, json.Unmarshal(env.Data, &acc))
	return acc
}
