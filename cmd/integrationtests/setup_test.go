package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "bidhouse/internal/auctionService"
	"bidhouse/internal/clock"
	"bidhouse/internal/identity"
	"bidhouse/internal/repository"
	"bidhouse/internal/server"
	"bidhouse/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "integration-test-signing-key"

// TestEnv bundles the router with the mock clock so tests can move time.
type TestEnv struct {
	Router *gin.Engine
	Clock  *clock.Mock
	Repo   *repository.MemoryRepo
}

// SetupTestEnv initializes the full router over the in-memory store.
// The mock clock is anchored at the real current time so that issued
// tokens remain valid while the tests advance auction time.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewMock(time.Now().UTC())
	repo := repository.NewMemoryRepo()

	identityProvider, err := identity.NewProvider(repo, testSigningKey, 30*time.Minute, clk)
	require.NoError(t, err)

	service := auction.NewAuctionService(repo, clk, false)
	router := server.SetupRouter(service, identityProvider, identityProvider)

	return &TestEnv{Router: router, Clock: clk, Repo: repo}
}

// ExecuteRequest executes an HTTP request and parses the response envelope.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// RegisterAndLogin creates a user through the API and returns a bearer token.
func RegisterAndLogin(t *testing.T, router *gin.Engine, username, password string, isAdmin bool) string {
	t.Helper()

	_, w := ExecuteRequest(t, router, http.MethodPost, "/api/users", "", helpers.RegisterRequest{
		Username: username,
		Password: password,
		IsAdmin:  isAdmin,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w := ExecuteRequest(t, router, http.MethodPost, "/api/token", "", helpers.LoginRequest{
		Username: username,
		Password: password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]any)
	token := data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

// CreateTestItem creates an item through the API and returns its id.
func CreateTestItem(t *testing.T, env *TestEnv, adminToken string, name string, startPrice float64, endTime time.Time) int64 {
	t.Helper()

	resp, w := ExecuteRequest(t, env.Router, http.MethodPost, "/api/items", adminToken, helpers.CreateItemRequest{
		Name:       name,
		StartPrice: startPrice,
		EndTime:    endTime,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	return int64(data["id"].(float64))
}
