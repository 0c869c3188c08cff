package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brewcycle/brewcycle/internal/auth"
	"github.com/brewcycle/brewcycle/internal/config"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testEngine(cfg *config.Configuration) *gin.Engine {
	log := logger.NewNoopLogger()
	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(cfg, log))

	private := r.Group("/", AuthenticateMiddleware(cfg, log))
	private.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"user_id":    types.GetUserID(ctx),
			"role":       types.GetRole(ctx),
			"request_id": types.GetRequestID(ctx),
		})
	})
	private.GET("/admin", RequireAdmin, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/fail", func(c *gin.Context) {
		c.Error(ierr.NewError("subscription subs_1 not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]any{"subscription_id": "subs_1"}).
			Mark(ierr.ErrNotFound))
	})
	return r
}

func do(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_Bearer(t *testing.T) {
	cfg := config.GetDefaultConfig()
	r := testEngine(cfg)

	token, err := auth.NewTokenValidator(cfg).GenerateToken("user_1", types.RoleCustomer, time.Hour)
	require.NoError(t, err)

	w := do(r, "/whoami", map[string]string{
		"Authorization":       "Bearer " + token,
		types.HeaderRequestID: "req-123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user_1", body["user_id"])
	assert.Equal(t, "customer", body["role"])
	assert.Equal(t, "req-123", body["request_id"])
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))

	w = do(r, "/admin", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthenticate_APIKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		auth.HashAPIKey("secret-key"): {UserID: "ops", Name: "cron", IsActive: true},
	}
	r := testEngine(cfg)

	w := do(r, "/admin", map[string]string{"x-api-key": "secret-key"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(types.HeaderRequestID))

	w = do(r, "/admin", map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_Rejects(t *testing.T) {
	r := testEngine(config.GetDefaultConfig())

	tests := map[string]map[string]string{
		"no credentials": nil,
		"not bearer":     {"Authorization": "Basic dXNlcjpwYXNz"},
		"bad token":      {"Authorization": "Bearer nope"},
	}
	for name, headers := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/whoami", headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body ierr.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error.Display)
			assert.Equal(t, w.Header().Get(types.HeaderRequestID), body.Error.RequestID)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Deployment.Mode = types.ModeAPI
	r := testEngine(cfg)

	w := do(r, "/fail", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Subscription not found", body.Error.Display)
	assert.Equal(t, "subs_1", body.Error.Details["subscription_id"])
	assert.Empty(t, body.Error.InternalError)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Equal(t, w.Header().Get(types.HeaderRequestID), body.Error.RequestID)
}
