package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-with-enough-length-0123456789",
		Issuer:     "erp-fulfillment-test",
		Expiration: expiration,
	})
}

func newAuthEngine(svc *auth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), JWTAuthMiddleware(JWTMiddlewareConfig{
		Validator:        svc,
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/docs/"},
	}))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/docs/*any", func(c *gin.Context) { c.Status(http.StatusOK) })

	handlers := append(extra, func(c *gin.Context) {
		actor, ok := GetAuthContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})
	engine.GET("/whoami", handlers...)
	return engine
}

func doGet(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newJWTService(time.Hour)
	engine := newAuthEngine(svc)
	actor := fulfillment.AuthContext{UserID: uuid.New(), CompanyID: uuid.New(), Role: fulfillment.RoleClient}
	token, _, err := svc.GenerateToken(actor)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := doGet(engine, "/whoami", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), actor.UserID.String())
		assert.Contains(t, w.Body.String(), `"role":"client"`)
	})

	t.Run("skip path", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doGet(engine, "/health", "").Code)
		assert.Equal(t, http.StatusUnauthorized, doGet(engine, "/health/deep", "").Code)
	})

	t.Run("skip path prefix", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doGet(engine, "/docs/index.html", "").Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := doGet(engine, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		w := doGet(engine, "/whoami", token+"x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	issuer := newJWTService(-time.Minute)
	token, _, err := issuer.GenerateToken(fulfillment.AuthContext{UserID: uuid.New(), Role: fulfillment.RoleAdmin})
	require.NoError(t, err)

	w := doGet(newAuthEngine(newJWTService(time.Hour)), "/whoami", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeError(t, w).Code)
}

func TestJWTAuthMiddleware_UnknownRole(t *testing.T) {
	svc := newJWTService(time.Hour)
	token, _, err := svc.GenerateToken(fulfillment.AuthContext{UserID: uuid.New(), Role: fulfillment.Role("auditor")})
	require.NoError(t, err)

	w := doGet(newAuthEngine(svc), "/whoami", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
}

func TestRequireRoles(t *testing.T) {
	svc := newJWTService(time.Hour)
	engine := newAuthEngine(svc, RequireRoles(fulfillment.RoleAdmin, fulfillment.RoleStaffAdmin))

	admin, _, err := svc.GenerateToken(fulfillment.AuthContext{UserID: uuid.New(), Role: fulfillment.RoleStaffAdmin})
	require.NoError(t, err)
	client, _, err := svc.GenerateToken(fulfillment.AuthContext{UserID: uuid.New(), CompanyID: uuid.New(), Role: fulfillment.RoleClient})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doGet(engine, "/whoami", admin).Code)

	w := doGet(engine, "/whoami", client)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
}

func TestRequireRoles_WithoutAuthentication(t *testing.T) {
	engine := gin.New()
	engine.GET("/admin", RequireRoles(fulfillment.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
