// README: Tests for Firebase auth middleware, role checks and panic recovery.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"kwenda/internal/http/middleware"
	"kwenda/internal/infra"
	"kwenda/internal/logger"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery(logger.Nop{}), middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "role": middleware.CallerRole(c)})
	})
	r.GET("/ops", middleware.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "user1"}})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/test", "").Code)
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.FirebaseToken{UID: "user1"}})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/test", "Token sometoken").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/test", "Bearer   ").Code)
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/test", "Bearer invalidtoken").Code)
}

func TestAuth_ValidToken_UIDAndRolePopulated(t *testing.T) {
	token := &infra.FirebaseToken{
		UID:    "driver123",
		Claims: map[string]interface{}{"role": "driver"},
	}
	w := get(newTestRouter(&stubVerifier{token: token}), "/test", "Bearer validtoken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"driver123","role":"driver"}`, w.Body.String())
}

func TestAuth_ValidToken_NoRoleClaim(t *testing.T) {
	token := &infra.FirebaseToken{UID: "passenger456", Claims: map[string]interface{}{}}
	w := get(newTestRouter(&stubVerifier{token: token}), "/test", "Bearer validtoken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"passenger456","role":""}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	driver := &infra.FirebaseToken{UID: "d1", Claims: map[string]interface{}{"role": "driver"}}
	admin := &infra.FirebaseToken{UID: "a1", Claims: map[string]interface{}{"role": "admin"}}

	assert.Equal(t, http.StatusForbidden, get(newTestRouter(&stubVerifier{token: driver}), "/ops", "Bearer t").Code)
	assert.Equal(t, http.StatusNoContent, get(newTestRouter(&stubVerifier{token: admin}), "/ops", "Bearer t").Code)
}

func TestRecovery(t *testing.T) {
	token := &infra.FirebaseToken{UID: "u"}
	w := get(newTestRouter(&stubVerifier{token: token}), "/panic", "Bearer t")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
