package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"dispatch-service/internal/auth"
	"dispatch-service/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(parser *auth.Parser, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(parser)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		principal, _ := MustPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID})
	})
	router.GET("/ping", handlers...)
	return router
}

func issueToken(t *testing.T, role model.UserRole) string {
	t.Helper()
	issuer := auth.NewIssuer("secret", time.Hour, 4)
	token, _, err := issuer.Issue(&model.User{
		ID:         uuid.New(),
		Role:       role,
		MinistryID: uuid.New(),
	}, nil)
	assert.NoError(t, err)
	return token
}

func TestAuth_MissingHeader(t *testing.T) {
	router := protectedRouter(auth.NewParser("secret"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := protectedRouter(auth.NewParser("secret"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BadToken(t *testing.T) {
	router := protectedRouter(auth.NewParser("secret"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	router := protectedRouter(auth.NewParser("secret"))
	token := issueToken(t, model.UserRoleStaff)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles(t *testing.T) {
	router := protectedRouter(auth.NewParser("secret"),
		RequireRoles(model.UserRoleFleetManager, model.UserRoleAdmin))

	// A fleet manager passes.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.UserRoleFleetManager))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Staff is turned away.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.UserRoleStaff))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiter_Exhaustion(t *testing.T) {
	limiter := NewRateLimiter(3)

	router := gin.New()
	router.GET("/ping", limiter.Handle(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var last int
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		last = w.Code
		if i < 3 {
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRateLimiter_PerUserBehindSharedAddress(t *testing.T) {
	limiter := NewRateLimiter(1)
	parser := auth.NewParser("secret")

	// Same stacking order as the protected routes: auth first, then the
	// limiter, so buckets key on the user rather than the shared address.
	router := gin.New()
	router.GET("/ping", Auth(parser), limiter.Handle(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		return w.Code
	}

	first := issueToken(t, model.UserRoleStaff)
	second := issueToken(t, model.UserRoleStaff)

	assert.Equal(t, http.StatusOK, hit(first))
	assert.Equal(t, http.StatusTooManyRequests, hit(first))

	// A different user on the same address has its own bucket.
	assert.Equal(t, http.StatusOK, hit(second))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1)

	router := gin.New()
	router.GET("/ping", limiter.Handle(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1234"))

	// A different caller still has a full bucket.
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234"))
}
