package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"secure-share-api/internal/infrastructure/jwt"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := jwt.New("test-secret", time.Hour)
	userID := uuid.New()

	valid, err := j.GenerateJWT(userID.String(), "user", time.Hour)
	require.NoError(t, err)
	notUUID, err := j.GenerateJWT("42", "user", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"non uuid subject", "Bearer " + notUUID, http.StatusUnauthorized},
		{"ok", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", AuthMiddleware(j), func(c *gin.Context) {
				id, ok := CallerID(c)
				require.True(t, ok)
				assert.Equal(t, userID, id)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := jwt.New("test-secret", time.Hour)

	tests := []struct {
		name string
		role string
		code int
	}{
		{"admin passes", "admin", http.StatusOK},
		{"user rejected", "user", http.StatusForbidden},
		{"empty role rejected", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := j.GenerateJWT(uuid.NewString(), tt.role, time.Hour)
			require.NoError(t, err)

			r := gin.New()
			r.GET("/admin", AuthMiddleware(j), RequireRole("admin"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
		})
	}

	t.Run("without auth context", func(t *testing.T) {
		r := gin.New()
		r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestCallerID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CallerID(c)
	assert.False(t, ok)
}

func TestRequestLogGin_MasksSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen []byte
	r := gin.New()
	r.Use(RequestLogGin(zap.New(core), nil))
	r.POST("/login", func(c *gin.Context) {
		seen, _ = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	payload := `{"email":"a@b.io","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/login?key=deadbeef&x=1", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, payload, string(seen), "handler still gets the full body")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields["query"], "deadbeef")
	assert.Contains(t, fields["query"], "x=1")
	assert.NotContains(t, fields["body"], "hunter2")
	assert.Contains(t, fields["body"], "a@b.io")
}

func TestRequestLogGin_LargeBodyReachesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var n int
	r := gin.New()
	r.Use(RequestLogGin(zap.NewNop(), nil))
	r.POST("/x", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		n = len(b)
		c.Status(http.StatusOK)
	})

	big := bytes.Repeat([]byte("a"), 3*maxLogBodySize)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(big)))
	assert.Equal(t, len(big), n)
}
