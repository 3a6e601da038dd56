package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "request_id": c.GetString(ContextRequestID)})
	})
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", "test", time.Hour)
	m := NewAuthMiddleware(jwtSvc)
	r := newEngine(m.Authenticate())

	user := &model.User{Base: model.Base{ID: uuid.New()}, Email: "ana@casa.org", Role: model.UserRoleStaff}
	token, _, err := jwtSvc.GenerateAccessToken(user)
	require.NoError(t, err)

	expired, _, err := auth.NewJWTService("secret", "test", -time.Minute).GenerateAccessToken(user)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusForbidden},
		{"expired token", "Bearer " + expired, http.StatusForbidden},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := do(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), user.ID.String())
			} else {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(nil)
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(ContextUserRole, role) }
	}

	w := do(newEngine(setRole("staff"), m.RequireRole(model.UserRoleAdmin)), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newEngine(setRole("admin"), m.RequireRole(model.UserRoleAdmin)), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w = do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Contains(t, w.Body.String(), "abc-123")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"internal server error"}`, w.Body.String())
}

func TestLogger_KeepsBodyForHandler(t *testing.T) {
	r := newEngine(Logger())
	w := do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Ana"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Ana"}`, w.Body.String())
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: time.Second}))
	r.GET("/deadline", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	w := do(r, httptest.NewRequest(http.MethodGet, "/deadline", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(DefaultCORSConfig("https://admin.casa.org")))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://admin.casa.org")
	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.casa.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = do(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// Same-origin and non-browser calls carry no Origin and pass untouched.
	w = do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 2})
	r := newEngine(rl.RateLimit())

	for i := 0; i < 2; i++ {
		w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.9:4000"
	assert.Equal(t, http.StatusOK, do(r, other).Code)
}

func TestSizeLimit(t *testing.T) {
	r := newEngine(SizeLimit(16))
	w := do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"a very long name indeed"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	w := do(newEngine(SecurityHeaders(DefaultSecurityConfig())), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRegisterValidators(t *testing.T) {
	RegisterValidators()
	RegisterValidators()

	type body struct {
		Date string `json:"entry_date" binding:"required,isodate"`
	}
	r := gin.New()
	r.POST("/date", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.Status(http.StatusOK)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/date", strings.NewReader(`{"entry_date":"2025-02-30"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "entry_date")

	w = do(r, httptest.NewRequest(http.MethodPost, "/date", strings.NewReader(`{"entry_date":"2025-02-28"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}
