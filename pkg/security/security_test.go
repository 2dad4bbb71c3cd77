package security

import (
	"exam_engine_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !l.Allow("user:1", now) {
			t.Fatalf("request %d rejected inside burst", i+1)
		}
	}
	if l.Allow("user:1", now) {
		t.Fatal("fourth request allowed")
	}
	if !l.Allow("user:2", now) {
		t.Fatal("other key throttled")
	}
	// 每 20 秒补一个令牌
	if !l.Allow("user:1", now.Add(21*time.Second)) {
		t.Fatal("token not refilled")
	}
}

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(10, time.Minute)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l.Allow("ip:a", now)
	l.Allow("ip:b", now.Add(3*time.Minute))

	if left := l.Sweep(now.Add(4 * time.Minute)); left != 1 {
		t.Fatalf("remaining visitors = %d, want 1", left)
	}
}

func TestRateLimiterKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user", &util.Claims{UserID: util.MustParseUint(id)})
		}
	})
	r.POST("/start", RateLimiter(1, time.Hour, ByUser), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/start", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10"); code != http.StatusCreated {
		t.Fatalf("first request = %d", code)
	}
	if code := send("10"); code != http.StatusTooManyRequests {
		t.Fatalf("second request from same user = %d, want 429", code)
	}
	if code := send("11"); code != http.StatusCreated {
		t.Fatalf("other user = %d, want 201", code)
	}
}

func TestSecureHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Secure())
	r.GET("/api/exams", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/exams", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("api Cache-Control = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("metrics Cache-Control = %q, want empty", got)
	}
}

func TestCORSAllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/api/exams", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]string{
		"http://localhost:3000": "http://localhost:3000",
		"http://evil.example":   "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/exams", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: allow-origin = %q, want %q", origin, got, want)
		}
	}
}
