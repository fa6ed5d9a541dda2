package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	router := gin.New()
	router.Use(NewRateLimiter(rps, burst).Middleware())
	router.POST("/auth/login", func(c *gin.Context) { c.Status(200) })
	return router
}

func hit(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = ip + ":40000"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	router := limitedRouter(1, 2)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		codes = append(codes, hit(router, "10.0.0.1"))
	}

	for i := 0; i < 2; i++ {
		if codes[i] != http.StatusOK {
			t.Errorf("request %d within burst: status = %d, want %d", i, codes[i], http.StatusOK)
		}
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Errorf("request past burst: status = %d, want %d", codes[3], http.StatusTooManyRequests)
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	router := limitedRouter(1, 1)

	if code := hit(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first IP: status = %d, want %d", code, http.StatusOK)
	}
	// First IP exhausted its burst; a different IP must still get through.
	hit(router, "10.0.0.1")
	if code := hit(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("second IP: status = %d, want %d", code, http.StatusOK)
	}
}
