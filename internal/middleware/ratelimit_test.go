package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/state", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func stateRequest(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/state", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsNormalPolling(t *testing.T) {
	router := limitedRouter(NewRateLimiter(10, 10))

	if code := stateRequest(router, "192.168.1.1"); code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_BlocksBurstOverflow(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 2))

	// Burn through the burst, then the next request must be rejected.
	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = stateRequest(router, "10.0.0.1")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 1))

	if code := stateRequest(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("first kiosk: expected %d, got %d", http.StatusOK, code)
	}

	// A second kiosk gets its own bucket even after the first spent its burst.
	stateRequest(router, "10.0.0.1")
	if code := stateRequest(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("second kiosk: expected %d, got %d", http.StatusOK, code)
	}
}
