package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func serve(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterPerClient(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := NewRateLimiter(0.001, 2).Handler(ok)

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1002"))

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1000"))
}

func TestRateLimiterDisabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := NewRateLimiter(0, 1).Handler(ok)

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000"))
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.limiter("10.0.0.1")
	l.limiter("10.0.0.2")
	assert.Len(t, l.limiters, 2)

	now = now.Add(2 * limiterIdleTTL)
	l.limiter("10.0.0.3")
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "10.0.0.3")
}
