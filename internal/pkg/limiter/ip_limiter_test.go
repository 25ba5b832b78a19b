package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func doRequest(t *testing.T, handler http.Handler, remoteAddr string) int {
	t.Helper()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)
	return w.Code
}

func TestMiddlewareEnforcesBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)

	var served int
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
	}))

	require.Equal(t, http.StatusOK, doRequest(t, handler, "10.0.0.1:1000"))
	require.Equal(t, http.StatusOK, doRequest(t, handler, "10.0.0.1:1001"))
	require.Equal(t, 2, served)

	// Bucket empty: the handler is not reached again.
	doRequest(t, handler, "10.0.0.1:1002")
	require.Equal(t, 2, served)
}

func TestMiddlewareIsPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 1)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	require.Equal(t, http.StatusOK, doRequest(t, handler, "10.0.0.1:1000"))
	require.Equal(t, http.StatusOK, doRequest(t, handler, "10.0.0.2:1000"))

	// Each IP drained its own bucket independently.
	require.NotEqual(t, http.StatusOK, doRequest(t, handler, "10.0.0.1:1001"))
	require.NotEqual(t, http.StatusOK, doRequest(t, handler, "10.0.0.2:1001"))
}

func TestGetLimiterReusesInstance(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)

	first := l.GetLimiter("10.0.0.1")
	second := l.GetLimiter("10.0.0.1")
	require.Same(t, first, second)

	other := l.GetLimiter("10.0.0.2")
	require.NotSame(t, first, other)
}
