package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewIPLimiter(0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middlewarectx.RateLimitMiddleware(newNoopLogger(), limiter)(next)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"), "other clients have their own bucket")
}
