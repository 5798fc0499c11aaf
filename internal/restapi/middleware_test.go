package restapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/stops.json", nil)
	req.RemoteAddr = ip + ":40000"
	return req
}

func TestRateLimitMiddleware_BlocksRequestsOverLimit(t *testing.T) {
	limited := NewRateLimitMiddleware(3, time.Second)(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, requestFrom("192.0.2.1"))
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should be allowed", i+1)
	}

	w := httptest.NewRecorder()
	limited.ServeHTTP(w, requestFrom("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var body errorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Contains(t, body.Text, "Rate limit exceeded")
}

func TestRateLimitMiddleware_PerClientLimiting(t *testing.T) {
	limited := NewRateLimitMiddleware(1, time.Second)(okHandler())

	w := httptest.NewRecorder()
	limited.ServeHTTP(w, requestFrom("192.0.2.1"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	limited.ServeHTTP(w, requestFrom("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	limited.ServeHTTP(w, requestFrom("192.0.2.2"))
	assert.Equal(t, http.StatusOK, w.Code, "another client has its own budget")
}

func TestRateLimitMiddleware_ForwardedForIsNotTrustedByDefault(t *testing.T) {
	limited := NewRateLimitMiddleware(1, time.Second)(okHandler())

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := requestFrom("192.0.2.1")
		req.Header.Set("X-Forwarded-For", spoofed)
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes,
		"changing X-Forwarded-For does not buy a new budget")
}

func TestRateLimitMiddleware_TrustedProxy(t *testing.T) {
	limited := NewRateLimitMiddleware(1, time.Second, netip.MustParsePrefix("10.0.0.0/8"))(okHandler())

	send := func(client string) int {
		req := requestFrom("10.0.0.5")
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"), "clients behind the proxy are limited separately")
}

func TestRateLimitMiddleware_DisabledWhenZero(t *testing.T) {
	limited := NewRateLimitMiddleware(0, time.Second)(okHandler())
	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, requestFrom("192.0.2.1"))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_EvictsIdleClients(t *testing.T) {
	rl := newRateLimiter(5, time.Second, nil)
	defer rl.Stop()

	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.getLimiter("192.0.2.1")

	now = now.Add(limiterIdleTTL / 2)
	rl.getLimiter("192.0.2.2")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "192.0.2.1")
	assert.Contains(t, rl.limiters, "192.0.2.2")
}

func TestRateLimitMiddleware_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(5, time.Second, nil)
	rl.Stop()
	rl.Stop()
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	cfg := appconf.Default()
	cfg.RateLimit = 2
	api := createTestApiWithConfig(t, cfg)
	handler := api.Handler(httprouter.New())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("198.51.100.7"))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "198.51.100.7:40000"
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "health checks are not limited")
}

func TestRateLimitHonorsConfiguredProxies(t *testing.T) {
	cfg := appconf.Default()
	cfg.RateLimit = 1
	cfg.TrustedProxies = []string{"10.0.0.1"}
	api := createTestApiWithConfig(t, cfg)
	handler := api.Handler(httprouter.New())

	send := func(peer, client string) int {
		req := requestFrom(peer)
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1", "203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1", "203.0.113.2"))
	assert.Equal(t, http.StatusOK, send("198.51.100.7", "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.7", "203.0.113.3"),
		"an untrusted peer is keyed on its own address")
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	securityHeaders(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
	}
	for header, value := range expected {
		assert.Equal(t, value, w.Header().Get(header), header)
	}

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' https://unpkg.com")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "geolocation=(self)")
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("no origins configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stops.json", nil)
		req.Header.Set("Origin", "https://example.org")
		w := httptest.NewRecorder()
		NewCORSMiddleware(nil)(okHandler()).ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stops.json", nil)
		req.Header.Set("Origin", "https://example.org")
		w := httptest.NewRecorder()
		NewCORSMiddleware([]string{"https://example.org"})(okHandler()).ServeHTTP(w, req)
		assert.Equal(t, "https://example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stops.json", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		NewCORSMiddleware([]string{"https://example.org"})(okHandler()).ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCompressionMiddleware(t *testing.T) {
	large := strings.Repeat("transit ", 1000)
	compress, err := NewCompressionMiddleware(DefaultCompressionConfig())
	require.NoError(t, err)
	handler := compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := "application/json"
		if r.URL.Path == "/metrics" {
			contentType = "text/plain; version=0.0.4"
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(large))
	}))

	t.Run("gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stops.json", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Less(t, w.Body.Len(), len(large))
	})

	t.Run("other content types pass through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, large, w.Body.String())
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := DefaultCompressionConfig()
		cfg.Level = 42
		_, err := NewCompressionMiddleware(cfg)
		assert.ErrorContains(t, err, "configuring compression")
	})

	t.Run("gzip not accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stops.json", nil))
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, large, w.Body.String())
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	collector := metrics.NewCollector()

	handler := NewRequestLoggingMiddleware(logger, collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stops.json?date=20240103", nil)
	req.Header.Set("User-Agent", "test-agent")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/stops.json", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Equal(t, "http_server", entry["component"])

	assert.Equal(t, 1, testutil.CollectAndCount(collector.HTTPRequests))
}
