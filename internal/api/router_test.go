package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/core/ratelimit"
	"skincare-ingredients/internal/infrastructure/config"
)

type recordingAdmitter struct {
	mu          sync.Mutex
	identifiers []string
}

func (a *recordingAdmitter) Admit(ctx context.Context, endpoint, identifier string, maxRequests int, window time.Duration) (ratelimit.Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identifiers = append(a.identifiers, identifier)
	return ratelimit.Decision{Allowed: true, CurrentCount: int64(len(a.identifiers))}, nil
}

type emptyResolver struct{}

func (emptyResolver) Resolve(ctx context.Context, raws []string, forceExternal bool) ([]chemistry.Result, error) {
	return []chemistry.Result{}, nil
}

func testConfig(trusted []string) *config.Config {
	return &config.Config{
		App:       config.AppConfig{Version: "test"},
		Server:    config.ServerConfig{RequestTimeout: 5 * time.Second, TrustedProxies: trusted},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 20, Window: time.Minute},
		Limits:    config.LimitsConfig{MaxBodyBytes: 50 * 1024, MaxIngredients: 50, MaxNameLength: 200},
	}
}

func resolveFrom(t *testing.T, router http.Handler, remoteAddr, forwardedFor string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingredients/resolve", strings.NewReader(`{"ingredients":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitKeyIgnoresForwardedForByDefault(t *testing.T) {
	admitter := &recordingAdmitter{}
	router, err := SetupRouter(testConfig(nil), Dependencies{Resolver: emptyResolver{}, Admitter: admitter})
	require.NoError(t, err)

	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		resolveFrom(t, router, "10.0.0.9:4567", xff)
	}

	assert.Equal(t, []string{"10.0.0.9", "10.0.0.9", "10.0.0.9"}, admitter.identifiers)
}

func TestRateLimitKeyHonorsTrustedProxy(t *testing.T) {
	admitter := &recordingAdmitter{}
	router, err := SetupRouter(testConfig([]string{"10.0.0.0/8"}), Dependencies{Resolver: emptyResolver{}, Admitter: admitter})
	require.NoError(t, err)

	resolveFrom(t, router, "10.0.0.9:4567", "1.1.1.1")
	resolveFrom(t, router, "192.0.2.7:4567", "2.2.2.2")

	assert.Equal(t, []string{"1.1.1.1", "192.0.2.7"}, admitter.identifiers)
}

func TestSetupRouterRejectsInvalidProxy(t *testing.T) {
	_, err := SetupRouter(testConfig([]string{"not-an-ip"}), Dependencies{Resolver: emptyResolver{}, Admitter: &recordingAdmitter{}})
	assert.Error(t, err)
}
