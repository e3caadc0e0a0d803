package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_StateTransitions(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, "starting", c.State())
	assert.False(t, c.IsReady())

	c.SetReady()
	assert.Equal(t, "ready", c.State())
	assert.True(t, c.IsReady())

	c.SetUnreachable()
	assert.Equal(t, "upstream_unreachable", c.State())
	assert.False(t, c.IsReady())

	c.SetDraining()
	assert.Equal(t, "draining", c.State())
	assert.False(t, c.IsReady())
}

func TestLivenessHandler_AlwaysOK(t *testing.T) {
	c := NewChecker()
	c.SetUnreachable()

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestReadinessHandler(t *testing.T) {
	c := NewChecker()

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "starting")

	c.SetReady()
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	c.SetUnreachable()
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_unreachable")
}

func TestProbe_DrivesChecker(t *testing.T) {
	var mu sync.Mutex
	pingErr := errors.New("connection refused")

	checker := NewChecker()
	probe := NewProbe(checker, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		return pingErr
	}, 10*time.Millisecond, nil)

	probe.Start()
	defer probe.Close()

	assert.Eventually(t, func() bool {
		return checker.State() == "upstream_unreachable"
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	pingErr = nil
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return checker.IsReady()
	}, time.Second, 5*time.Millisecond, "recovered upstream flips the console back to ready")
}

func TestProbe_DrainingIsTerminal(t *testing.T) {
	checker := NewChecker()
	probe := NewProbe(checker, func(context.Context) error { return nil }, 10*time.Millisecond, nil)

	probe.Start()
	defer probe.Close()

	assert.Eventually(t, func() bool { return checker.IsReady() }, time.Second, 5*time.Millisecond)

	checker.SetDraining()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "draining", checker.State(), "successful pings must not revive a draining console")
}
