// Package health tracks console readiness, including reachability of the
// upstream document-QA API, and serves the probe endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Readiness states.
const (
	stateStarting int32 = iota
	stateReady
	stateUnreachable
	stateDraining
)

// Checker tracks console readiness. Safe for concurrent use.
type Checker struct {
	state atomic.Int32
}

// NewChecker creates a Checker in the starting state.
func NewChecker() *Checker {
	return &Checker{}
}

// SetReady marks the console ready to serve.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetUnreachable marks the upstream API unreachable. The console keeps
// serving cached data but reports not-ready to orchestration.
func (c *Checker) SetUnreachable() {
	c.state.Store(stateUnreachable)
}

// SetDraining marks the console as shutting down.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady reports whether the console is ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state name.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateUnreachable:
		return "upstream_unreachable"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

type probeResponse struct {
	Status string `json:"status"`
}

// LivenessHandler always responds 200; the process is up.
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, probeResponse{Status: "ok"})
	}
}

// ReadinessHandler responds 200 when ready and 503 otherwise, carrying the
// state name so operators can tell an upstream outage from startup.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := http.StatusOK
		if !c.IsReady() {
			status = http.StatusServiceUnavailable
		}
		writeProbe(w, status, probeResponse{Status: c.State()})
	}
}

func writeProbe(w http.ResponseWriter, code int, v probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
