package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker tracks liveness of the trading loop and serves it as JSON.
type HealthChecker struct {
	mu            sync.RWMutex
	startTime     time.Time
	lastCycle     time.Time
	lastPrice     float64
	openPositions int
	errors        []string
}

// HealthStatus is the JSON shape of the health endpoint.
type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	LastCycle     time.Time `json:"last_cycle"`
	LastPrice     float64   `json:"last_price"`
	OpenPositions int       `json:"open_positions"`
	Uptime        string    `json:"uptime"`
	Errors        []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a health checker anchored at the current time.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		errors:    make([]string, 0),
	}
}

// RecordCycle marks a completed trading cycle.
func (h *HealthChecker) RecordCycle(price float64, openPositions int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastPrice = price
	h.openPositions = openPositions
	h.errors = h.errors[:0]
}

// RecordError notes a cycle failure; it is cleared by the next good cycle.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.lastCycle.IsZero() && time.Since(h.lastCycle) > 24*time.Hour {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
		code = http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		LastCycle:     h.lastCycle,
		LastPrice:     h.lastPrice,
		OpenPositions: h.openPositions,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Errors:        h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
