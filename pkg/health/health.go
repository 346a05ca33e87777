// Package health tracks whether the object store answers.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sgaunet/s3grab/pkg/dto"
)

// Status represents the current health status.
type Status string

const (
	// StatusHealthy indicates the store answered the last probe.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the last probe failed.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown indicates no probe has run yet.
	StatusUnknown Status = "unknown"
)

// Prober is the call used to check the store.
type Prober interface {
	ListBuckets(ctx context.Context) ([]dto.Bucket, error)
}

// StoreHealth tracks object store connectivity.
type StoreHealth struct {
	mu                  sync.RWMutex
	store               Prober
	status              Status
	lastCheck           time.Time
	lastError           error
	consecutiveFailures int
	logger              *slog.Logger
	checkInterval       time.Duration
	probeTimeout        time.Duration
	cancel              context.CancelFunc
}

// Info contains current health information.
type Info struct {
	Status              Status    `json:"status"`
	LastCheck           time.Time `json:"last_check"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	IsConnected         bool      `json:"is_connected"`
}

// NewStoreHealth creates a monitor probing store every interval.
func NewStoreHealth(store Prober, interval time.Duration) *StoreHealth {
	const (
		defaultCheckInterval = 30 * time.Second
		defaultProbeTimeout  = 5 * time.Second
	)
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &StoreHealth{
		store:         store,
		status:        StatusUnknown,
		logger:        slog.New(slog.DiscardHandler),
		checkInterval: interval,
		probeTimeout:  defaultProbeTimeout,
	}
}

// SetLogger sets the logger
func (h *StoreHealth) SetLogger(log *slog.Logger) {
	h.logger = log
}

// Start runs a first probe, then keeps probing in the background.
func (h *StoreHealth) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	h.Check(ctx)

	go h.healthCheckLoop(ctx)
}

// Stop stops the health monitoring.
func (h *StoreHealth) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

// GetHealthInfo returns current health information.
func (h *StoreHealth) GetHealthInfo() Info {
	h.mu.RLock()
	defer h.mu.RUnlock()

	errorMsg := ""
	if h.lastError != nil {
		errorMsg = h.lastError.Error()
	}

	return Info{
		Status:              h.status,
		LastCheck:           h.lastCheck,
		LastError:           errorMsg,
		ConsecutiveFailures: h.consecutiveFailures,
		IsConnected:         h.status == StatusHealthy,
	}
}

// IsHealthy returns true if the store answered the last probe.
func (h *StoreHealth) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status == StatusHealthy
}

func (h *StoreHealth) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Check probes the store once and records the result.
func (h *StoreHealth) Check(ctx context.Context) {
	h.mu.RLock()
	store := h.store
	h.mu.RUnlock()

	var err error
	if store != nil {
		probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
		_, err = store.ListBuckets(probeCtx)
		cancel()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCheck = time.Now()

	if store == nil {
		h.status = StatusUnhealthy
		h.lastError = nil
		h.consecutiveFailures++
		return
	}

	if err != nil {
		h.status = StatusUnhealthy
		h.lastError = err
		h.consecutiveFailures++

		h.logger.Debug("Store health check failed",
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", h.consecutiveFailures))
		return
	}

	wasUnhealthy := h.status == StatusUnhealthy
	h.status = StatusHealthy
	h.lastError = nil
	h.consecutiveFailures = 0
	if wasUnhealthy {
		h.logger.Info("Store health restored")
	}
}
