package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-quote/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness flag. The server clears it when draining.
func SetReady(v bool) { ready.Store(v) }

// Pinger is a dependency that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	// Store is the snapshot store; nil means an in-process store that is always up.
	Store        Pinger
	StoreTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the snapshot store probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	storeStatus := "ok"
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.storeTimeout())
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			storeStatus = err.Error()
		}
	}
	status := http.StatusOK
	if storeStatus != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, map[string]string{"status": "ok", "store": storeStatus})
}

func (h Handler) storeTimeout() time.Duration {
	if h.StoreTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.StoreTimeout
}
