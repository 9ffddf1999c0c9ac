package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// StatsSource reports the live counters the admin dashboard surfaces.
// cacheengine.Cache[T] satisfies this via its Len method; hit/miss
// totals come from the metrics collector, which the caller wires in.
type StatsSource interface {
	Len() int
}

// HistoryPoint is one capped in-memory sample in the dashboard's
// history ring. History is diagnostic only — it does not survive a
// restart, matching the explicit non-goal against persisted state.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Entries   int       `json:"entries"`
}

// AdminHandler serves a small JSON status/stats endpoint plus a capped
// in-memory history ring, ported from the original's metrics/dashboard.rs
// minus its on-disk persistence (persistence across restarts is an
// explicit non-goal here).
type AdminHandler struct {
	source   StatsSource
	capacity int

	mu      sync.Mutex
	history []HistoryPoint
}

// NewAdminHandler constructs an AdminHandler with a history ring capped
// at capacity samples.
func NewAdminHandler(source StatsSource, capacity int) *AdminHandler {
	if capacity <= 0 {
		capacity = 500
	}
	return &AdminHandler{source: source, capacity: capacity}
}

// Sample records a history point. Call periodically (e.g. from a
// time.Ticker in main) to build up the dashboard's trend view.
func (h *AdminHandler) Sample(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, HistoryPoint{Timestamp: now, Entries: h.source.Len()})
	if len(h.history) > h.capacity {
		h.history = h.history[len(h.history)-h.capacity:]
	}
}

type adminStatusResponse struct {
	Entries int            `json:"entries"`
	History []HistoryPoint `json:"history"`
}

// Status handles GET /admin/status: current entry count plus the
// history ring.
func (h *AdminHandler) Status(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	history := make([]HistoryPoint, len(h.history))
	copy(history, h.history)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(adminStatusResponse{
		Entries: h.source.Len(),
		History: history,
	})
}
