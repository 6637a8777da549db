package httpapi

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus whether the store answers. A store
// that does not answer turns the response into a 503.
type HealthHandler struct {
	Store   Pinger
	Poller  Poller
	Started time.Time
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	body := map[string]any{
		"ok":   true,
		"time": now.Format(time.RFC3339),
	}
	if !h.Started.IsZero() {
		body["uptime_s"] = int64(now.Sub(h.Started).Seconds())
	}
	if h.Poller != nil {
		body["scrape_running"] = h.Poller.Status().Running
	}

	status := http.StatusOK
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			body["ok"] = false
			body["store"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["store"] = "ok"
		}
	}
	WriteJSON(w, status, body)
}
