package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/events"
)

const sseHeartbeat = 25 * time.Second

type EventsHandler struct {
	Hub *events.Hub
	// Heartbeat overrides sseHeartbeat when non-zero.
	Heartbeat time.Duration
}

// ServeSSE streams hub events. A client that reconnects with Last-Event-ID
// first receives whatever it missed that is still in the hub backlog.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	ch, replay := h.Hub.Subscribe(lastID)
	defer h.Hub.Unsubscribe(ch)

	writeSSE(w, events.New(RequestIDFrom(r.Context()), events.TypePing, nil).Encode())
	for _, msg := range replay {
		writeSSE(w, msg)
	}
	flusher.Flush()

	every := h.Heartbeat
	if every <= 0 {
		every = sseHeartbeat
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, msg)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, msg string) {
	if id := eventID(msg); id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
}

// eventID reads the envelope id without decoding the whole payload.
func eventID(msg string) string {
	const key = `"id":"`
	i := strings.Index(msg, key)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(key):]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return ""
}
