package httpapi

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"
)

// Checkpointer is implemented by stores with a write-ahead log.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

type DBHandler struct {
	Store any
}

// Checkpoint flushes the SQLite WAL. Only loopback callers may trigger it;
// stores without a WAL answer 204 without doing anything.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !fromLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "loopback only")
		return
	}
	cp, ok := h.Store.(Checkpointer)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	start := time.Now()
	if err := cp.Checkpoint(r.Context()); err != nil {
		WriteErr(w, r, err)
		return
	}
	log.Printf("[db] wal checkpoint in %s", time.Since(start).Round(time.Millisecond))
	w.WriteHeader(http.StatusNoContent)
}

func fromLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
