package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Achi00/jobs-server/internal/poll"
)

type ScrapeHandler struct {
	Poller  Poller
	BaseCtx context.Context
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Poller.Status())
}

// Run starts a poll in the background. Progress arrives as SSE events and
// through /scrape/status.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Poller.Status().Running {
		WriteErr(w, r, poll.ErrAlreadyRunning)
		return
	}

	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if _, err := h.Poller.PollOnce(ctx); err != nil && !errors.Is(err, poll.ErrAlreadyRunning) {
			log.Printf("[poll] manual run: %v", err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
