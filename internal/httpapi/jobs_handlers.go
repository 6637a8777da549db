package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/scrape/dump"
	"github.com/Achi00/jobs-server/internal/store"
)

type JobsHandler struct {
	Store    store.Repository
	Pipeline Ingester
	Hub      *events.Hub
}

func (h JobsHandler) publish(r *http.Request, typ string, data any) {
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), typ, data))
	}
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	jobs, err := h.Store.ListJobs(r.Context(), store.ListJobsOpts{
		Sort: q.Get("sort"), Window: q.Get("window"), Limit: limit,
	})
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

func (h JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.FindByID(r.Context(), r.PathValue("jobId"))
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	}
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h JobsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.DeleteAll(r.Context())
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	h.publish(r, events.TypeJobsDeleted, map[string]any{"deleted": n})
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

// Ingest accepts one fragment or an array of them and runs the batch
// through the pipeline synchronously.
func (h JobsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	frags, err := dump.Parse(raw)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	if len(frags) == 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "no fragments in body")
		return
	}
	for i := range frags {
		if frags[i].Source == "" {
			frags[i].Source = "api"
		}
	}

	m := h.Pipeline.ProcessBatch(r.Context(), frags)
	WriteJSON(w, http.StatusOK, m)
}
