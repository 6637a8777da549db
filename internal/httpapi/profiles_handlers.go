package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/rank"
	"github.com/Achi00/jobs-server/internal/store"
)

type ProfilesHandler struct {
	Store  store.Repository
	Ranker Ranker
	Hub    *events.Hub

	// DefaultPageSize and DefaultMode apply when the query omits them.
	DefaultPageSize func() int
	DefaultMode     func() rank.Mode
}

func (h ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.FindProfile(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h ProfilesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	if err := decodeJSON(r, &p, false); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	p.ID = r.PathValue("id")
	if p.CreatedAt.IsZero() {
		if old, err := h.Store.FindProfile(r.Context(), p.ID); err == nil {
			p.CreatedAt = old.CreatedAt
		} else {
			p.CreatedAt = time.Now().UTC()
		}
	}
	p.Skills = trimNonEmpty(p.Skills)

	if err := h.Store.UpsertProfile(r.Context(), p); err != nil {
		WriteErr(w, r, err)
		return
	}
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeProfileUpdated, map[string]string{"id": p.ID}))
	}
	WriteJSON(w, http.StatusOK, p)
}

// Ranked serves GET /users/{id}/jobs?page=&limit=&mode=.
func (h ProfilesHandler) Ranked(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if limit == 0 && h.DefaultPageSize != nil {
		limit = h.DefaultPageSize()
	}

	modeParam := r.URL.Query().Get("mode")
	mode, ok := rank.ParseMode(modeParam)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "mode must be full or simple")
		return
	}
	if strings.TrimSpace(modeParam) == "" && h.DefaultMode != nil {
		mode = h.DefaultMode()
	}

	res, err := h.Ranker.Score(r.Context(), r.PathValue("id"), page, limit, mode)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func trimNonEmpty(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}
