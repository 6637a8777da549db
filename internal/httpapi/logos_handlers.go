package httpapi

import (
	"net/http"
	"strings"

	"github.com/Achi00/jobs-server/internal/store"
)

type LogosHandler struct {
	Store store.Repository
}

// Get serves a cached logo. Keys are content hashes, so the key doubles as
// a strong ETag and the response can be cached for a week.
func (h LogosHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing key")
		return
	}

	etag := `"` + key + `"`
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	logo, err := h.Store.GetLogo(r.Context(), key)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	ct := logo.ContentType
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(logo.Bytes)
	}
	hdr := w.Header()
	hdr.Set("Content-Type", ct)
	hdr.Set("ETag", etag)
	hdr.Set("Cache-Control", "public, max-age=604800, immutable")
	hdr.Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(logo.Bytes)
}
