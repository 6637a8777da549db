package httpapi

import (
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/events"
)

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	OnConfig    func(config.Config)
	Hub         *events.Hub
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.CfgVal.Load().(config.Config))
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeJSON(r, &incoming, true); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteValidation(w, r, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	if h.OnConfig != nil {
		h.OnConfig(saved)
	}
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeConfigUpdated, nil))
	}
	WriteJSON(w, http.StatusOK, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.CfgVal.Load().(config.Config))
	WriteJSON(w, http.StatusOK, vr)
}
