package httpapi

import (
	"net/http"

	"github.com/Achi00/jobs-server/internal/rank"
	"github.com/Achi00/jobs-server/internal/secrets"
)

// NewMux returns the raw mux so main() can still wrap it in middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Store: d.Store, Poller: d.Poller, Started: d.Started}.Health,
	}))

	// Jobs
	jh := JobsHandler{Store: d.Store, Pipeline: d.Ingest, Hub: d.Hub}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    jh.List,
		http.MethodDelete: jh.DeleteAll,
	}))
	mux.HandleFunc("/jobs/ingest", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Ingest,
	}))
	mux.HandleFunc("/jobs/{jobId}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Get,
	}))

	// Profiles and ranking
	ph := ProfilesHandler{
		Store:  d.Store,
		Ranker: d.Ranker,
		Hub:    d.Hub,
		DefaultPageSize: func() int {
			return currentConfig(d).Scoring.DefaultPageSize
		},
		DefaultMode: func() rank.Mode {
			m, _ := rank.ParseMode(currentConfig(d).Scoring.Mode)
			return m
		},
	}
	mux.HandleFunc("/users/{id}/profile", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Get,
		http.MethodPut: ph.Put,
	}))
	mux.HandleFunc("/users/{id}/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Ranked,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		OnConfig:    d.OnConfig,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sec := d.Secrets
	if sec == nil {
		sec = secrets.Keyring{}
	}
	sh := SecretsHandler{CfgVal: d.CfgVal, Store: sec}
	mux.HandleFunc("/api/secrets/{kind}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    sh.Status,
		http.MethodPost:   sh.Set,
		http.MethodDelete: sh.Delete,
	}))

	// Scrape
	sch := ScrapeHandler{Poller: d.Poller, BaseCtx: d.BaseCtx}
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))
	mux.HandleFunc("/scrape/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub, Heartbeat: d.SSEHeartbeat}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Logos
	lh := LogosHandler{Store: d.Store}
	mux.HandleFunc("/logo/{key}", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Get,
	}))

	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: DBHandler{Store: d.Store}.Checkpoint,
	}))

	return mux
}
