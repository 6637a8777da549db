package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/Achi00/jobs-server/internal/assemble"
	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/extract"
	"github.com/Achi00/jobs-server/internal/httpapi"
	"github.com/Achi00/jobs-server/internal/poll"
	"github.com/Achi00/jobs-server/internal/rank"
	"github.com/Achi00/jobs-server/internal/scheduler"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/scrape/util"
	"github.com/Achi00/jobs-server/internal/secrets"
	"github.com/Achi00/jobs-server/internal/store"
)

func main() {
	started := time.Now()
	config.LoadDotEnv(".env")

	// Engine data dir: env if provided, else the working directory.
	dataDir := os.Getenv("JOBS_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock data dir: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running on %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		c, err := config.Load(userCfgPath)
		if err != nil {
			return c, err
		}
		if err := config.OverlayCompanies(&c, filepath.Join(dataDir, "companies.yml")); err != nil {
			return c, err
		}
		config.ApplyEnv(&c)
		return c, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		for _, e := range vr.Errors {
			log.Printf("[config] error: %s", e)
		}
		log.Fatalf("config invalid (%s)", userCfgPath)
	}
	cfgVal.Store(cfg)
	current := func() config.Config { return cfgVal.Load().(config.Config) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg, dataDir)
	if err != nil {
		log.Fatalf("open store (%s): %v", cfg.Store.Driver, err)
	}
	defer repo.Close()

	enricher, closeEnricher, err := newEnricher(ctx, cfg)
	if err != nil {
		log.Fatalf("enrichment: %v", err)
	}
	defer func() { _ = closeEnricher() }()

	hub := events.NewHub()
	limiter := util.NewHostLimiter(cfg.Polling.RequestsPerSecond, cfg.Polling.Burst)
	logos := &store.LogoCache{
		Store:   repo,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Limiter: limiter,
	}

	pipeline := &assemble.Pipeline{
		Vocab:    extract.NewVocabulary(cfg.Extraction.SkillVocabulary),
		Enricher: enricher,
		Sink:     repo,
		Workers:  cfg.Extraction.Workers,
		OnUpsert: func(ctx context.Context, rec domain.JobRecord) {
			if _, err := logos.Remember(ctx, rec); err != nil {
				log.Printf("[logo] job_id=%s: %v", rec.JobID, err)
			}
			hub.Publish(events.MakeEvent("", events.TypeJobUpserted, map[string]string{"jobId": rec.JobID}))
		},
	}

	ranker := rank.Service{
		Corpus:   repo,
		Profiles: repo,
		Opts: rank.Options{
			SimilarityThreshold: cfg.Scoring.SimilarityThreshold,
			TitleBonus:          cfg.Scoring.TitleBonus,
		},
		MaxPageSize: cfg.Scoring.MaxPageSize,
	}

	poller := &poll.Poller{
		Sources: func() []types.Source {
			c := current()
			return poll.BuildSources(c, resolve(dataDir, c.Sources.Dump.Dir), limiter, func() (string, error) {
				return secrets.Get(secrets.IMAPPassword, secrets.Account(secrets.IMAPPassword, c))
			})
		},
		Pipeline: pipeline,
		Store:    repo,
		Retention: func() time.Duration {
			return time.Duration(current().Store.RetentionDays) * 24 * time.Hour
		},
		SourceTimeout: func() time.Duration {
			return time.Duration(current().Polling.SourceTimeoutSeconds) * time.Second
		},
		Hub: hub,
	}

	sched := &reschedulable{task: func(ctx context.Context) error {
		_, err := poller.PollOnce(ctx)
		if errors.Is(err, poll.ErrAlreadyRunning) {
			return nil
		}
		return err
	}}
	if err := sched.start(ctx, cfg.Polling.Schedule, cfg.Polling.RunOnStart); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.stop()

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       repo,
		Ingest:      pipeline,
		Ranker:      ranker,
		Hub:         hub,
		Poller:      poller,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		OnConfig: func(c config.Config) {
			limiter.SetRate(c.Polling.RequestsPerSecond, c.Polling.Burst)
			if err := sched.start(ctx, c.Polling.Schedule, false); err != nil {
				log.Printf("[scheduler] keeping previous schedule: %v", err)
			}
		},
		BaseCtx: ctx,
		Started: started,
	})

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(token, stop))

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (store=%s data=%s)", addr, cfg.Store.Driver, dataDir)
	log.Printf("SHUTDOWN_TOKEN=%s", token)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.AccessLog,
			httpapi.Recover,
			httpapi.MaxBytes(16<<20),
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("engine stopped")
}

// reschedulable swaps the cron schedule when the config changes.
type reschedulable struct {
	mu   sync.Mutex
	spec string
	cur  *scheduler.Scheduler
	task scheduler.Task
}

func (r *reschedulable) start(ctx context.Context, spec string, runOnStart bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil && spec == r.spec {
		return nil
	}
	next := scheduler.New(spec, "poll", runOnStart, r.task)
	if err := next.Start(ctx); err != nil {
		return err
	}
	if r.cur != nil {
		go r.cur.Stop()
	}
	r.cur, r.spec = next, spec
	return nil
}

func (r *reschedulable) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		r.cur.Stop()
	}
}
