package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Achi00/jobs-server/internal/assemble"
	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/rank"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/store"
)

type Ingester interface {
	ProcessBatch(ctx context.Context, frags []domain.RawScrapeFragment) assemble.Metrics
}

type Ranker interface {
	Score(ctx context.Context, profileID string, page, pageSize int, mode rank.Mode) (rank.Page, error)
}

type Poller interface {
	PollOnce(ctx context.Context) (types.ScrapeStatus, error)
	Status() types.ScrapeStatus
}

type SecretStore interface {
	Has(account string) bool
	Set(account, value string) error
	Delete(account string) error
}

type Deps struct {
	Store  store.Repository
	Ingest Ingester
	Ranker Ranker
	Hub    *events.Hub
	Poller Poller

	// Secrets defaults to the OS keychain.
	Secrets SecretStore

	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	// OnConfig runs after a config save succeeds.
	OnConfig func(config.Config)

	// BaseCtx outlives single requests; background scrape runs use it.
	BaseCtx context.Context

	Started      time.Time
	SSEHeartbeat time.Duration
}
