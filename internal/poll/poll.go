package poll

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Achi00/jobs-server/internal/assemble"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/scrape/types"
)

var ErrAlreadyRunning = errors.New("a scrape run is already in progress")

type Processor interface {
	ProcessBatch(ctx context.Context, frags []domain.RawScrapeFragment) assemble.Metrics
}

type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Publisher interface {
	Publish(evt string)
}

// Poller runs every source once per call and feeds the fragments through
// the pipeline. Sources is called per run so config edits take effect on
// the next poll.
type Poller struct {
	Sources       func() []types.Source
	Pipeline      Processor
	Store         Pruner
	Retention     func() time.Duration
	SourceTimeout func() time.Duration
	Hub           Publisher
	Now           func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	status  types.ScrapeStatus
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Poller) Status() types.ScrapeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status
	st.Running = p.running.Load()
	st.Sources = append([]types.SourceStatus(nil), p.status.Sources...)
	return st
}

func (p *Poller) publish(typ string, data any) {
	if p.Hub != nil {
		p.Hub.Publish(events.MakeEvent("", typ, data))
	}
}

// PollOnce fetches all sources concurrently, then processes each batch.
// A failing source is recorded in its status and never stops the rest.
func (p *Poller) PollOnce(ctx context.Context) (types.ScrapeStatus, error) {
	if !p.running.CompareAndSwap(false, true) {
		return p.Status(), ErrAlreadyRunning
	}
	defer p.running.Store(false)

	started := p.now()
	p.mu.Lock()
	p.status.LastRunAt = started.Format(time.RFC3339)
	p.mu.Unlock()
	p.publish(events.TypeScrapeStarted, nil)

	var sources []types.Source
	if p.Sources != nil {
		sources = p.Sources()
	}

	timeout := 5 * time.Minute
	if p.SourceTimeout != nil && p.SourceTimeout() > 0 {
		timeout = p.SourceTimeout()
	}

	batches := make([]types.Batch, len(sources))
	stats := make([]types.SourceStatus, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			t0 := time.Now()
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[poll] %s running", src.Name())
			b, err := src.Fetch(fctx)
			stats[i] = types.SourceStatus{Name: src.Name(), Fetched: len(b.Fragments)}
			if err != nil {
				log.Printf("[poll] %s error: %v", src.Name(), err)
				stats[i].Error = err.Error()
			}
			batches[i] = b
			stats[i].DurMS = time.Since(t0).Milliseconds()
			return nil
		})
	}
	_ = g.Wait()

	var added int
	var errs []error
	for i, b := range batches {
		if stats[i].Error != "" {
			errs = append(errs, errors.New(stats[i].Name+": "+stats[i].Error))
		}
		if len(b.Fragments) > 0 {
			m := p.Pipeline.ProcessBatch(ctx, b.Fragments)
			stats[i].Processed, stats[i].Failed, stats[i].Missed = m.Processed, m.Failed, m.Missed
			added += m.Processed
		}
		if b.Finalize == nil {
			continue
		}
		if stats[i].Failed > 0 {
			log.Printf("[poll] %s: %d records failed; leaving source unacknowledged", stats[i].Name, stats[i].Failed)
			continue
		}
		if err := b.Finalize(ctx); err != nil {
			log.Printf("[poll] %s finalize: %v", stats[i].Name, err)
			stats[i].Error = "finalize: " + err.Error()
			errs = append(errs, err)
		}
	}

	p.prune(ctx)

	err := errors.Join(errs...)

	p.mu.Lock()
	p.status.LastAdded = added
	p.status.Sources = stats
	if err != nil {
		p.status.LastError = err.Error()
	} else {
		p.status.LastError = ""
		p.status.LastOkAt = p.now().Format(time.RFC3339)
	}
	p.mu.Unlock()

	log.Printf("[poll] done sources=%d added=%d dur_ms=%d", len(sources), added, time.Since(started).Milliseconds())
	st := p.Status()
	st.Running = false
	p.publish(events.TypeScrapeFinished, st)
	return st, err
}

func (p *Poller) prune(ctx context.Context) {
	if p.Store == nil || p.Retention == nil {
		return
	}
	keep := p.Retention()
	if keep <= 0 {
		return
	}
	n, err := p.Store.Prune(ctx, p.now().Add(-keep))
	if err != nil {
		log.Printf("[poll] prune: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[poll] pruned %d records older than %s", n, keep)
		p.publish(events.TypeJobsDeleted, map[string]int64{"deleted": n})
	}
}
