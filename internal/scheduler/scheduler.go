// Package scheduler runs the periodic scrape on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron for one named task.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	name       string
	task       Task
	runOnStart bool
}

// New returns a Scheduler that runs task on spec ("@every 6h", "0 */2 * * *").
// Overlapping runs are skipped.
func New(spec, name string, runOnStart bool, task Task) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		spec:       spec,
		name:       name,
		task:       task,
		runOnStart: runOnStart,
	}
}

// Start registers the task and starts the cron loop. With runOnStart the
// task also runs once right away.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("[scheduler] %s started spec=%q", s.name, s.spec)

	if s.runOnStart {
		go s.run(ctx)
	}
	return nil
}

// Stop waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("[scheduler] %s stopped", s.name)
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.task(ctx); err != nil {
		log.Printf("[%s] error: %v", s.name, err)
	}
}
