package assemble

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
)

// Sink stores assembled records. Upsert must be idempotent per jobID.
type Sink interface {
	Upsert(ctx context.Context, jobID string, rec domain.JobRecord) error
}

// Enricher is the optional experience/knowledge extractor.
type Enricher interface {
	ExtractExperienceAndKnowledge(ctx context.Context, text string) (domain.Enrichment, error)
}

var ErrMissingJobID = errors.New("fragment has no jobId")

// Metrics summarises one batch.
type Metrics struct {
	RunID     string `json:"runId"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Missed    int    `json:"missed"`
	DurMS     int64  `json:"durMs"`
}

type Pipeline struct {
	Vocab    extract.Vocabulary
	Enricher Enricher
	Sink     Sink
	Workers  int
	Now      func() time.Time

	// OnUpsert runs after each stored record.
	OnUpsert func(ctx context.Context, rec domain.JobRecord)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Extract runs every extraction step for one fragment and assembles the
// record without storing it. Enrichment failures leave the enrichment
// fields empty.
func (p *Pipeline) Extract(ctx context.Context, f domain.RawScrapeFragment) domain.JobRecord {
	details := extract.ParseDetails(f.DescriptionHTML)

	jobInfo := domain.Text(details.InfoText()).OrElse(domain.Text(f.JobInfo)).Or("")
	descText := details.Text
	if descText == "" {
		descText = extract.CleanLines(f.Description)
	}

	skills := extract.ReconcileSkills(f.Skills)
	if len(skills) == 0 && details.Skills != "" {
		skills = extract.ReconcileSkills(domain.DelimitedSkills(details.Skills))
	}
	if len(skills) == 0 {
		skills = extract.ExtractSkillsFromText(descText, p.Vocab)
	}

	parts := Parts{
		Insights:        extract.ParseInsights(f.Insights, jobInfo),
		Skills:          skills,
		Description:     extract.NormalizeDescription(descText),
		DescriptionText: descText,
		JobInfo:         jobInfo,
		Details:         details,
	}

	if p.Enricher != nil && descText != "" {
		en, err := p.Enricher.ExtractExperienceAndKnowledge(ctx, descText)
		if err != nil {
			log.Printf("[pipeline] enrichment failed job_id=%s: %v", f.JobID, err)
		} else {
			parts.Enrichment = &en
		}
	}

	return Assemble(f, parts, p.now())
}

// Process extracts and stores one fragment.
func (p *Pipeline) Process(ctx context.Context, f domain.RawScrapeFragment) (domain.JobRecord, error) {
	rec := p.Extract(ctx, f)
	if rec.JobID == "" {
		return rec, ErrMissingJobID
	}
	if p.Sink == nil {
		return rec, errors.New("pipeline has no sink")
	}
	if err := p.Sink.Upsert(ctx, rec.JobID, rec); err != nil {
		return rec, fmt.Errorf("upsert %s: %w", rec.JobID, err)
	}
	if p.OnUpsert != nil {
		p.OnUpsert(ctx, rec)
	}
	return rec, nil
}

// ProcessBatch pushes fragments through the pipeline in parallel. A failed
// record is logged and counted; it never stops the rest of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, frags []domain.RawScrapeFragment) Metrics {
	start := time.Now()
	m := Metrics{RunID: uuid.NewString()}

	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)

	for _, f := range frags {
		g.Go(func() error {
			_, err := p.Process(ctx, f)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrMissingJobID):
				m.Missed++
				log.Printf("[pipeline] missed fragment without jobId title=%q source=%s", f.Title, f.Source)
			case err != nil:
				m.Failed++
				log.Printf("[pipeline] %v", err)
			default:
				m.Processed++
			}
			return nil
		})
	}
	_ = g.Wait()

	m.DurMS = time.Since(start).Milliseconds()
	log.Printf("[pipeline] run=%s processed=%d failed=%d missed=%d dur_ms=%d",
		m.RunID, m.Processed, m.Failed, m.Missed, m.DurMS)
	return m
}
