package types

import (
	"context"

	"github.com/Achi00/jobs-server/internal/domain"
)

// Batch is what one source produced in one run. Finalize, when set, runs
// only after the batch has been stored (marking mail seen, moving files).
type Batch struct {
	Source    string
	Fragments []domain.RawScrapeFragment
	Finalize  func(context.Context) error
}

type Source interface {
	Name() string
	Fetch(ctx context.Context) (Batch, error)
}

// SourceStatus is the outcome of the most recent run of one source.
type SourceStatus struct {
	Name      string `json:"name"`
	Fetched   int    `json:"fetched"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Missed    int    `json:"missed"`
	Error     string `json:"error,omitempty"`
	DurMS     int64  `json:"durMs"`
}

type ScrapeStatus struct {
	LastRunAt string         `json:"last_run_at"`
	LastOkAt  string         `json:"last_ok_at"`
	LastError string         `json:"last_error"`
	LastAdded int            `json:"last_added"`
	Running   bool           `json:"running"`
	Sources   []SourceStatus `json:"sources,omitempty"`
}
