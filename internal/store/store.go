package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Repository is the persistence contract of the engine. Upsert is
// last-write-wins per jobId.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.JobRecord, error)
	FindByID(ctx context.Context, jobID string) (domain.JobRecord, error)
	Upsert(ctx context.Context, jobID string, rec domain.JobRecord) error
	DeleteAll(ctx context.Context) (int64, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	ListJobs(ctx context.Context, opts ListJobsOpts) ([]Listed, error)

	FindProfile(ctx context.Context, id string) (domain.UserProfile, error)
	UpsertProfile(ctx context.Context, p domain.UserProfile) error

	GetLogo(ctx context.Context, key string) (Logo, error)
	LogoStore

	Ping(ctx context.Context) error
	Close() error
}

// LogoStore is what the logo cache needs.
type LogoStore interface {
	HasLogo(ctx context.Context, key string) (bool, error)
	PutLogo(ctx context.Context, key string, logo Logo) error
	SetLogoKey(ctx context.Context, jobID, key string) error
	CompanyDomain(ctx context.Context, company string) (string, error)
	UpsertCompanyDomain(ctx context.Context, company, domain string) error
}

type Logo struct {
	ContentType string
	Bytes       []byte
}

type ListJobsOpts struct {
	Sort   string // date | company | title
	Window string // 24h | 7d | all
	Limit  int
}

// Listed is a stored record plus listing metadata.
type Listed struct {
	domain.JobRecord
	FirstSeen      time.Time `json:"firstSeen"`
	CompanyLogoURL string    `json:"companyLogoURL,omitempty"`
}

const (
	defaultListLimit = 500
	maxListLimit     = 2000
)

// Normalize applies defaults and the sort/window whitelists.
func (o ListJobsOpts) Normalize() ListJobsOpts {
	switch o.Sort {
	case "date", "company", "title":
	default:
		o.Sort = "date"
	}
	switch o.Window {
	case "24h", "7d", "all":
	default:
		o.Window = "all"
	}
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Limit > maxListLimit {
		o.Limit = maxListLimit
	}
	return o
}

// OrderBy is the whitelisted ORDER BY clause for Sort.
func (o ListJobsOpts) OrderBy() string {
	switch o.Sort {
	case "company":
		return "company ASC, date DESC"
	case "title":
		return "job_title ASC, date DESC"
	default:
		return "date DESC"
	}
}

// Cutoff is the oldest date inside Window; ok is false for "all".
func (o ListJobsOpts) Cutoff(now time.Time) (time.Time, bool) {
	switch o.Window {
	case "24h":
		return now.Add(-24 * time.Hour), true
	case "7d":
		return now.Add(-7 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

const dateLayout = "2006-01-02T15:04:05Z"

// DateKey is the fixed-width UTC form dates are stored and compared in.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// EncodeRecord is the document form of a record.
func EncodeRecord(rec domain.JobRecord) ([]byte, error) {
	b, err := json.Marshal(rec.Clean())
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", rec.JobID, err)
	}
	return b, nil
}

func DecodeRecord(b []byte) (domain.JobRecord, error) {
	var rec domain.JobRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode job: %w", err)
	}
	return rec, nil
}

func LogoURL(key string) string {
	if key == "" {
		return ""
	}
	return "/logo/" + key
}

func NormalizeCompanyKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
