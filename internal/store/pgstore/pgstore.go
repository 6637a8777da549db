// Package pgstore is the PostgreSQL implementation of store.Repository.
// Records are kept as jsonb documents next to a few indexed columns.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Repository = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
  seq BIGSERIAL,
  job_id TEXT PRIMARY KEY,
  company TEXT NOT NULL DEFAULT '',
  job_title TEXT NOT NULL DEFAULT '',
  date TIMESTAMPTZ NOT NULL,
  doc JSONB NOT NULL,
  logo_key TEXT NOT NULL DEFAULT '',
  first_seen TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_date ON jobs(date)`,
	`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  doc JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS logos (
  key TEXT PRIMARY KEY,
  content_type TEXT NOT NULL,
  bytes BYTEA NOT NULL,
  fetched_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS company_domains (
  company TEXT PRIMARY KEY,
  domain TEXT NOT NULL,
  fetched_at TIMESTAMPTZ NOT NULL
)`,
}

// Open connects, verifies the connection and creates the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Upsert(ctx context.Context, jobID string, rec domain.JobRecord) error {
	rec.JobID = jobID
	doc, err := store.EncodeRecord(rec)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	_, err = s.pool.Exec(ctx, `
INSERT INTO jobs(job_id, company, job_title, date, doc, first_seen, updated_at)
VALUES($1, $2, $3, $4, $5::jsonb, $6, $6)
ON CONFLICT(job_id) DO UPDATE SET
  company = excluded.company,
  job_title = excluded.job_title,
  date = excluded.date,
  doc = excluded.doc,
  updated_at = excluded.updated_at
WHERE jobs.doc IS DISTINCT FROM excluded.doc`,
		jobID, rec.Company, rec.JobTitle, rec.Date.UTC(), string(doc), now,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]domain.JobRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JobRecord{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		rec, err := store.DecodeRecord(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, jobID string) (domain.JobRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM jobs WHERE job_id = $1`, jobID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.JobRecord{}, fmt.Errorf("job %s: %w", jobID, store.ErrNotFound)
	}
	if err != nil {
		return domain.JobRecord{}, err
	}
	return store.DecodeRecord(doc)
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE date < $1 AND updated_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListJobs(ctx context.Context, opts store.ListJobsOpts) ([]store.Listed, error) {
	opts = opts.Normalize()

	where := ""
	args := []any{opts.Limit}
	if cutoff, ok := opts.Cutoff(s.now()); ok {
		where = "WHERE date >= $2"
		args = append(args, cutoff.UTC())
	}

	query := fmt.Sprintf(`
SELECT doc, logo_key, first_seen
FROM jobs
%s
ORDER BY %s
LIMIT $1`, where, opts.OrderBy())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Listed{}
	for rows.Next() {
		var (
			doc       []byte
			logoKey   string
			firstSeen time.Time
		)
		if err := rows.Scan(&doc, &logoKey, &firstSeen); err != nil {
			return nil, err
		}
		rec, err := store.DecodeRecord(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Listed{JobRecord: rec, FirstSeen: firstSeen.UTC(), CompanyLogoURL: store.LogoURL(logoKey)})
	}
	return out, rows.Err()
}
