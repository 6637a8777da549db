package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
)

// Upsert stores rec under jobID. An identical document is left untouched so
// repeated runs do not change stored state.
func (d *DB) Upsert(ctx context.Context, jobID string, rec domain.JobRecord) error {
	rec.JobID = jobID
	doc, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	now := DateKey(d.now())
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO jobs(job_id, company, job_title, date, doc, first_seen, updated_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(job_id) DO UPDATE SET
  company = excluded.company,
  job_title = excluded.job_title,
  date = excluded.date,
  doc = excluded.doc,
  updated_at = excluded.updated_at
WHERE jobs.doc IS NOT excluded.doc;`,
		jobID, rec.Company, rec.JobTitle, DateKey(rec.Date), string(doc), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// FindAll returns every record in insertion order.
func (d *DB) FindAll(ctx context.Context) ([]domain.JobRecord, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT doc FROM jobs ORDER BY rowid;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JobRecord{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		rec, err := DecodeRecord([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) FindByID(ctx context.Context, jobID string) (domain.JobRecord, error) {
	var doc string
	err := d.Pool.QueryRowContext(ctx, `SELECT doc FROM jobs WHERE job_id = ? LIMIT 1;`, jobID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobRecord{}, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return domain.JobRecord{}, err
	}
	return DecodeRecord([]byte(doc))
}

func (d *DB) DeleteAll(ctx context.Context) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM jobs;`)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Prune deletes jobs posted before the cutoff that have not been written
// since it. A record upserted after the cutoff always survives.
func (d *DB) Prune(ctx context.Context, before time.Time) (int64, error) {
	key := DateKey(before)
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM jobs WHERE date < ? AND updated_at < ?;`, key, key)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *DB) ListJobs(ctx context.Context, opts ListJobsOpts) ([]Listed, error) {
	opts = opts.Normalize()

	where := ""
	args := []any{}
	if cutoff, ok := opts.Cutoff(d.now()); ok {
		where = "WHERE date >= ?"
		args = append(args, DateKey(cutoff))
	}
	args = append(args, opts.Limit)

	// order and where are whitelisted above
	query := fmt.Sprintf(`
SELECT doc, logo_key, first_seen
FROM jobs
%s
ORDER BY %s
LIMIT ?;
`, where, opts.OrderBy())

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Listed{}
	for rows.Next() {
		var doc, logoKey, firstSeen string
		if err := rows.Scan(&doc, &logoKey, &firstSeen); err != nil {
			return nil, err
		}
		rec, err := DecodeRecord([]byte(doc))
		if err != nil {
			return nil, err
		}
		seen, _ := time.Parse(time.RFC3339, firstSeen)
		out = append(out, Listed{JobRecord: rec, FirstSeen: seen, CompanyLogoURL: LogoURL(logoKey)})
	}
	return out, rows.Err()
}
