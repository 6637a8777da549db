package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (d *DB) GetLogo(ctx context.Context, key string) (Logo, error) {
	var l Logo
	err := d.Pool.QueryRowContext(ctx,
		`SELECT content_type, bytes FROM logos WHERE key = ? LIMIT 1;`, key,
	).Scan(&l.ContentType, &l.Bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return l, fmt.Errorf("logo %s: %w", key, ErrNotFound)
	}
	return l, err
}

func (d *DB) HasLogo(ctx context.Context, key string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM logos WHERE key = ? LIMIT 1;`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (d *DB) PutLogo(ctx context.Context, key string, l Logo) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT OR REPLACE INTO logos(key, content_type, bytes, fetched_at)
VALUES(?,?,?,?);`,
		key, l.ContentType, l.Bytes, DateKey(d.now()),
	)
	return err
}

func (d *DB) SetLogoKey(ctx context.Context, jobID, key string) error {
	_, err := d.Pool.ExecContext(ctx, `UPDATE jobs SET logo_key = ? WHERE job_id = ?;`, key, jobID)
	return err
}

// CompanyDomain returns the cached domain or "" if missing.
func (d *DB) CompanyDomain(ctx context.Context, company string) (string, error) {
	company = NormalizeCompanyKey(company)
	if company == "" {
		return "", nil
	}

	var domain string
	err := d.Pool.QueryRowContext(ctx,
		`SELECT domain FROM company_domains WHERE company = ? LIMIT 1;`,
		company,
	).Scan(&domain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(domain), nil
}

func (d *DB) UpsertCompanyDomain(ctx context.Context, company, domain string) error {
	company = NormalizeCompanyKey(company)
	domain = strings.ToLower(strings.TrimSpace(domain))
	if company == "" || domain == "" {
		return nil
	}

	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO company_domains(company, domain, fetched_at)
VALUES(?,?,?)
ON CONFLICT(company) DO UPDATE SET
  domain = excluded.domain,
  fetched_at = excluded.fetched_at;
`, company, domain, DateKey(d.now()))
	return err
}
