package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/store"
)

func (s *Store) FindProfile(ctx context.Context, id string) (domain.UserProfile, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM profiles WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	var p domain.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p domain.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO profiles(id, doc, updated_at) VALUES($1, $2::jsonb, $3)
ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		p.ID, string(doc), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) GetLogo(ctx context.Context, key string) (store.Logo, error) {
	var l store.Logo
	err := s.pool.QueryRow(ctx, `SELECT content_type, bytes FROM logos WHERE key = $1`, key).
		Scan(&l.ContentType, &l.Bytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return l, fmt.Errorf("logo %s: %w", key, store.ErrNotFound)
	}
	return l, err
}

func (s *Store) HasLogo(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM logos WHERE key = $1)`, key).Scan(&exists)
	return exists, err
}

func (s *Store) PutLogo(ctx context.Context, key string, l store.Logo) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO logos(key, content_type, bytes, fetched_at) VALUES($1, $2, $3, $4)
ON CONFLICT(key) DO UPDATE SET content_type = excluded.content_type, bytes = excluded.bytes, fetched_at = excluded.fetched_at`,
		key, l.ContentType, l.Bytes, s.now().UTC(),
	)
	return err
}

func (s *Store) SetLogoKey(ctx context.Context, jobID, key string) error {
	_, err := s.pool.Exec(ctx, `UPDATE jobs SET logo_key = $1 WHERE job_id = $2`, key, jobID)
	return err
}

func (s *Store) CompanyDomain(ctx context.Context, company string) (string, error) {
	company = store.NormalizeCompanyKey(company)
	if company == "" {
		return "", nil
	}
	var d string
	err := s.pool.QueryRow(ctx, `SELECT domain FROM company_domains WHERE company = $1`, company).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return d, err
}

func (s *Store) UpsertCompanyDomain(ctx context.Context, company, domain string) error {
	company = store.NormalizeCompanyKey(company)
	if company == "" || domain == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO company_domains(company, domain, fetched_at) VALUES($1, $2, $3)
ON CONFLICT(company) DO UPDATE SET domain = excluded.domain, fetched_at = excluded.fetched_at`,
		company, domain, s.now().UTC(),
	)
	return err
}
