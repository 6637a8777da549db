package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Achi00/jobs-server/internal/domain"
)

func (d *DB) FindProfile(ctx context.Context, id string) (domain.UserProfile, error) {
	var doc string
	err := d.Pool.QueryRowContext(ctx, `SELECT doc FROM profiles WHERE id = ? LIMIT 1;`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	var p domain.UserProfile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func (d *DB) UpsertProfile(ctx context.Context, p domain.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO profiles(id, doc, updated_at)
VALUES(?,?,?)
ON CONFLICT(id) DO UPDATE SET
  doc = excluded.doc,
  updated_at = excluded.updated_at;`,
		p.ID, string(doc), DateKey(d.now()),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
