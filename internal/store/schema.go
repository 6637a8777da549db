package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS jobs (
  job_id TEXT PRIMARY KEY,
  company TEXT NOT NULL DEFAULT '',
  job_title TEXT NOT NULL DEFAULT '',
  date TEXT NOT NULL,
  doc TEXT NOT NULL,
  logo_key TEXT NOT NULL DEFAULT '',
  first_seen TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  doc TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS logos (
  key TEXT PRIMARY KEY,
  content_type TEXT NOT NULL,
  bytes BLOB NOT NULL,
  fetched_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS company_domains (
  company TEXT PRIMARY KEY,
  domain TEXT NOT NULL,
  fetched_at TEXT NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_date ON jobs(date);`,
	`CREATE INDEX IF NOT EXISTS idx_company_domains_domain ON company_domains(domain);`,
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaV1 {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if !columnExists(tx, "jobs", "logo_key") {
		if _, err := tx.Exec(`ALTER TABLE jobs ADD COLUMN logo_key TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
