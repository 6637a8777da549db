package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robfig/cron/v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	switch cfg.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Store.SQLiteFile) == "" {
			errs = append(errs, "store.sqlite_file is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.PostgresURL) == "" {
			errs = append(errs, "store.postgres_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", cfg.Store.Driver))
	}
	if cfg.Store.RetentionDays < 0 {
		errs = append(errs, "store.retention_days must be >= 0")
	}
	if cfg.Extraction.Workers < 1 {
		errs = append(errs, "extraction.workers must be >= 1")
	}

	if m := cfg.Scoring.Mode; m != "full" && m != "simple" {
		errs = append(errs, fmt.Sprintf("scoring.mode must be full or simple, got %q", m))
	}
	if t := cfg.Scoring.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, "scoring.similarity_threshold must be in (0,1]")
	}
	if cfg.Scoring.TitleBonus < 0 {
		errs = append(errs, "scoring.title_bonus must be >= 0")
	}
	if cfg.Scoring.DefaultPageSize < 1 {
		errs = append(errs, "scoring.default_page_size must be >= 1")
	}
	if cfg.Scoring.MaxPageSize < cfg.Scoring.DefaultPageSize {
		errs = append(errs, "scoring.max_page_size must be >= default_page_size")
	}

	if cfg.Enrichment.Enabled && strings.TrimSpace(cfg.Enrichment.Endpoint) == "" {
		errs = append(errs, "enrichment.endpoint is required when enrichment.enabled=true")
	}

	if _, err := cron.ParseStandard(cfg.Polling.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("polling.schedule is not a valid cron spec: %v", err))
	}
	if cfg.Polling.SourceTimeoutSeconds < 1 {
		errs = append(errs, "polling.source_timeout_seconds must be >= 1")
	}

	for i, c := range cfg.Sources.Greenhouse.Companies {
		if strings.TrimSpace(c.Slug) == "" {
			errs = append(errs, fmt.Sprintf("sources.greenhouse.companies[%d].slug is required", i))
		}
	}
	for i, c := range cfg.Sources.Lever.Companies {
		if strings.TrimSpace(c.Slug) == "" {
			errs = append(errs, fmt.Sprintf("sources.lever.companies[%d].slug is required", i))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
