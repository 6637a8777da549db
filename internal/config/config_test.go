package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte("app:\n  port: 9000\nscoring:\n  mode: simple\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("port = %d", cfg.App.Port)
	}
	if cfg.Scoring.Mode != "simple" {
		t.Errorf("mode = %q", cfg.Scoring.Mode)
	}
	if cfg.Scoring.SimilarityThreshold != 0.8 || cfg.Scoring.TitleBonus != 0.5 {
		t.Errorf("scoring defaults = %+v", cfg.Scoring)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Polling.Schedule != "@every 6h" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Store, cfg.Polling)
	}
	if len(cfg.Extraction.SkillVocabulary) == 0 {
		t.Error("expected default skill vocabulary")
	}
}

func TestEmbeddedDefaultIsValid(t *testing.T) {
	dir := t.TempDir()
	p, err := EnsureUserConfig(dir, filepath.Join(dir, "missing.yml"))
	if err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("embedded default fails validation: %v", err)
	}
	// pruning is opt-in; stored records are only removed by a bulk clear
	if cfg.Store.RetentionDays != 0 {
		t.Errorf("retention_days = %d, want 0", cfg.Store.RetentionDays)
	}
}

func TestEnsureUserConfigKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte("app:\n  port: 1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := EnsureUserConfig(dir, "")
	if err != nil || got != p {
		t.Fatalf("EnsureUserConfig = %q, %v", got, err)
	}
	b, _ := os.ReadFile(p)
	if !strings.Contains(string(b), "1234") {
		t.Errorf("existing config overwritten: %s", b)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.App.Port = 70000 }, "app.port"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }, "store.postgres_url"},
		{"bad mode", func(c *Config) { c.Scoring.Mode = "fuzzy" }, "scoring.mode"},
		{"threshold above one", func(c *Config) { c.Scoring.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"bad cron", func(c *Config) { c.Polling.Schedule = "every so often" }, "polling.schedule"},
		{"enrichment without endpoint", func(c *Config) { c.Enrichment.Enabled = true }, "enrichment.endpoint"},
		{"blank slug", func(c *Config) { c.Sources.Greenhouse.Companies = []Company{{Name: "X"}} }, "companies[0].slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := Validate(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	var c Config
	c.Email.Enabled = true
	c.Email.SearchSubjectAny = []string{" Job Alert ", "job alert", ""}
	c.Sources.Greenhouse.Enabled = true
	c.Sources.Greenhouse.Companies = []Company{{Slug: " Stripe "}, {Slug: "stripe"}, {Slug: ""}}

	out, v := NormalizeAndValidate(c)
	if got := out.Email.SearchSubjectAny; len(got) != 1 || got[0] != "Job Alert" {
		t.Errorf("subjects = %q", got)
	}
	if got := out.Sources.Greenhouse.Companies; len(got) != 1 || got[0].Slug != "stripe" || got[0].Name != "stripe" {
		t.Errorf("companies = %+v", got)
	}
	if v.OK() {
		t.Fatal("expected errors for missing imap username")
	}
	found := false
	for _, e := range v.Errors {
		if strings.Contains(e, "email.username") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %q", v.Errors)
	}
}

func TestSaveAtomicWritesBackup(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	var c Config
	c.ApplyDefaults()
	if err := SaveAtomic(p, c); err != nil {
		t.Fatalf("first save: %v", err)
	}
	c.App.Port = 4000
	if err := SaveAtomic(p, c); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := os.Stat(p + ".bak"); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	got, err := Load(p)
	if err != nil || got.App.Port != 4000 {
		t.Fatalf("reload = %d, %v", got.App.Port, err)
	}

	c.Store.Driver = "nope"
	if err := SaveAtomic(p, c); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}

func TestOverlayCompanies(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "companies.yml")
	body := "sources:\n  greenhouse:\n    companies:\n      - slug: airbnb\n        name: Airbnb\n" +
		"  lever:\n    companies:\n      - slug: netflix\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	var c Config
	if err := OverlayCompanies(&c, p); err != nil {
		t.Fatal(err)
	}
	if len(c.Sources.Greenhouse.Companies) != 1 || c.Sources.Greenhouse.Companies[0].Name != "Airbnb" {
		t.Errorf("companies = %+v", c.Sources.Greenhouse.Companies)
	}
	if len(c.Sources.Lever.Companies) != 1 || c.Sources.Lever.Companies[0].Slug != "netflix" {
		t.Errorf("lever companies = %+v", c.Sources.Lever.Companies)
	}

	c.Sources.Lever.Enabled = true
	c.Sources.Lever.Companies = append(c.Sources.Lever.Companies, Company{Slug: " NETFLIX "})
	out, v := NormalizeAndValidate(c)
	if got := out.Sources.Lever.Companies; len(got) != 1 || got[0].Name != "netflix" {
		t.Errorf("normalized lever = %+v", got)
	}
	for _, w := range v.Warnings {
		if strings.Contains(w, "sources.lever") {
			t.Errorf("unexpected lever warning: %s", w)
		}
	}
	if err := OverlayCompanies(&c, filepath.Join(dir, "missing.yml")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("JOBS_PORT", "5555")
	t.Setenv("DATABASE_URL", "postgres://u@h/db")
	t.Setenv("ENRICH_ENDPOINT", "http://enrich.local/extract")
	var c Config
	c.ApplyDefaults()
	ApplyEnv(&c)
	if c.App.Port != 5555 {
		t.Errorf("port = %d", c.App.Port)
	}
	if c.Store.Driver != "postgres" || c.Store.PostgresURL != "postgres://u@h/db" {
		t.Errorf("store = %+v", c.Store)
	}
	if !c.Enrichment.Enabled {
		t.Error("enrichment should be enabled by ENRICH_ENDPOINT")
	}
}

func TestEnsureUserConfigRejectsBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.yml")
	if err := os.WriteFile(tpl, []byte("app: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "data")
	if _, err := EnsureUserConfig(data, tpl); err == nil {
		t.Fatal("expected template parse error")
	}
	if _, err := os.Stat(filepath.Join(data, "config.yml")); !os.IsNotExist(err) {
		t.Errorf("config.yml should not exist, stat err = %v", err)
	}
}
