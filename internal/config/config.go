// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Achi00/jobs-server/internal/extract"
)

type Company struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Store struct {
		Driver        string `yaml:"driver"` // sqlite | postgres
		SQLiteFile    string `yaml:"sqlite_file"`
		PostgresURL   string `yaml:"postgres_url"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"store"`

	Extraction struct {
		Workers         int      `yaml:"workers"`
		SkillVocabulary []string `yaml:"skill_vocabulary"`
	} `yaml:"extraction"`

	Scoring struct {
		Mode                string  `yaml:"mode"` // full | simple
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		TitleBonus          float64 `yaml:"title_bonus"`
		DefaultPageSize     int     `yaml:"default_page_size"`
		MaxPageSize         int     `yaml:"max_page_size"`
	} `yaml:"scoring"`

	Enrichment struct {
		Enabled           bool    `yaml:"enabled"`
		Endpoint          string  `yaml:"endpoint"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		KeyringAccount    string  `yaml:"keyring_account"`
		Cache             struct {
			RedisURL string `yaml:"redis_url"`
			TTLHours int    `yaml:"ttl_hours"`
		} `yaml:"cache"`
	} `yaml:"enrichment"`

	Polling struct {
		Schedule             string  `yaml:"schedule"`
		SourceTimeoutSeconds int     `yaml:"source_timeout_seconds"`
		RunOnStart           bool    `yaml:"run_on_start"`
		RequestsPerSecond    float64 `yaml:"requests_per_second"`
		Burst                int     `yaml:"burst"`
	} `yaml:"polling"`

	Sources struct {
		Dump struct {
			Enabled bool   `yaml:"enabled"`
			Dir     string `yaml:"dir"`
		} `yaml:"dump"`
		Greenhouse struct {
			Enabled   bool      `yaml:"enabled"`
			Companies []Company `yaml:"companies"`
		} `yaml:"greenhouse"`
		Lever struct {
			Enabled   bool      `yaml:"enabled"`
			Companies []Company `yaml:"companies"`
		} `yaml:"lever"`
	} `yaml:"sources"`

	Email struct {
		Enabled          bool     `yaml:"enabled"`
		IMAPHost         string   `yaml:"imap_host"`
		IMAPPort         int      `yaml:"imap_port"`
		Username         string   `yaml:"username"`
		Mailbox          string   `yaml:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any"`
		MaxMessages      int      `yaml:"max_messages"`
	} `yaml:"email"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 38471
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLiteFile == "" {
		c.Store.SQLiteFile = "jobs.db"
	}
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = 4
	}
	if len(c.Extraction.SkillVocabulary) == 0 {
		c.Extraction.SkillVocabulary = append([]string(nil), extract.DefaultSkillNames...)
	}
	if c.Scoring.Mode == "" {
		c.Scoring.Mode = "full"
	}
	if c.Scoring.SimilarityThreshold == 0 {
		c.Scoring.SimilarityThreshold = 0.8
	}
	if c.Scoring.TitleBonus == 0 {
		c.Scoring.TitleBonus = 0.5
	}
	if c.Scoring.DefaultPageSize == 0 {
		c.Scoring.DefaultPageSize = 20
	}
	if c.Scoring.MaxPageSize == 0 {
		c.Scoring.MaxPageSize = 100
	}
	if c.Enrichment.TimeoutSeconds == 0 {
		c.Enrichment.TimeoutSeconds = 20
	}
	if c.Enrichment.RequestsPerSecond == 0 {
		c.Enrichment.RequestsPerSecond = 2
	}
	if c.Enrichment.Burst == 0 {
		c.Enrichment.Burst = 4
	}
	if c.Enrichment.Cache.TTLHours == 0 {
		c.Enrichment.Cache.TTLHours = 24 * 7
	}
	if c.Polling.Schedule == "" {
		c.Polling.Schedule = "@every 6h"
	}
	if c.Polling.SourceTimeoutSeconds == 0 {
		c.Polling.SourceTimeoutSeconds = 300
	}
	if c.Polling.RequestsPerSecond == 0 {
		c.Polling.RequestsPerSecond = 1
	}
	if c.Polling.Burst == 0 {
		c.Polling.Burst = 2
	}
	if c.Email.Mailbox == "" {
		c.Email.Mailbox = "INBOX"
	}
	if c.Email.IMAPPort == 0 {
		c.Email.IMAPPort = 993
	}
	if c.Email.MaxMessages == 0 {
		c.Email.MaxMessages = 200
	}
}
