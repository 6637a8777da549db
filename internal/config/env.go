package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first .env file found; a missing file is fine.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("[config] loaded env file %s", p)
			return
		}
	}
}

// ApplyEnv overrides file settings from the environment.
func ApplyEnv(c *Config) {
	if v := env("JOBS_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
	if v := env("JOBS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.App.Port = n
		} else {
			log.Printf("[config] ignoring JOBS_PORT=%q: %v", v, err)
		}
	}
	if v := env("DATABASE_URL"); v != "" {
		c.Store.Driver = "postgres"
		c.Store.PostgresURL = v
	}
	if v := env("REDIS_URL"); v != "" {
		c.Enrichment.Cache.RedisURL = v
	}
	if v := env("ENRICH_ENDPOINT"); v != "" {
		c.Enrichment.Enabled = true
		c.Enrichment.Endpoint = v
	}
}

// EnrichAPIKeyFromEnv is read separately so the key never lands in the
// saved config file.
func EnrichAPIKeyFromEnv() string {
	return env("ENRICH_API_KEY")
}

func env(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
