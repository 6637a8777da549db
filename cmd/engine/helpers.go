package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Achi00/jobs-server/internal/assemble"
	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/enrich"
	"github.com/Achi00/jobs-server/internal/scrape/util"
	"github.com/Achi00/jobs-server/internal/secrets"
	"github.com/Achi00/jobs-server/internal/store"
	"github.com/Achi00/jobs-server/internal/store/pgstore"
)

func openStore(ctx context.Context, cfg config.Config, dataDir string) (store.Repository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return pgstore.Open(ctx, cfg.Store.PostgresURL)
	default:
		return store.Open(resolve(dataDir, cfg.Store.SQLiteFile))
	}
}

// resolve makes p relative to dataDir unless it is already absolute.
func resolve(dataDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

// newEnricher returns nil when enrichment is off. The closer releases the
// redis connection, if any.
func newEnricher(ctx context.Context, cfg config.Config) (assemble.Enricher, func() error, error) {
	noop := func() error { return nil }
	ec := cfg.Enrichment
	if !ec.Enabled {
		return nil, noop, nil
	}

	apiKey := config.EnrichAPIKeyFromEnv()
	if apiKey == "" {
		k, err := secrets.Get(secrets.EnrichAPIKey, secrets.Account(secrets.EnrichAPIKey, cfg))
		if err != nil {
			log.Printf("[enrich] no api key stored, calling endpoint unauthenticated: %v", err)
		}
		apiKey = k
	}

	c, err := enrich.New(ec.Endpoint, apiKey, time.Duration(ec.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, noop, err
	}
	c.Limiter = util.NewHostLimiter(ec.RequestsPerSecond, ec.Burst)
	c.TTL = time.Duration(ec.Cache.TTLHours) * time.Hour

	closer := noop
	if ec.Cache.RedisURL != "" {
		rdb, err := enrich.NewRedisClient(ctx, ec.Cache.RedisURL)
		if err != nil {
			log.Printf("[enrich] redis unavailable, using in-memory cache: %v", err)
			c.Cache = &enrich.MemoryCache{}
		} else {
			c.Cache = enrich.RedisCache{RDB: rdb}
			closer = rdb.Close
		}
	} else {
		c.Cache = &enrich.MemoryCache{}
	}
	log.Printf("[enrich] enabled endpoint=%s", ec.Endpoint)
	return c, closer, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownHandler(token string, stop context.CancelFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, "shutting down")
		stop()
	}
}
