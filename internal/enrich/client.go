// Package enrich calls the external term extractor that pulls experience
// phrases and knowledge areas out of a job description.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
	Limiter  *util.HostLimiter

	// Cache is optional; responses are kept for TTL.
	Cache Cache
	TTL   time.Duration
}

type request struct {
	Text string `json:"text"`
}

// ExtractExperienceAndKnowledge posts text to the extractor. Any failure
// is returned; callers treat it as "no enrichment".
func (c *Client) ExtractExperienceAndKnowledge(ctx context.Context, text string) (domain.Enrichment, error) {
	var out domain.Enrichment
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	key := CacheKey(text)
	if c.Cache != nil {
		if b, ok, err := c.Cache.Get(ctx, key); err != nil {
			log.Printf("[enrich] cache get failed: %v", err)
		} else if ok && json.Unmarshal(b, &out) == nil {
			return out, nil
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.WaitURL(ctx, c.Endpoint); err != nil {
			return out, err
		}
	}

	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("enrich request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return out, fmt.Errorf("enrich call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("enrich read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fmt.Errorf("enrich status=%d body=%s", resp.StatusCode, truncate(string(raw), 200))
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Enrichment{}, fmt.Errorf("enrich decode: %w", err)
	}

	if c.Cache != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := c.Cache.Set(ctx, key, b, c.TTL); err != nil {
				log.Printf("[enrich] cache set failed: %v", err)
			}
		}
	}
	return out, nil
}

var ErrNoEndpoint = errors.New("enrichment endpoint not configured")

// New checks the endpoint; a disabled extractor is a nil Enricher upstream.
func New(endpoint, apiKey string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		HTTP:     &http.Client{Timeout: timeout},
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
