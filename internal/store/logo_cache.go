package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

const maxLogoBytes = 512 * 1024

// LogoCache fetches company logos referenced by stored jobs and keeps the
// bytes so the API can serve them without hitting the CDN again.
type LogoCache struct {
	Store   LogoStore
	Client  *http.Client
	Limiter *util.HostLimiter

	// AllowHost defaults to allowedLogoHost.
	AllowHost func(host string) bool
}

func LogoKeyFromURL(u string) string {
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

// Remember caches the logo for rec and links it to the job. The record's
// own companyLogo wins; otherwise the company's favicon is used when its
// domain is known from the apply link.
func (c *LogoCache) Remember(ctx context.Context, rec domain.JobRecord) (string, error) {
	if host := companyHost(rec.ApplyLink); host != "" {
		if err := c.Store.UpsertCompanyDomain(ctx, rec.Company, host); err != nil {
			return "", err
		}
	}

	src := rec.CompanyLogo
	if !c.allowed(src) {
		dom, err := c.Store.CompanyDomain(ctx, rec.Company)
		if err != nil {
			return "", err
		}
		src = FaviconURLForDomain(dom)
	}
	if src == "" {
		return "", nil
	}

	key, err := c.CacheFromURL(ctx, src)
	if err != nil || key == "" {
		return "", err
	}
	return key, c.Store.SetLogoKey(ctx, rec.JobID, key)
}

func (c *LogoCache) allowed(raw string) bool {
	raw = stripFragment(raw)
	pu, err := url.Parse(raw)
	if err != nil || pu.Scheme == "" || pu.Host == "" {
		return false
	}
	allow := c.AllowHost
	if allow == nil {
		allow = allowedLogoHost
	}
	return allow(strings.ToLower(pu.Host))
}

func allowedLogoHost(host string) bool {
	switch {
	case host == "www.google.com" || host == "google.com":
		return true
	case strings.HasSuffix(host, "googleusercontent.com"):
		return true
	case host == "media.licdn.com" || (strings.HasPrefix(host, "media-exp") && strings.HasSuffix(host, ".licdn.com")):
		return true
	}
	return false
}

// Gmail proxy URLs carry the original after '#', which is never sent.
func stripFragment(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	return raw
}

// CacheFromURL stores the image at raw and returns its key. Hosts outside
// the allow list and failed fetches yield "" without an error.
func (c *LogoCache) CacheFromURL(ctx context.Context, raw string) (string, error) {
	raw = stripFragment(raw)
	if raw == "" || !c.allowed(raw) {
		return "", nil
	}

	key := LogoKeyFromURL(raw)
	ok, err := c.Store.HasLogo(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return key, nil
	}

	if c.Limiter != nil {
		if err := c.Limiter.WaitURL(ctx, raw); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if strings.HasSuffix(req.URL.Hostname(), "licdn.com") {
		req.Header.Set("Referer", "https://www.linkedin.com/")
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[logo-cache] fetch error url=%s err=%v", raw, err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[logo-cache] non-2xx url=%s status=%s", raw, resp.Status)
		return "", nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil || len(b) == 0 || len(b) > maxLogoBytes {
		return "", nil
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		sn := http.DetectContentType(b)
		if !strings.HasPrefix(sn, "image/") {
			return "", errors.New("not an image")
		}
		ct = sn
	}

	if err := c.Store.PutLogo(ctx, key, Logo{ContentType: ct, Bytes: b}); err != nil {
		return "", err
	}
	return key, nil
}

func FaviconURLForDomain(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.Trim(domain, "/")
	if domain == "" {
		return ""
	}
	// sz can be 16/32/64/128
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domain) + "&sz=64"
}

// Job boards and ATS hosts never identify the hiring company.
var boardHosts = []string{
	"linkedin.com", "greenhouse.io", "lever.co", "smartrecruiters.com",
	"myworkdayjobs.com", "workday.com", "indeed.com", "glassdoor.com",
}

func companyHost(applyLink string) string {
	pu, err := url.Parse(strings.TrimSpace(applyLink))
	if err != nil || pu.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(pu.Hostname()), "www.")
	for _, b := range boardHosts {
		if host == b || strings.HasSuffix(host, "."+b) {
			return ""
		}
	}
	return host
}
