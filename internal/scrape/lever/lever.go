package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

const defaultBaseURL = "https://api.lever.co/v0/postings"

type Scraper struct {
	Companies []config.Company
	BaseURL   string // api.lever.co/v0/postings/<slug>
	Workers   int
	Limiter   *util.HostLimiter

	hc *http.Client
}

func New(companies []config.Company, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		Companies: companies,
		BaseURL:   defaultBaseURL,
		Workers:   8,
		Limiter:   limiter,
		hc:        &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Scraper) Name() string { return "lever" }

type posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Workplace  string `json:"workplaceType"`
	Categories struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
}

func (s *Scraper) client() *http.Client {
	if s.hc == nil {
		s.hc = &http.Client{Timeout: 20 * time.Second}
	}
	return s.hc
}

// Fetch queries every company concurrently. A failing company is logged and
// skipped.
func (s *Scraper) Fetch(ctx context.Context) (types.Batch, error) {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	frCh := make(chan []domain.RawScrapeFragment, len(s.Companies))
	workCh := make(chan config.Company)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				frags, err := s.fetchCompany(ctx, co)
				if err != nil {
					log.Printf("[lever] company=%q slug=%q err=%v", co.Name, co.Slug, err)
					continue
				}
				if len(frags) > 0 {
					frCh <- frags
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range s.Companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(frCh)

	b := types.Batch{Source: s.Name()}
	for frags := range frCh {
		b.Fragments = append(b.Fragments, frags...)
	}
	if err := ctx.Err(); err != nil {
		return b, err
	}
	log.Printf("[lever] fetched %d postings from %d companies", len(b.Fragments), len(s.Companies))
	return b, nil
}

func (s *Scraper) do(ctx context.Context, u string) (*http.Response, error) {
	if s.Limiter != nil {
		if err := s.Limiter.WaitURL(ctx, u); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "jobs-server/1.0 (+local)")
	res, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		res.Body.Close()
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co config.Company) ([]domain.RawScrapeFragment, error) {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	res, err := s.do(ctx, fmt.Sprintf("%s/%s?mode=json", base, co.Slug))
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()

	var postings []posting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	out := make([]domain.RawScrapeFragment, 0, len(postings))
	for _, p := range postings {
		if f, ok := toFragment(p, co); ok {
			out = append(out, f)
		}
	}
	for i := range out {
		if out[i].Location == "" {
			if err := s.hydrate(ctx, &out[i]); err != nil {
				log.Printf("[lever] hydrate %s: %v", out[i].JobID, err)
			}
		}
	}
	return out, nil
}

func toFragment(p posting, co config.Company) (domain.RawScrapeFragment, bool) {
	title := strings.TrimSpace(p.Text)
	if p.ID == "" || p.HostedURL == "" || title == "" {
		return domain.RawScrapeFragment{}, false
	}

	f := domain.RawScrapeFragment{
		JobID:           "lever-" + p.ID,
		Title:           title,
		Company:         co.Name,
		Location:        extract.NormalizeLocation(p.Categories.Location),
		Link:            util.CanonicalizeURL(p.HostedURL),
		ApplyLink:       p.HostedURL,
		DescriptionHTML: p.Description,
		Source:          "lever",
	}
	if p.ApplyURL != "" {
		f.ApplyLink = p.ApplyURL
	}
	if p.DescriptionPlain != "" {
		f.Description = p.DescriptionPlain
	} else if p.Description != "" {
		f.Description = extract.HTMLText(p.Description)
	}
	if p.CreatedAt > 0 {
		f.Date = time.UnixMilli(p.CreatedAt).UTC().Format(time.RFC3339)
	}
	if jt, ok := extract.InferJobType(p.Categories.Commitment).Get(); ok {
		f.JobType = string(jt)
	}
	lt, ok := extract.InferLocationType(p.Workplace).Get()
	if !ok {
		lt, ok = extract.InferLocationType(f.Location).Get()
	}
	if ok {
		f.LocationType = string(lt)
	}
	if team := strings.TrimSpace(p.Categories.Team); team != "" {
		f.JobInfo = team
	}
	return f, true
}

// hydrate reads the hosted page for a location when the API left it blank.
func (s *Scraper) hydrate(ctx context.Context, f *domain.RawScrapeFragment) error {
	res, err := s.do(ctx, f.ApplyLink)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return err
	}
	category := util.FirstText(doc, ".posting-categories li")
	if loc, ok := util.FindLocation(doc).OrElse(category).Get(); ok {
		f.Location = extract.NormalizeLocation(loc)
	}
	if f.LocationType == "" {
		if lt, ok := extract.InferLocationType(f.Location).Get(); ok {
			f.LocationType = string(lt)
		}
	}
	return nil
}
