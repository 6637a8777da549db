package greenhouse

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

const defaultBaseURL = "https://boards.greenhouse.io"

type Scraper struct {
	Companies []config.Company
	BaseURL   string
	Limiter   *util.HostLimiter
	Now       func() time.Time

	hc *http.Client
}

func New(companies []config.Company, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		Companies: companies,
		BaseURL:   defaultBaseURL,
		Limiter:   limiter,
		hc:        &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Scraper) Name() string { return "greenhouse" }

func (s *Scraper) base() string {
	if s.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *Scraper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scraper) client() *http.Client {
	if s.hc == nil {
		s.hc = &http.Client{Timeout: 20 * time.Second}
	}
	return s.hc
}

// Fetch walks every configured board. One board failing is logged and the
// rest are still returned.
func (s *Scraper) Fetch(ctx context.Context) (types.Batch, error) {
	b := types.Batch{Source: s.Name()}
	for _, co := range s.Companies {
		frags, err := s.fetchCompany(ctx, co)
		if err != nil {
			if ctx.Err() != nil {
				return b, ctx.Err()
			}
			log.Printf("[greenhouse] board %s: %v", co.Slug, err)
			continue
		}
		b.Fragments = append(b.Fragments, frags...)
	}
	return b, nil
}

func (s *Scraper) get(ctx context.Context, u string) (*goquery.Document, error) {
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
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	return goquery.NewDocumentFromReader(res.Body)
}

func (s *Scraper) fetchCompany(ctx context.Context, co config.Company) ([]domain.RawScrapeFragment, error) {
	base := s.base()
	doc, err := s.get(ctx, base+"/"+co.Slug)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get board: %w", err)
	}

	seen := map[string]bool{}
	var frags []domain.RawScrapeFragment
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		abs := href
		if strings.HasPrefix(href, "/") {
			abs = base + href
		}
		if !strings.HasPrefix(abs, base) || !strings.Contains(abs, "/jobs/") {
			return
		}

		id := extractJobID(abs)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true

		title := extract.CleanText(a.Text())
		if isLinkLabel(title) {
			title = ""
		}
		frags = append(frags, domain.RawScrapeFragment{
			JobID:     "gh-" + id,
			Title:     title,
			Company:   co.Name,
			Link:      util.CanonicalizeURL(abs),
			ApplyLink: abs,
			Source:    s.Name(),
		})
	})

	for i := range frags {
		if err := s.hydrate(ctx, &frags[i]); err != nil {
			log.Printf("[greenhouse] hydrate %s: %v", frags[i].JobID, err)
		}
	}
	return frags, nil
}

// hydrate fills title, location and description from the job page.
func (s *Scraper) hydrate(ctx context.Context, f *domain.RawScrapeFragment) error {
	doc, err := s.get(ctx, f.ApplyLink)
	if err != nil {
		return err
	}

	if f.Title == "" {
		f.Title = extract.CleanText(doc.Find("h1").First().Text())
	}
	if loc, ok := util.FindLocation(doc).Get(); ok {
		f.Location = loc
		if lt, ok := extract.InferLocationType(loc).Get(); ok {
			f.LocationType = string(lt)
		}
	}
	if sel := doc.Find("#content").First(); sel.Length() > 0 {
		if h, err := sel.Html(); err == nil {
			f.DescriptionHTML = h
			f.Description = extract.HTMLText(h)
		}
	}
	f.Date = s.now().UTC().Format(time.RFC3339)
	return nil
}

func extractJobID(u string) string {
	parts := strings.SplitN(u, "/jobs/", 2)
	if len(parts) < 2 {
		return ""
	}
	end := 0
	for end < len(parts[1]) && parts[1][end] >= '0' && parts[1][end] <= '9' {
		end++
	}
	return parts[1][:end]
}

// isLinkLabel reports anchor text like "View job" or "Apply" that is not a title.
func isLinkLabel(t string) bool {
	l := strings.ToLower(t)
	return strings.Contains(l, "view") || strings.Contains(l, "apply")
}
