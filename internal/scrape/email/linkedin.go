package email_scrape

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
	"github.com/Achi00/jobs-server/internal/scrape/util"
)

type LinkedInJob struct {
	JobID    string // numeric id from /jobs/view/<id>
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
	LogoURL  string
}

var (
	reSalary = regexp.MustCompile(`(?i)\$\s?\d[\d,.]*\s*[KM]?\s*(?:-\s*\$\s?\d[\d,.]*\s*[KM]?)?\s*/\s*(?:yr|year|hr|hour)`)
	reJobID  = regexp.MustCompile(`/jobs/view/(\d+)`)
)

// ParseLinkedInJobAlertHTML merges every anchor that points at the same job
// id, so a logo anchor seen before the title anchor does not lose the job.
// Jobs come back in first-seen order.
func ParseLinkedInJobAlertHTML(htmlBody string) ([]LinkedInJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byID := map[string]*LinkedInJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		jobURL := unwrapRedirect(strings.TrimSpace(a.AttrOr("href", "")))
		lh := strings.ToLower(jobURL)
		if !strings.Contains(lh, "linkedin.com") || !strings.Contains(lh, "/jobs/view/") {
			return
		}
		m := reJobID.FindStringSubmatch(jobURL)
		if len(m) != 2 {
			return
		}
		id := m[1]

		j, ok := byID[id]
		if !ok {
			j = &LinkedInJob{JobID: id, URL: "https://www.linkedin.com/jobs/view/" + id + "/"}
			byID[id] = j
			order = append(order, id)
		}

		if t := stripBadTitleSuffixes(extract.CleanText(a.Text())); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		if j.LogoURL == "" {
			card.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
				src := img.AttrOr("src", "")
				if strings.Contains(src, "licdn.com") && strings.Contains(src, "logo") {
					j.LogoURL = src
					return false
				}
				return true
			})
		}

		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := extract.CleanText(p.Text())
			if t == "" {
				return
			}
			if j.Company == "" && j.Location == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
				return
			}
			if t2 := stripBadTitleSuffixes(t); betterTitle(t2, j.Title) && !strings.Contains(t2, " · ") {
				j.Title = t2
			}
		})

		if j.Salary == "" {
			if m := reSalary.FindString(extract.CleanText(card.Text())); m != "" {
				j.Salary = strings.TrimSpace(m)
			}
		}
	})

	out := make([]LinkedInJob, 0, len(order))
	for _, id := range order {
		if j := byID[id]; strings.TrimSpace(j.Title) != "" {
			out = append(out, *j)
		}
	}
	return out, nil
}

// Fragment converts a parsed card into a scrape fragment. Location and
// salary double as insight lines so the insight parser classifies them.
func (j LinkedInJob) Fragment(received time.Time) domain.RawScrapeFragment {
	var insights domain.InsightLines
	for _, s := range []string{j.Salary, j.Location} {
		if s != "" {
			insights = append(insights, s)
		}
	}
	f := domain.RawScrapeFragment{
		JobID:       j.JobID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Link:        util.CanonicalizeURL(j.URL),
		ApplyLink:   j.URL,
		Insights:    insights,
		CompanyLogo: j.LogoURL,
		Salary:      j.Salary,
		Source:      "email",
	}
	if !received.IsZero() {
		f.Date = received.UTC().Format(time.RFC3339)
	}
	return f
}

func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return u.String()
}

func looksLikeLinkedInJobAlert(from, subj, body string) bool {
	if strings.Contains(strings.ToLower(from), "jobalerts-noreply") {
		return true
	}
	s := strings.ToLower(subj)
	if strings.Contains(s, "job alert") || strings.Contains(s, "linkedin") || strings.Contains(s, "jobs for you") {
		b := strings.ToLower(body)
		return strings.Contains(b, "linkedin.com/comm/jobs/view") ||
			strings.Contains(b, "linkedin.com/jobs/view")
	}
	return false
}

func stripBadTitleSuffixes(s string) string {
	for _, b := range []string{"Actively recruiting", "Easy Apply", "Promoted"} {
		s = strings.ReplaceAll(s, b, "")
	}
	low := strings.ToLower(s)
	for _, bad := range []string{"alumni", "connections", "applicants", "school"} {
		if strings.Contains(low, bad) {
			return ""
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// betterTitle reports whether candidate should replace current. A
// replacement must score clearly higher to avoid flip-flopping.
func betterTitle(candidate, current string) bool {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return false
	}
	if strings.TrimSpace(current) == "" {
		return titleScore(c) >= 5
	}
	return titleScore(c) >= titleScore(current)+3
}

var titleWords = []string{
	"engineer", "developer", "software", "backend", "frontend", "full stack", "full-stack",
	"platform", "cloud", "devops", "sre", "security", "embedded", "firmware",
	"data", "ml", "ai", "scientist", "analyst", "architect",
	"manager", "director", "lead", "principal", "staff", "intern", "technician",
}

func titleScore(s string) int {
	orig := strings.TrimSpace(s)
	if orig == "" {
		return -100
	}
	l := strings.ToLower(orig)

	if strings.Contains(l, "unsubscribe") || strings.Contains(l, "manage") && strings.Contains(l, "alert") {
		return -50
	}
	if strings.Contains(l, "http://") || strings.Contains(l, "https://") || strings.Contains(l, "www.") {
		return -30
	}

	score := 0
	if strings.ContainsAny(orig, "$€£") {
		score -= 8
	}
	for _, per := range []string{"per hour", "/hour", "/hr", "per year", "/year", "/yr"} {
		if strings.Contains(l, per) {
			score -= 6
			break
		}
	}
	for _, bad := range []string{"apply", "view job", "see job", "see details", "learn more", "sign in"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}
	for _, loc := range []string{"remote", "hybrid", "on-site", "onsite", "united states", "usa"} {
		if strings.Contains(l, loc) {
			score -= 3
		}
	}
	if strings.ContainsAny(orig, "|•") {
		score -= 2
	}
	for _, w := range titleWords {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}
	words := strings.FieldsFunc(l, func(r rune) bool {
		return strings.ContainsRune(" \t-/\\()[]{},.:;|", r)
	})
	sort.Strings(words)
	for _, w := range []string{"sr", "senior", "jr", "junior", "ii", "iii", "iv", "principal", "staff", "lead"} {
		if i := sort.SearchStrings(words, w); i < len(words) && words[i] == w {
			score += 2
		}
	}

	n := len([]rune(orig))
	if n >= 6 && n <= 80 {
		score += 2
	} else if n < 4 || n > 140 {
		score -= 6
	}
	if strings.HasSuffix(orig, ".") || strings.Contains(l, "you will") || strings.Contains(l, "we are") {
		score -= 4
	}

	digits := 0
	for _, r := range orig {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits >= 6 {
		score -= 4
	}
	return score
}
