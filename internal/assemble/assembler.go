package assemble

import (
	"strings"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
)

// Parts are the outputs of the extraction steps for one fragment.
type Parts struct {
	Insights        domain.ParsedInsights
	Skills          domain.SkillSet
	Description     string // normalized
	DescriptionText string
	JobInfo         string
	Details         extract.Details
	// Enrichment is nil when the term extractor was not asked or failed.
	Enrichment *domain.Enrichment
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads the date formats scrapers emit. ok is false when s is not
// a calendar date.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Assemble builds the canonical record. Each field takes the parsed value,
// then the value the scraper extracted itself, then nothing. A bad date
// becomes now. The result is already cleaned.
func Assemble(f domain.RawScrapeFragment, p Parts, now time.Time) domain.JobRecord {
	date, ok := ParseDate(f.Date)
	if !ok {
		date = now.UTC()
	}

	rec := domain.JobRecord{
		JobID:           strings.TrimSpace(f.JobID),
		JobTitle:        domain.Text(extract.CleanText(f.Title)).Or(""),
		Company:         domain.Text(extract.CleanText(f.Company)).Or(""),
		Location:        domain.Text(extract.NormalizeLocation(f.Location)).OrElse(domain.Text(extract.NormalizeLocation(f.Place))).Or(""),
		Date:            date,
		Link:            domain.Text(f.Link).Or(""),
		ApplyLink:       domain.Text(f.ApplyLink).Or(""),
		CompanyLogo:     domain.Text(p.Details.CompanyLogo).OrElse(domain.Text(f.CompanyLogo)).Or(""),
		Description:     p.Description,
		DescriptionText: p.DescriptionText,
		DescriptionHTML: domain.Text(f.DescriptionHTML).Or(""),
		JobInfo:         p.JobInfo,
		Skills:          p.Skills,
		Salary: p.Insights.Salary.
			OrElse(extract.SalaryValue(p.Details.Salary)).
			OrElse(extract.SalaryValue(f.Salary)).Or(""),
		JobType: p.Insights.JobType.
			OrElse(extract.InferJobType(p.Details.JobType)).
			OrElse(extract.InferJobType(f.JobType)).Or(""),
		LocationType: p.Insights.LocationType.
			OrElse(extract.InferLocationType(f.LocationType)).Or(""),
		EmployeeRange: p.Insights.EmployeeRange.
			OrElse(extract.EmployeeValue(f.Employees)).Or(""),
		ExperienceLevel: domain.Text(p.Details.ExperienceLevel).OrElse(domain.Text(f.ExperienceLevel)).Or(""),
	}
	if p.Enrichment != nil {
		rec.Experiences = p.Enrichment.Experiences
		rec.Knowledge = p.Enrichment.Knowledge
	}
	return rec.Clean()
}
