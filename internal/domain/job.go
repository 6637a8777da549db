package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

type JobType string

const (
	FullTime JobType = "Full-time"
	PartTime JobType = "Part-time"
	Contract JobType = "Contract"
)

type LocationType string

const (
	Remote LocationType = "Remote"
	OnSite LocationType = "On-site"
	Hybrid LocationType = "Hybrid"
)

// ParsedInsights is what the insight parser recovered from a posting.
type ParsedInsights struct {
	Salary        Opt[string]
	JobType       Opt[JobType]
	LocationType  Opt[LocationType]
	EmployeeRange Opt[string]
}

func (p ParsedInsights) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"salary":        Sentinel(p.Salary),
		"jobType":       Sentinel(p.JobType),
		"locationType":  Sentinel(p.LocationType),
		"employeeRange": Sentinel(p.EmployeeRange),
	})
}

// Enrichment is the optional output of the external term extractor.
type Enrichment struct {
	Experiences []string `json:"experiences"`
	Knowledge   []string `json:"knowledge"`
}

// JobRecord is the canonical stored posting. Empty strings and nil slices
// mean absent; they are omitted when the record is written.
type JobRecord struct {
	JobID           string       `json:"jobId"`
	JobTitle        string       `json:"jobTitle,omitempty"`
	Company         string       `json:"company,omitempty"`
	Location        string       `json:"location,omitempty"`
	Date            time.Time    `json:"date"`
	Link            string       `json:"link,omitempty"`
	ApplyLink       string       `json:"applyLink,omitempty"`
	CompanyLogo     string       `json:"companyLogo,omitempty"`
	Description     string       `json:"description,omitempty"`
	DescriptionText string       `json:"descriptionText,omitempty"`
	DescriptionHTML string       `json:"descriptionHTML,omitempty"`
	JobInfo         string       `json:"jobInfo,omitempty"`
	Skills          SkillSet     `json:"skills,omitempty"`
	Salary          string       `json:"salary,omitempty"`
	JobType         JobType      `json:"jobType,omitempty"`
	LocationType    LocationType `json:"locationType,omitempty"`
	EmployeeRange   string       `json:"employeeRange,omitempty"`
	ExperienceLevel string       `json:"experienceLevel,omitempty"`
	Experiences     []string     `json:"experiences,omitempty"`
	Knowledge       []string     `json:"knowledge,omitempty"`
}

// Clean drops every field that holds a placeholder or nothing at all.
// JobID and Date are always kept.
func (r JobRecord) Clean() JobRecord {
	for _, p := range []*string{
		&r.JobTitle, &r.Company, &r.Location, &r.Link, &r.ApplyLink,
		&r.CompanyLogo, &r.Description, &r.DescriptionText, &r.DescriptionHTML,
		&r.JobInfo, &r.Salary, &r.EmployeeRange, &r.ExperienceLevel,
	} {
		if IsUnspecified(*p) {
			*p = ""
		}
	}
	if IsUnspecified(string(r.JobType)) {
		r.JobType = ""
	}
	if IsUnspecified(string(r.LocationType)) {
		r.LocationType = ""
	}
	r.Skills = SkillSet(cleanList(r.Skills))
	r.Experiences = cleanList(r.Experiences)
	r.Knowledge = cleanList(r.Knowledge)
	return r
}

// Document is the cleaned record as a generic map, the shape stored in
// document columns.
func (r JobRecord) Document() (map[string]any, error) {
	b, err := json.Marshal(r.Clean())
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	err = json.Unmarshal(b, &doc)
	return doc, err
}

// Fragment turns a record back into the fragment that would produce it, so
// stored jobs can be pushed through the pipeline again.
func (r JobRecord) Fragment() RawScrapeFragment {
	f := RawScrapeFragment{
		JobID:           r.JobID,
		Title:           r.JobTitle,
		Company:         r.Company,
		Location:        r.Location,
		Link:            r.Link,
		ApplyLink:       r.ApplyLink,
		JobInfo:         r.JobInfo,
		DescriptionHTML: r.DescriptionHTML,
		Description:     r.DescriptionText,
		CompanyLogo:     r.CompanyLogo,
		Salary:          r.Salary,
		JobType:         string(r.JobType),
		LocationType:    string(r.LocationType),
		Employees:       r.EmployeeRange,
		ExperienceLevel: r.ExperienceLevel,
	}
	if f.Description == "" {
		f.Description = r.Description
	}
	if !r.Date.IsZero() {
		f.Date = r.Date.Format(time.RFC3339Nano)
	}
	for _, s := range []string{r.Salary, string(r.JobType), string(r.LocationType), r.EmployeeRange} {
		if s != "" {
			f.Insights = append(f.Insights, s)
		}
	}
	if len(r.Skills) > 0 {
		f.Skills = SkillList(append([]string(nil), r.Skills...))
	}
	return f
}

func cleanList(xs []string) []string {
	var out []string
	for _, x := range xs {
		if IsUnspecified(x) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// TitleTokens lowercases the title and splits it into word tokens. Symbols
// common in skill names (+ # .) stay attached to their word.
func TitleTokens(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
