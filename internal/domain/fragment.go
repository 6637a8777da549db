package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawScrapeFragment is one posting as handed over by a scrape source.
// Any field may be missing or malformed.
type RawScrapeFragment struct {
	JobID           string       `json:"jobId"`
	Title           string       `json:"title,omitempty"`
	Company         string       `json:"company,omitempty"`
	Location        string       `json:"location,omitempty"`
	Place           string       `json:"place,omitempty"`
	Date            string       `json:"date,omitempty"`
	Link            string       `json:"link,omitempty"`
	ApplyLink       string       `json:"applyLink,omitempty"`
	Insights        InsightLines `json:"insights,omitempty"`
	JobInfo         string       `json:"jobInfo,omitempty"`
	Skills          RawSkills    `json:"skills"`
	Description     string       `json:"description,omitempty"`
	DescriptionHTML string       `json:"descriptionHTML,omitempty"`

	// Values some scrapers pull out on their own. They rank below what the
	// parsers find and above the placeholder.
	CompanyLogo     string `json:"companyLogo,omitempty"`
	Salary          string `json:"salary,omitempty"`
	JobType         string `json:"jobType,omitempty"`
	LocationType    string `json:"locationType,omitempty"`
	Employees       string `json:"employees,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`

	// Source names the collaborator that produced the fragment.
	Source string `json:"source,omitempty"`
}

// UnmarshalJSON accepts loosely typed scraper output: numbers where strings
// are expected, a single string for insights, skills in any supported shape.
func (f *RawScrapeFragment) UnmarshalJSON(b []byte) error {
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("fragment: %w", err)
	}
	*f = FragmentFromMap(data)
	return nil
}

// FragmentFromMap builds a fragment from a decoded JSON object.
func FragmentFromMap(data map[string]any) RawScrapeFragment {
	return RawScrapeFragment{
		JobID:           getString(data, "jobId", "job_id", "id"),
		Title:           getString(data, "title", "jobTitle"),
		Company:         getString(data, "company"),
		Location:        getString(data, "location"),
		Place:           getString(data, "place"),
		Date:            getDate(data, "date"),
		Link:            getString(data, "link"),
		ApplyLink:       getString(data, "applyLink"),
		Insights:        InsightLinesFrom(data["insights"]),
		JobInfo:         getString(data, "jobInfo", "mt2mb2Content"),
		Skills:          RawSkillsFrom(data["skills"]),
		Description:     getString(data, "description"),
		DescriptionHTML: getString(data, "descriptionHTML"),
		CompanyLogo:     getString(data, "companyLogo"),
		Salary:          getString(data, "salary"),
		JobType:         getString(data, "jobType"),
		LocationType:    getString(data, "locationType"),
		Employees:       getString(data, "employees", "employeeRange"),
		ExperienceLevel: getString(data, "experienceLevel"),
		Source:          getString(data, "source"),
	}
}

// InsightLines is the ordered list of short insight strings. A lone string
// is treated as a one-line list.
type InsightLines []string

func (l *InsightLines) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = InsightLinesFrom(v)
	return nil
}

func InsightLinesFrom(v any) InsightLines {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return InsightLines{t}
	case []string:
		return InsightLines(t)
	case []any:
		return InsightLines(stringsOf(t))
	}
	return nil
}

// getString tries keys in order and returns the first usable value.
func getString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		val, ok := data[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// getDate keeps date strings as-is and turns epoch milliseconds into RFC 3339.
func getDate(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339Nano)
	}
	return ""
}

func stringsOf(xs []any) []string {
	var out []string
	for _, x := range xs {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
