package extract

import (
	"strings"

	"github.com/Achi00/jobs-server/internal/domain"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CleanLines cleans each line and drops the empty ones.
func CleanLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = CleanText(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// InferJobType is the lenient reading used for values scrapers extracted
// themselves ("full time", "CONTRACT").
func InferJobType(s string) domain.Opt[domain.JobType] {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "full-time") || strings.Contains(l, "full time"):
		return domain.Some(domain.FullTime)
	case strings.Contains(l, "part-time") || strings.Contains(l, "part time"):
		return domain.Some(domain.PartTime)
	case strings.Contains(l, "contract"):
		return domain.Some(domain.Contract)
	}
	return domain.None[domain.JobType]()
}

func InferLocationType(s string) domain.Opt[domain.LocationType] {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "remote"):
		return domain.Some(domain.Remote)
	case strings.Contains(l, "hybrid"):
		return domain.Some(domain.Hybrid)
	case strings.Contains(l, "on-site") || strings.Contains(l, "onsite") || strings.Contains(l, "on site"):
		return domain.Some(domain.OnSite)
	}
	return domain.None[domain.LocationType]()
}
