package extract

import (
	"regexp"
	"strings"

	"github.com/Achi00/jobs-server/internal/domain"
)

var (
	reSalaryRange    = regexp.MustCompile(`\$[\d,.]+(?:K)?/(?:yr|hr)\s*-\s*\$[\d,.]+(?:K)?/(?:yr|hr)`)
	reSalarySingle   = regexp.MustCompile(`\$[\d,.]+(?:K)?/(?:yr|hr)`)
	reEmployeesRange = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\+)?)\s*-\s*(\d{1,3}(?:,\d{3})*(?:\+)?)\s*employees`)
	reEmployeesOne   = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\+)?)\s*employees`)
)

// ParseInsights reads salary, job type, location type and company size out
// of insight lines. Salary and company size take the first line that
// matches and fall back to fallbackText; job and location type take the
// last line that mentions one. It never fails: anything not found is absent.
func ParseInsights(insights []string, fallbackText string) domain.ParsedInsights {
	var p domain.ParsedInsights

	for _, line := range insights {
		if !p.Salary.Valid() {
			p.Salary = matchSalary(line)
		}
		if !p.EmployeeRange.Valid() {
			p.EmployeeRange = matchEmployees(line)
		}
		if jt := ClassifyJobType(line); jt.Valid() {
			p.JobType = jt
		}
		if lt := ClassifyLocationType(line); lt.Valid() {
			p.LocationType = lt
		}
	}

	if !p.Salary.Valid() {
		p.Salary = matchSalary(fallbackText)
	}
	if !p.EmployeeRange.Valid() {
		p.EmployeeRange = matchEmployees(fallbackText)
	}
	return p
}

func matchSalary(s string) domain.Opt[string] {
	if s == "" {
		return domain.None[string]()
	}
	if m := reSalaryRange.FindString(s); m != "" {
		return domain.Some(m)
	}
	if m := reSalarySingle.FindString(s); m != "" {
		return domain.Some(m)
	}
	return domain.None[string]()
}

func matchEmployees(s string) domain.Opt[string] {
	if s == "" {
		return domain.None[string]()
	}
	if m := reEmployeesRange.FindStringSubmatch(s); m != nil {
		return domain.Some(m[1] + " - " + m[2] + " employees")
	}
	if m := reEmployeesOne.FindStringSubmatch(s); m != nil {
		return domain.Some(m[1] + " employees")
	}
	return domain.None[string]()
}

// ClassifyJobType checks one line for the literal job type labels, in
// priority order Full-time, Part-time, Contract.
func ClassifyJobType(line string) domain.Opt[domain.JobType] {
	for _, jt := range []domain.JobType{domain.FullTime, domain.PartTime, domain.Contract} {
		if strings.Contains(line, string(jt)) {
			return domain.Some(jt)
		}
	}
	return domain.None[domain.JobType]()
}

// ClassifyLocationType checks one line for Remote, On-site or Hybrid.
func ClassifyLocationType(line string) domain.Opt[domain.LocationType] {
	for _, lt := range []domain.LocationType{domain.Remote, domain.OnSite, domain.Hybrid} {
		if strings.Contains(line, string(lt)) {
			return domain.Some(lt)
		}
	}
	return domain.None[domain.LocationType]()
}

// SalaryValue normalizes a salary a scraper extracted itself: the matched
// amount when it looks like one, the cleaned text otherwise.
func SalaryValue(s string) domain.Opt[string] {
	s = CleanText(s)
	return matchSalary(s).OrElse(domain.Text(s))
}

// EmployeeValue is SalaryValue for company size.
func EmployeeValue(s string) domain.Opt[string] {
	s = CleanText(s)
	return matchEmployees(s).OrElse(domain.Text(s))
}
