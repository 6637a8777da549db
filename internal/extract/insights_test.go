package extract

import (
	"testing"

	"github.com/Achi00/jobs-server/internal/domain"
)

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name      string
		insights  []string
		fallback  string
		salary    string
		jobType   string
		location  string
		employees string
	}{
		{
			name:      "single line carries everything",
			insights:  []string{"$80K/yr - $120K/yr · Full-time · Remote · 51-200 employees"},
			salary:    "$80K/yr - $120K/yr",
			jobType:   "Full-time",
			location:  "Remote",
			employees: "51 - 200 employees",
		},
		{
			name:      "single salary and company size",
			insights:  []string{"$45/hr", "Contract", "10,001+ employees · IT Services"},
			salary:    "$45/hr",
			jobType:   "Contract",
			location:  domain.NotSpecified,
			employees: "10,001+ employees",
		},
		{
			name:      "first salary wins",
			insights:  []string{"$90K/yr", "$100K/yr - $150K/yr"},
			salary:    "$90K/yr",
			jobType:   domain.NotSpecified,
			location:  domain.NotSpecified,
			employees: domain.NotSpecified,
		},
		{
			name:      "last job type wins",
			insights:  []string{"Full-time", "Hybrid", "Part-time", "On-site"},
			salary:    domain.NotSpecified,
			jobType:   "Part-time",
			location:  "On-site",
			employees: domain.NotSpecified,
		},
		{
			name:      "fallback text",
			insights:  []string{"Full-time"},
			fallback:  "Pay $60K/yr - $70K/yr\n1,001-5,000 employees",
			salary:    "$60K/yr - $70K/yr",
			jobType:   "Full-time",
			location:  domain.NotSpecified,
			employees: "1,001 - 5,000 employees",
		},
		{
			name:      "nothing recognisable",
			insights:  []string{"Actively recruiting", "full-time"},
			fallback:  "no numbers here",
			salary:    domain.NotSpecified,
			jobType:   domain.NotSpecified,
			location:  domain.NotSpecified,
			employees: domain.NotSpecified,
		},
		{
			name:      "nil input",
			salary:    domain.NotSpecified,
			jobType:   domain.NotSpecified,
			location:  domain.NotSpecified,
			employees: domain.NotSpecified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseInsights(tt.insights, tt.fallback)
			if got := domain.Sentinel(p.Salary); got != tt.salary {
				t.Errorf("salary = %q, want %q", got, tt.salary)
			}
			if got := domain.Sentinel(p.JobType); got != tt.jobType {
				t.Errorf("jobType = %q, want %q", got, tt.jobType)
			}
			if got := domain.Sentinel(p.LocationType); got != tt.location {
				t.Errorf("locationType = %q, want %q", got, tt.location)
			}
			if got := domain.Sentinel(p.EmployeeRange); got != tt.employees {
				t.Errorf("employeeRange = %q, want %q", got, tt.employees)
			}
		})
	}
}

func TestParseInsightsInsightsBeatFallback(t *testing.T) {
	p := ParseInsights([]string{"$50/hr"}, "$200K/yr")
	if got := domain.Sentinel(p.Salary); got != "$50/hr" {
		t.Errorf("salary = %q, want $50/hr", got)
	}
}

func TestParseInsightsNoJobTypeNeverGuesses(t *testing.T) {
	lines := [][]string{
		{"Remote", "51-200 employees"},
		{"Internship"},
		{"FULL-TIME"},
		{},
	}
	for _, l := range lines {
		if p := ParseInsights(l, ""); p.JobType.Valid() {
			t.Errorf("ParseInsights(%q).JobType = %v, want absent", l, p.JobType)
		}
	}
}

func TestRawTierValues(t *testing.T) {
	tests := []struct {
		in, salary, employees string
	}{
		{"$100K/yr plus bonus", "$100K/yr", "$100K/yr plus bonus"},
		{"11-50 employees", "11-50 employees", "11 - 50 employees"},
		{"  lots  ", "lots", "lots"},
		{"N/A", "", ""},
	}
	for _, tt := range tests {
		if got := SalaryValue(tt.in).Or(""); got != tt.salary {
			t.Errorf("SalaryValue(%q) = %q, want %q", tt.in, got, tt.salary)
		}
		if got := EmployeeValue(tt.in).Or(""); got != tt.employees {
			t.Errorf("EmployeeValue(%q) = %q, want %q", tt.in, got, tt.employees)
		}
	}
}
