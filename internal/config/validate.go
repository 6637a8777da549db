package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong with
// it. Hard errors come from Validate; the rest are warnings.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)
	out.Extraction.SkillVocabulary = trimList(out.Extraction.SkillVocabulary)
	out.ApplyDefaults()

	out.Sources.Greenhouse.Companies = normalizeCompanies(out.Sources.Greenhouse.Companies)
	out.Sources.Lever.Companies = normalizeCompanies(out.Sources.Lever.Companies)

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
			if line != "" && !strings.HasPrefix(line, "config validation failed") {
				res.addErr("%s", line)
			}
		}
	}

	if !out.Email.Enabled && !out.Sources.Greenhouse.Enabled && !out.Sources.Lever.Enabled && !out.Sources.Dump.Enabled {
		res.addWarn("no sources enabled; only POST /jobs/ingest will add jobs")
	}
	if out.Sources.Greenhouse.Enabled && len(out.Sources.Greenhouse.Companies) == 0 {
		res.addWarn("sources.greenhouse is enabled but has no companies")
	}
	if out.Sources.Lever.Enabled && len(out.Sources.Lever.Companies) == 0 {
		res.addWarn("sources.lever is enabled but has no companies")
	}
	if out.Sources.Dump.Enabled && strings.TrimSpace(out.Sources.Dump.Dir) == "" {
		res.addErr("sources.dump.dir is required when sources.dump.enabled=true")
	}
	if out.Extraction.Workers > 64 {
		res.addWarn("extraction.workers is very high (%d)", out.Extraction.Workers)
	}
	if out.Enrichment.Enabled && out.Enrichment.Cache.RedisURL == "" {
		res.addWarn("enrichment cache has no redis_url; responses are cached in memory only")
	}

	// email required fields if enabled (password not required here; it's in keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; every unseen LinkedIn email will be parsed.")
		}
	}

	return out, res
}

// normalizeCompanies lowercases slugs, drops blanks and duplicates, and
// defaults Name to the slug.
func normalizeCompanies(in []Company) []Company {
	seen := map[string]bool{}
	var out []Company
	for _, c := range in {
		c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
		c.Name = strings.TrimSpace(c.Name)
		if c.Slug == "" || seen[c.Slug] {
			continue
		}
		seen[c.Slug] = true
		if c.Name == "" {
			c.Name = c.Slug
		}
		out = append(out, c)
	}
	return out
}
