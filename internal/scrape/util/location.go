package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/extract"
)

// Nodes that greenhouse, lever and most hosted boards put the location in.
var locationSelectors = []string{
	".location",
	".opening .location",
	".job__location",
	".app-title + .location",
	".posting-categories .location",
	"[data-testid='job-location']",
	"[data-testid='location']",
}

// longest first so "job location:" wins over "location:"
var locationLabels = []string{"job location:", "locations:", "location:"}

var fieldBreaks = []string{"\n", "\r", " | ", " · "}

const maxLabeledLocation = 80

// FindLocation reads the location of a posting page. Known location nodes
// are tried first, then a labeled line in og:description, then the body.
func FindLocation(doc *goquery.Document) domain.Opt[string] {
	lookups := []func() domain.Opt[string]{
		func() domain.Opt[string] { return FirstText(doc, locationSelectors...) },
		func() domain.Opt[string] {
			v, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
			return LocationFromLabel(v)
		},
		func() domain.Opt[string] { return LocationFromLabel(doc.Find("body").Text()) },
	}
	for _, lookup := range lookups {
		raw, ok := lookup().Get()
		if !ok {
			continue
		}
		if loc := domain.Text(extract.NormalizeLocation(raw)); loc.Valid() {
			return loc
		}
	}
	return domain.None[string]()
}

// FirstText returns the cleaned text of the first selector that matches a
// non-empty node.
func FirstText(doc *goquery.Document, selectors ...string) domain.Opt[string] {
	for _, sel := range selectors {
		if t := domain.Text(extract.CleanText(doc.Find(sel).First().Text())); t.Valid() {
			return t
		}
	}
	return domain.None[string]()
}

// LocationFromLabel returns the value after a "Location:" style label, cut
// at the first line or field break.
func LocationFromLabel(s string) domain.Opt[string] {
	low := strings.ToLower(s)
	for _, label := range locationLabels {
		i := strings.Index(low, label)
		if i < 0 || i+len(label) > len(s) {
			continue
		}
		v := strings.TrimSpace(s[i+len(label):])
		for _, br := range fieldBreaks {
			v, _, _ = strings.Cut(v, br)
		}
		if v = extract.CleanText(v); v != "" && len(v) <= maxLabeledLocation {
			return domain.Some(v)
		}
	}
	return domain.None[string]()
}
