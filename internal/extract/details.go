package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the LinkedIn job detail card.
const (
	selCompanyLogo     = "img.ivm-view-attr__img--centered"
	selSalaryHighlight = ".job-details-jobs-unified-top-card__job-insight--highlight span"
	selJobTypeLabel    = ".job-details-jobs-unified-top-card__job-insight-view-model-secondary span.ui-label"
	selExperienceLevel = ".job-criteria__text--criteria:nth-child(3) span"
	selSkillButtons    = ".job-details-jobs-unified-top-card__job-insight-text-button a"
	selInfoItems       = ".mt2.mb2 li"
)

// Details is what can be read directly off a posting's description HTML.
type Details struct {
	CompanyLogo     string
	Salary          string
	JobType         string
	ExperienceLevel string
	// Skills is the skill buttons joined with ", ", the delimited shape.
	Skills    string
	InfoLines []string
	Text      string
}

// InfoText joins the info list items the way they are stored as jobInfo.
func (d Details) InfoText() string {
	return strings.Join(d.InfoLines, "\n")
}

// ParseDetails never fails; unparsable HTML yields empty Details.
func ParseDetails(descriptionHTML string) Details {
	if strings.TrimSpace(descriptionHTML) == "" {
		return Details{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(descriptionHTML))
	if err != nil {
		return Details{}
	}

	var d Details
	if src, ok := doc.Find(selCompanyLogo).First().Attr("src"); ok {
		d.CompanyLogo = strings.TrimSpace(src)
	}
	d.Salary = CleanText(doc.Find(selSalaryHighlight).Text())
	d.JobType = CleanText(doc.Find(selJobTypeLabel).Text())
	d.ExperienceLevel = CleanText(doc.Find(selExperienceLevel).Text())

	var skills []string
	doc.Find(selSkillButtons).Each(func(_ int, a *goquery.Selection) {
		if t := CleanText(a.Text()); t != "" {
			skills = append(skills, t)
		}
	})
	d.Skills = strings.Join(skills, ", ")

	doc.Find(selInfoItems).Each(func(_ int, li *goquery.Selection) {
		if t := CleanText(li.Text()); t != "" {
			d.InfoLines = append(d.InfoLines, t)
		}
	})

	d.Text = HTMLText(descriptionHTML)
	return d
}
