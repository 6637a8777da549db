package extract

import (
	"regexp"
	"strings"
)

const preferencesBoilerplate = "Matches your job preferences,"

var (
	reWorkplaceType = regexp.MustCompile(`(?i)workplace type[^,.]*[,.]`)
	reJobTypeNote   = regexp.MustCompile(`(?i)job type[^,.]*[,.]`)
)

// NormalizeDescription strips LinkedIn boilerplate and flattens free text
// for matching. Steps run in a fixed order; commas end up as the only
// sentence delimiter.
func NormalizeDescription(text string) string {
	s := strings.ReplaceAll(text, preferencesBoilerplate, "")
	s = reWorkplaceType.ReplaceAllString(s, ",")
	s = reJobTypeNote.ReplaceAllString(s, ",")
	s = strings.ReplaceAll(s, ".", ",")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
