package extract

import (
	"regexp"
	"strings"

	"github.com/Achi00/jobs-server/internal/domain"
)

// DefaultSkillNames is the vocabulary used when config does not supply one.
var DefaultSkillNames = []string{
	"JavaScript", "Python", "Java", "C++", "React", "Node.js", "SQL",
	"Machine Learning", "Data Analysis", "AWS", "Docker", "Kubernetes", "Git",
	"Agile", "Scrum", "DevOps", "CI/CD", "REST API", "GraphQL", "MongoDB",
	"PostgreSQL", "TensorFlow", "PyTorch", "Vue.js", "Angular", "TypeScript",
	"Go", "Ruby", "PHP", "Swift", "Kotlin", "R", "Scala", "Hadoop", "Spark",
	"Tableau", "Power BI", "Excel", "Terraform", "Ansible", "Jenkins", "Unity",
	"Unreal Engine", "Photoshop", "Illustrator", "Figma", "Sketch",
}

// Vocabulary is a closed set of recognised skill names.
type Vocabulary map[string]struct{}

func NewVocabulary(names []string) Vocabulary {
	v := make(Vocabulary, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			v[n] = struct{}{}
		}
	}
	return v
}

func (v Vocabulary) Has(name string) bool {
	_, ok := v[name]
	return ok
}

var reNonWord = regexp.MustCompile(`\W+`)

// ReconcileSkills flattens any raw skill shape into a SkillSet: exact
// duplicates and blank entries are removed, first occurrence order is kept.
func ReconcileSkills(raw domain.RawSkills) domain.SkillSet {
	var names []string
	switch raw.Shape {
	case domain.SkillsDelimited:
		if domain.IsUnspecified(raw.Delimited) {
			return domain.SkillSet{}
		}
		for _, part := range strings.Split(raw.Delimited, ",") {
			names = append(names, strings.TrimSpace(part))
		}
	case domain.SkillsStructured:
		names = append(names, raw.OnProfile...)
		names = append(names, raw.Missing...)
	case domain.SkillsList:
		names = raw.List
	default:
		return domain.SkillSet{}
	}
	return dedupe(names)
}

// ExtractSkillsFromText splits the description on non-word characters and
// keeps tokens that are exact vocabulary entries. Names containing
// separators (Node.js, Power BI) cannot match by construction.
func ExtractSkillsFromText(description string, vocab Vocabulary) domain.SkillSet {
	if description == "" || len(vocab) == 0 {
		return domain.SkillSet{}
	}
	var hits []string
	for _, word := range reNonWord.Split(description, -1) {
		if vocab.Has(word) {
			hits = append(hits, word)
		}
	}
	return dedupe(hits)
}

func dedupe(names []string) domain.SkillSet {
	seen := make(map[string]bool, len(names))
	out := domain.SkillSet{}
	for _, n := range names {
		if strings.TrimSpace(n) == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
