package rank

import (
	"sort"
	"strings"

	"github.com/Achi00/jobs-server/internal/domain"
)

// Mode selects the relevance algorithm.
type Mode string

const (
	ModeFull   Mode = "full"
	ModeSimple Mode = "simple"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, true
	case ModeSimple:
		return ModeSimple, true
	}
	return "", false
}

type Scorer interface {
	Score(job domain.JobRecord) float64
}

// Options are the tunable weights of full mode.
type Options struct {
	SimilarityThreshold float64
	TitleBonus          float64
}

func DefaultOptions() Options {
	return Options{SimilarityThreshold: 0.8, TitleBonus: 0.5}
}

// Scored is a record with its relevance attached.
type Scored struct {
	domain.JobRecord
	RelevanceScore float64 `json:"relevanceScore"`
}

// SimpleScorer is the share of the job's skills the profile has.
type SimpleScorer struct {
	skills map[string]struct{}
}

func NewSimple(p domain.UserProfile) SimpleScorer {
	return SimpleScorer{skills: domain.SkillSet(p.Skills).Lower()}
}

func (s SimpleScorer) Score(job domain.JobRecord) float64 {
	if len(job.Skills) == 0 {
		return 0
	}
	hits := 0
	for _, sk := range job.Skills {
		if _, ok := s.skills[strings.ToLower(sk)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(job.Skills))
}

// FullScorer combines fuzzy skill matches, title overlap and corpus term
// weights, normalized by the best score the profile could reach.
type FullScorer struct {
	opts        Options
	index       *Index
	skills      []string // lowercased profile skills
	skillSet    map[string]struct{}
	terms       []string // profile skills and experience titles
	experiences int
}

func NewFull(corpus []domain.JobRecord, p domain.UserProfile, opts Options) *FullScorer {
	skills := uniq(p.Skills)
	for i, s := range skills {
		skills[i] = strings.ToLower(s)
	}
	titles := p.ExperienceTitles()
	return &FullScorer{
		opts:        opts,
		index:       NewIndex(corpus),
		skills:      skills,
		skillSet:    domain.SkillSet(skills).Lower(),
		terms:       uniq(append(append([]string(nil), p.Skills...), titles...)),
		experiences: len(p.Experience),
	}
}

func (s *FullScorer) Score(job domain.JobRecord) float64 {
	var score float64

	for _, js := range job.Skills {
		best := 0.0
		for _, ps := range s.skills {
			if sim := Similarity(js, ps); sim > best {
				best = sim
			}
		}
		if best > s.opts.SimilarityThreshold {
			score += best
		}
	}

	tokens := domain.TitleTokens(job.JobTitle)
	for _, tok := range tokens {
		if _, ok := s.skillSet[tok]; ok {
			score += s.opts.TitleBonus
		}
	}

	for _, term := range s.terms {
		score += s.index.Weight(term, job.JobID)
	}

	denom := float64(len(s.skills)+s.experiences) + s.opts.TitleBonus*float64(len(tokens))
	if denom == 0 {
		return 0
	}
	return score / denom
}

// Rank scores every job and sorts by descending score. Ties keep corpus
// order.
func Rank(corpus []domain.JobRecord, sc Scorer) []Scored {
	out := make([]Scored, len(corpus))
	for i, job := range corpus {
		out[i] = Scored{JobRecord: job, RelevanceScore: sc.Score(job)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
