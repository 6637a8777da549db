package rank

import (
	"math"
	"strings"
	"unicode"

	"github.com/Achi00/jobs-server/internal/domain"
)

// Index holds term counts for every job in a corpus snapshot.
type Index struct {
	docs map[string]map[string]int // jobId -> term -> count
	df   map[string]int
	n    int
}

// NewIndex builds the index over each job's lowercased title, description
// text, experiences and knowledge.
func NewIndex(corpus []domain.JobRecord) *Index {
	ix := &Index{
		docs: make(map[string]map[string]int, len(corpus)),
		df:   map[string]int{},
		n:    len(corpus),
	}
	for _, job := range corpus {
		counts := map[string]int{}
		for _, tok := range tokenize(document(job)) {
			counts[tok]++
		}
		if _, dup := ix.docs[job.JobID]; !dup {
			for tok := range counts {
				ix.df[tok]++
			}
		}
		ix.docs[job.JobID] = counts
	}
	return ix
}

func document(job domain.JobRecord) string {
	parts := []string{job.JobTitle, job.DescriptionText}
	parts = append(parts, job.Experiences...)
	parts = append(parts, job.Knowledge...)
	return strings.ToLower(strings.Join(parts, " "))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Weight is tf * (1 + ln(N / (1 + df))) of term in the job's document.
// Multi-word terms sum the weights of their tokens.
func (ix *Index) Weight(term, jobID string) float64 {
	doc, ok := ix.docs[jobID]
	if !ok || ix.n == 0 {
		return 0
	}
	var w float64
	for _, tok := range tokenize(term) {
		tf := doc[tok]
		if tf == 0 {
			continue
		}
		idf := 1 + math.Log(float64(ix.n)/float64(1+ix.df[tok]))
		w += float64(tf) * idf
	}
	return w
}
