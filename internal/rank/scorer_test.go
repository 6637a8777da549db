package rank

import (
	"math"
	"testing"

	"github.com/Achi00/jobs-server/internal/domain"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSimpleScore(t *testing.T) {
	profile := domain.UserProfile{Skills: []string{"Go"}}
	tests := []struct {
		name   string
		skills []string
		want   float64
	}{
		{"superset of profile", []string{"go", "rust", "python"}, 1.0 / 3},
		{"all matched", []string{"GO"}, 1},
		{"no skills", nil, 0},
		{"no overlap", []string{"java"}, 0},
	}
	sc := NewSimple(profile)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sc.Score(domain.JobRecord{Skills: tt.skills})
			if !approx(got, tt.want) {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFullScore(t *testing.T) {
	corpus := []domain.JobRecord{
		{JobID: "a", JobTitle: "Go Developer", Skills: domain.SkillSet{"Go", "Kubernetes"}, DescriptionText: "Build Go services"},
		{JobID: "b", JobTitle: "Chef", Skills: domain.SkillSet{"Cooking"}, DescriptionText: "Kitchen work"},
	}
	profile := domain.UserProfile{Skills: []string{"go"}}
	sc := NewFull(corpus, profile, DefaultOptions())

	// a: skill 1.0 + title 0.5 + tf-idf 2*(1+ln(2/2)) = 3.5 over 1 + 0.5*2
	if got := sc.Score(corpus[0]); !approx(got, 1.75) {
		t.Errorf("Score(a) = %v, want 1.75", got)
	}
	if got := sc.Score(corpus[1]); got != 0 {
		t.Errorf("Score(b) = %v, want 0", got)
	}
}

func TestFullScoreIgnoresCaseDuplicates(t *testing.T) {
	corpus := []domain.JobRecord{
		{JobID: "a", JobTitle: "Go Developer", Skills: domain.SkillSet{"Go", "Kubernetes"}, DescriptionText: "Build Go services"},
		{JobID: "b", JobTitle: "Chef", Skills: domain.SkillSet{"Cooking"}, DescriptionText: "Kitchen work"},
	}
	once := NewFull(corpus, domain.UserProfile{Skills: []string{"Go"}}, DefaultOptions())
	twice := NewFull(corpus, domain.UserProfile{Skills: []string{"Go", "go", " GO "}}, DefaultOptions())

	for _, job := range corpus {
		if a, b := once.Score(job), twice.Score(job); !approx(a, b) {
			t.Errorf("Score(%s) = %v with duplicates, want %v", job.JobID, b, a)
		}
	}
	if got := uniq([]string{"Go", "go", "Rust", " rust", ""}); len(got) != 2 || got[0] != "Go" || got[1] != "Rust" {
		t.Errorf("uniq = %q", got)
	}
}

func TestFullScoreThresholdIsStrict(t *testing.T) {
	// "abcde" vs "abcdx" is exactly 0.8
	job := domain.JobRecord{JobID: "x", Skills: domain.SkillSet{"abcde"}}
	sc := NewFull([]domain.JobRecord{job}, domain.UserProfile{Skills: []string{"abcdx"}}, DefaultOptions())
	if got := sc.Score(job); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}

	opts := DefaultOptions()
	opts.SimilarityThreshold = 0.7
	sc = NewFull([]domain.JobRecord{job}, domain.UserProfile{Skills: []string{"abcdx"}}, opts)
	if got := sc.Score(job); !approx(got, 0.8) {
		t.Errorf("Score with lower threshold = %v, want 0.8", got)
	}
}

func TestFullScoreZeroDenominator(t *testing.T) {
	job := domain.JobRecord{JobID: "x", Skills: domain.SkillSet{"go"}}
	sc := NewFull([]domain.JobRecord{job}, domain.UserProfile{}, DefaultOptions())
	if got := sc.Score(job); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

func TestFullScoreExperienceTitles(t *testing.T) {
	corpus := []domain.JobRecord{
		{JobID: "a", DescriptionText: "backend engineer wanted"},
		{JobID: "b", DescriptionText: "designer wanted"},
	}
	profile := domain.UserProfile{Experience: []domain.Experience{{Title: "Backend Engineer"}}}
	sc := NewFull(corpus, profile, DefaultOptions())

	// two tokens, each tf 1, df 1, N 2: idf 1
	if got := sc.Score(corpus[0]); !approx(got, 2) {
		t.Errorf("Score(a) = %v, want 2", got)
	}
	if got := sc.Score(corpus[1]); got != 0 {
		t.Errorf("Score(b) = %v, want 0", got)
	}
}

func TestRankStableOnTies(t *testing.T) {
	corpus := []domain.JobRecord{
		{JobID: "1", Skills: domain.SkillSet{"java"}},
		{JobID: "2", Skills: domain.SkillSet{"go"}},
		{JobID: "3", Skills: domain.SkillSet{"php"}},
		{JobID: "4", Skills: domain.SkillSet{"go"}},
	}
	got := Rank(corpus, NewSimple(domain.UserProfile{Skills: []string{"go"}}))
	want := []string{"2", "4", "1", "3"}
	for i, id := range want {
		if got[i].JobID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
}

func ids(xs []Scored) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.JobID
	}
	return out
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Go", "go", 1},
		{"", "", 1},
		{"abc", "", 0},
		{"kitten", "sitting", 1 - 3.0/7},
		{"Kubernetes", "kubernetes", 1},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIndexWeight(t *testing.T) {
	ix := NewIndex([]domain.JobRecord{
		{JobID: "a", JobTitle: "Go", Knowledge: []string{"go concurrency"}},
		{JobID: "b", JobTitle: "Rust"},
		{JobID: "c", JobTitle: "Python"},
	})
	// tf 2, df 1, N 3
	want := 2 * (1 + math.Log(3.0/2))
	if got := ix.Weight("Go", "a"); !approx(got, want) {
		t.Errorf("Weight(go, a) = %v, want %v", got, want)
	}
	if got := ix.Weight("go", "b"); got != 0 {
		t.Errorf("Weight(go, b) = %v, want 0", got)
	}
	if got := ix.Weight("go", "missing"); got != 0 {
		t.Errorf("Weight(go, missing) = %v, want 0", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeFull, "FULL": ModeFull, " simple ": ModeSimple} {
		if got, ok := ParseMode(in); !ok || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseMode("fuzzy"); ok {
		t.Error("ParseMode(fuzzy) ok, want false")
	}
}
