package rank

import (
	"context"
	"errors"
	"fmt"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/store"
)

var ErrProfileNotFound = fmt.Errorf("profile %w", store.ErrNotFound)

// Corpus is the read side of the job store.
type Corpus interface {
	FindAll(ctx context.Context) ([]domain.JobRecord, error)
}

type Profiles interface {
	FindProfile(ctx context.Context, id string) (domain.UserProfile, error)
}

type Service struct {
	Corpus      Corpus
	Profiles    Profiles
	Opts        Options
	MaxPageSize int
}

// Score ranks the whole stored corpus for one profile and returns the
// requested page. An empty corpus is an empty page, not an error.
func (s Service) Score(ctx context.Context, profileID string, page, pageSize int, mode Mode) (Page, error) {
	profile, err := s.Profiles.FindProfile(ctx, profileID)
	if errors.Is(err, store.ErrNotFound) {
		return Page{}, fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
	}
	if err != nil {
		return Page{}, fmt.Errorf("load profile: %w", err)
	}

	corpus, err := s.Corpus.FindAll(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("load corpus: %w", err)
	}

	var sc Scorer
	switch mode {
	case ModeSimple:
		sc = NewSimple(profile)
	default:
		sc = NewFull(corpus, profile, s.Opts)
	}
	return Paginate(Rank(corpus, sc), page, pageSize, s.MaxPageSize), nil
}
