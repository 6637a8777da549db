package domain

import "time"

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// UserProfile is owned by the identity layer. Ranking reads only Skills and
// the experience titles.
type UserProfile struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName,omitempty"`
	Email       string       `json:"email,omitempty"`
	PhotoURL    string       `json:"photoUrl,omitempty"`
	Industry    string       `json:"industry,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Skills      []string     `json:"skills"`
	Experience  []Experience `json:"experience"`
}

func (p UserProfile) ExperienceTitles() []string {
	out := make([]string, 0, len(p.Experience))
	for _, e := range p.Experience {
		out = append(out, e.Title)
	}
	return out
}
