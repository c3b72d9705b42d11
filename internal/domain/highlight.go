package domain

import "time"

// Highlight is a text highlight taken inside a remote article. The owning
// article is denormalized so highlights can be grouped and rendered without
// a second fetch.
type Highlight struct {
	ID           string
	ArticleID    string
	ArticleTitle string
	ArticleURL   string
	ArticleSlug  *string
	Author       *string
	PublishedAt  *time.Time
	Quote        string
	Annotation   *string
	CreatedAt    time.Time
	// Position is the fraction of the article (0.0–1.0) at which the
	// highlight starts. Only article-grouped ordering uses it.
	Position *float64
}

// PositionOrZero returns the position fraction, treating a missing value as 0.
func (h Highlight) PositionOrZero() float64 {
	if h.Position == nil {
		return 0
	}
	return *h.Position
}
