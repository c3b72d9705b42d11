package domain

import "time"

// Article is a read-it-later item as delivered by the remote service.
// Immutable once fetched; nothing is ever written back to the source.
type Article struct {
	ID      string
	Title   string
	Content string // raw HTML body
	URL     string
	Author  *string
	SavedAt time.Time
	Labels  []string
}
