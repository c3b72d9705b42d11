package domain

import "time"

// GroupPolicy decides which destination note a highlight belongs to.
type GroupPolicy string

const (
	GroupByDate    GroupPolicy = "date"
	GroupByArticle GroupPolicy = "article"
)

// Scope selects which item kinds a sync pass processes.
type Scope string

const (
	ScopeAll            Scope = "all"
	ScopeArticlesOnly   Scope = "articles"
	ScopeHighlightsOnly Scope = "highlights"
)

// IncludesArticles reports whether the scope covers articles.
func (s Scope) IncludesArticles() bool {
	return s == ScopeAll || s == ScopeArticlesOnly
}

// IncludesHighlights reports whether the scope covers highlights.
func (s Scope) IncludesHighlights() bool {
	return s == ScopeAll || s == ScopeHighlightsOnly
}

// SyncedArticle is one article-ledger record. Records are pruned after a
// retention window; the destination note is never touched by the prune.
type SyncedArticle struct {
	ID      string    `db:"id"`
	SavedAt time.Time `db:"saved_at"`
}

// SyncState is the persisted synchronization state: the watermark plus the
// two deduplication ledgers. It is loaded once at pass start, mutated in
// memory during the pass, and written back once at pass end.
type SyncState struct {
	watermark  time.Time
	articles   map[string]SyncedArticle
	highlights map[string][]string
}

// NewSyncState returns an empty state (watermark at beginning of time).
func NewSyncState() *SyncState {
	return &SyncState{
		articles:   make(map[string]SyncedArticle),
		highlights: make(map[string][]string),
	}
}

// RestoreSyncState rebuilds a state from its persisted parts.
func RestoreSyncState(watermark time.Time, articles []SyncedArticle, highlights map[string][]string) *SyncState {
	s := NewSyncState()
	s.watermark = watermark
	for _, a := range articles {
		s.articles[a.ID] = a
	}
	for key, ids := range highlights {
		for _, id := range ids {
			s.RecordHighlightSynced(key, id)
		}
	}
	return s
}

// Watermark returns the high-water mark: everything with an effective
// timestamp at or before it has been synced.
func (s *SyncState) Watermark() time.Time {
	return s.watermark
}

// AdvanceWatermark moves the watermark forward to candidate if candidate is
// later. The watermark never decreases.
func (s *SyncState) AdvanceWatermark(candidate time.Time) {
	if candidate.After(s.watermark) {
		s.watermark = candidate
	}
}

func (s *SyncState) IsArticleSynced(id string) bool {
	_, ok := s.articles[id]
	return ok
}

func (s *SyncState) RecordArticleSynced(id string, savedAt time.Time) {
	s.articles[id] = SyncedArticle{ID: id, SavedAt: savedAt}
}

// PruneArticles drops article records whose savedAt is older than
// now − retentionDays. Highlight records are exempt from pruning.
func (s *SyncState) PruneArticles(retentionDays int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -retentionDays)
	pruned := 0
	for id, rec := range s.articles {
		if rec.SavedAt.Before(cutoff) {
			delete(s.articles, id)
			pruned++
		}
	}
	return pruned
}

func (s *SyncState) IsHighlightSynced(groupKey, id string) bool {
	for _, existing := range s.highlights[groupKey] {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *SyncState) RecordHighlightSynced(groupKey, id string) {
	if s.IsHighlightSynced(groupKey, id) {
		return
	}
	s.highlights[groupKey] = append(s.highlights[groupKey], id)
}

// Articles returns the article ledger records in unspecified order.
func (s *SyncState) Articles() []SyncedArticle {
	out := make([]SyncedArticle, 0, len(s.articles))
	for _, rec := range s.articles {
		out = append(out, rec)
	}
	return out
}

// Highlights returns a copy of the highlight ledger.
func (s *SyncState) Highlights() map[string][]string {
	out := make(map[string][]string, len(s.highlights))
	for key, ids := range s.highlights {
		out[key] = append([]string(nil), ids...)
	}
	return out
}

// HighlightCount returns the total number of ledgered highlight ids.
func (s *SyncState) HighlightCount() int {
	n := 0
	for _, ids := range s.highlights {
		n += len(ids)
	}
	return n
}

// ArticleCount returns the number of ledgered articles.
func (s *SyncState) ArticleCount() int {
	return len(s.articles)
}

// SyncStats holds statistics about one sync pass.
type SyncStats struct {
	PassID            string
	ArticlesFetched   int
	ArticlesWritten   int
	ArticlesSkipped   int
	HighlightsFetched int
	HighlightsWritten int
	HighlightsSkipped int
	NotesTouched      int
	Errors            int
	Published         int
	Duration          time.Duration
}
