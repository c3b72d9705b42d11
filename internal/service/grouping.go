package service

import (
	"sort"
	"time"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

// Group is one batch of highlights destined for a single note.
type Group struct {
	// Key identifies the group in the highlight ledger: a YYYY-MM-DD date
	// for date grouping, the owning article id for article grouping.
	Key string
	// TitleSuffix is the human-visible part of the destination note title
	// after the configured prefix.
	TitleSuffix string
	Highlights  []domain.Highlight
}

const dateKeyLayout = "2006-01-02"

// GroupHighlights partitions highlights into destination-note groups.
// Groups come back in first-appearance order and the function is fully
// deterministic for a fixed input.
//
// Date policy: key is the creation day in loc; inside a group, each
// article's highlights stay contiguous (articles in first-appearance order)
// sorted ascending by creation time. Article policy: key is the article id;
// highlights sorted ascending by position fraction, missing treated as 0.
// All sorts are stable, so equal keys keep fetch order.
func GroupHighlights(highlights []domain.Highlight, policy domain.GroupPolicy, loc *time.Location) []Group {
	var order []string
	buckets := make(map[string]*Group)

	for _, h := range highlights {
		key := groupKey(h, policy, loc)
		g, ok := buckets[key]
		if !ok {
			g = &Group{Key: key, TitleSuffix: titleSuffix(h, policy, loc)}
			buckets[key] = g
			order = append(order, key)
		}
		g.Highlights = append(g.Highlights, h)
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		g := buckets[key]
		sortGroup(g, policy)
		out = append(out, *g)
	}
	return out
}

func groupKey(h domain.Highlight, policy domain.GroupPolicy, loc *time.Location) string {
	if policy == domain.GroupByArticle {
		return h.ArticleID
	}
	return h.CreatedAt.In(loc).Format(dateKeyLayout)
}

func titleSuffix(h domain.Highlight, policy domain.GroupPolicy, loc *time.Location) string {
	if policy == domain.GroupByArticle {
		return render.DecodeArtifacts(h.ArticleTitle)
	}
	return h.CreatedAt.In(loc).Format(dateKeyLayout)
}

func sortGroup(g *Group, policy domain.GroupPolicy) {
	if policy == domain.GroupByArticle {
		sort.SliceStable(g.Highlights, func(i, j int) bool {
			return g.Highlights[i].PositionOrZero() < g.Highlights[j].PositionOrZero()
		})
		return
	}

	// article sub-groups stay contiguous in first-appearance order
	articleRank := make(map[string]int)
	for _, h := range g.Highlights {
		if _, ok := articleRank[h.ArticleID]; !ok {
			articleRank[h.ArticleID] = len(articleRank)
		}
	}
	sort.SliceStable(g.Highlights, func(i, j int) bool {
		ri, rj := articleRank[g.Highlights[i].ArticleID], articleRank[g.Highlights[j].ArticleID]
		if ri != rj {
			return ri < rj
		}
		return g.Highlights[i].CreatedAt.Before(g.Highlights[j].CreatedAt)
	})
}
