package service

import (
	"sort"
	"strings"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

// Fragment is one rendered unit of content plus the source item id behind it.
type Fragment struct {
	ID   string
	Body string
}

// AppendNovel merges incoming fragments into an existing note body. The body
// is re-parsed on every call: destination notes are user-editable in the
// host application, so the body itself is the single source of truth and a
// side index could drift from user edits.
//
// A fragment is already present when any existing fragment shares its dedup
// key (timestamp token + first non-empty line, computed after artifact
// decoding). This keeps notes duplicate-free even after a ledger reset.
// Date-grouped bodies are fully re-sorted by token, newest first;
// article-grouped bodies are append-only since insertion order encodes
// position in the article.
//
// Returns the updated body and the ids of fragments actually appended.
func AppendNovel(body string, incoming []Fragment, policy domain.GroupPolicy) (string, []string) {
	fragments := SplitFragments(body)

	seen := make(map[render.DedupKey]struct{}, len(fragments))
	for _, f := range fragments {
		seen[render.KeyOf(f)] = struct{}{}
	}

	var appended []string
	for _, in := range incoming {
		normalized := strings.TrimSpace(render.DecodeArtifacts(in.Body))
		if normalized == "" {
			continue
		}
		key := render.KeyOf(normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fragments = append(fragments, normalized)
		appended = append(appended, in.ID)
	}

	if policy == domain.GroupByDate {
		sortFragmentsByTokenDesc(fragments)
	}

	return strings.Join(fragments, render.FragmentDelimiter), appended
}

// SplitFragments breaks a note body into its fragments, discarding empty and
// whitespace-only entries.
func SplitFragments(body string) []string {
	var out []string
	for _, part := range strings.Split(body, render.FragmentDelimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// sortFragmentsByTokenDesc orders fragments newest first by their embedded
// timestamp token. Fragments without a token sort last, keeping their
// relative order.
func sortFragmentsByTokenDesc(fragments []string) {
	sort.SliceStable(fragments, func(i, j int) bool {
		ti, iok := render.ParseToken(fragments[i])
		tj, jok := render.ParseToken(fragments[j])
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})
}
