package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

// NoteResolver finds or creates the destination note for a group, repairing
// title collisions by merge. Resolved notes are cached per pass so the
// search/create/merge protocol runs at most once per group key even when
// several batches target the same group. Create a fresh resolver for every
// pass; the cache must not outlive it.
type NoteResolver struct {
	store  NoteStore
	logger *slog.Logger
	cache  map[string]*domain.Note
	merged int
}

func NewNoteResolver(store NoteStore, logger *slog.Logger) *NoteResolver {
	return &NoteResolver{
		store:  store,
		logger: logger,
		cache:  make(map[string]*domain.Note),
	}
}

// Resolve returns the single destination note for (groupKey, title):
// creating it when absent, relocating it when it sits in the wrong folder,
// merging when the title matches more than one note.
func (r *NoteResolver) Resolve(ctx context.Context, groupKey, title, folderID string) (*domain.Note, error) {
	if note, ok := r.cache[groupKey]; ok {
		return note, nil
	}

	matches, err := r.store.SearchNotesByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("search notes %q: %w", title, err)
	}
	// the store's search may be fuzzier than exact; keep exact titles only
	exact := matches[:0]
	for _, m := range matches {
		if m.Title == title {
			exact = append(exact, m)
		}
	}

	var note *domain.Note
	switch len(exact) {
	case 0:
		note, err = r.store.CreateNote(ctx, &domain.Note{Title: title, ParentID: folderID})
		if err != nil {
			return nil, fmt.Errorf("create note %q: %w", title, err)
		}
		r.logger.Debug("created note", "title", title, "note_id", note.ID)
	case 1:
		note = &exact[0]
		if note.ParentID != folderID {
			note.ParentID = folderID
			if err := r.store.UpdateNote(ctx, note); err != nil {
				return nil, fmt.Errorf("move note %q: %w", title, err)
			}
			r.logger.Info("relocated note", "title", title, "note_id", note.ID)
		}
	default:
		note, err = r.Merge(ctx, exact, folderID)
		if err != nil {
			return nil, err
		}
	}

	r.cache[groupKey] = note
	return note, nil
}

// Merge collapses title-colliding notes into one: the first match survives
// with every non-empty body concatenated in search-result order, relocated
// to folderID; the rest are deleted.
func (r *NoteResolver) Merge(ctx context.Context, notes []domain.Note, folderID string) (*domain.Note, error) {
	var bodies []string
	for _, n := range notes {
		if body := strings.TrimSpace(n.Body); body != "" {
			bodies = append(bodies, body)
		}
	}

	survivor := notes[0]
	survivor.Body = strings.Join(bodies, render.FragmentDelimiter)
	survivor.ParentID = folderID
	if err := r.store.UpdateNote(ctx, &survivor); err != nil {
		return nil, fmt.Errorf("merge into note %s: %w", survivor.ID, err)
	}

	for _, n := range notes[1:] {
		if err := r.store.DeleteNote(ctx, n.ID); err != nil {
			return nil, fmt.Errorf("delete merged note %s: %w", n.ID, err)
		}
	}

	r.merged += len(notes) - 1
	r.logger.Info("merged notes",
		"title", survivor.Title,
		"survivor", survivor.ID,
		"absorbed", len(notes)-1,
	)
	return &survivor, nil
}

// MergedCount reports how many notes this resolver deleted by merging.
func (r *NoteResolver) MergedCount() int {
	return r.merged
}

// Update writes a note's body through the store and refreshes the pass
// cache so later batches against the same group see the new body.
func (r *NoteResolver) Update(ctx context.Context, groupKey string, note *domain.Note) error {
	if err := r.store.UpdateNote(ctx, note); err != nil {
		return fmt.Errorf("update note %s: %w", note.ID, err)
	}
	r.cache[groupKey] = note
	return nil
}
