package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"omnivore_sync/internal/config"
	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

// SyncService runs one-directional incremental sync passes from the remote
// read-it-later service into the local note store.
type SyncService struct {
	source    Source
	notes     NoteStore
	state     StateStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
	loc       *time.Location
}

func NewSyncService(
	source Source,
	notes NoteStore,
	state StateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) (*SyncService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	return &SyncService{
		source:    source,
		notes:     notes,
		state:     state,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
		loc:       loc,
	}, nil
}

// Sync runs one full pass: fetch, render, group, resolve, append, then
// persist state. Persisted state is read once at pass start and written once
// at pass end; a collaborator failure aborts the pass with state untouched,
// so the next pass retries from the last good watermark. Re-delivered items
// are no-ops thanks to the ledgers and the content-signature dedup.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	passID := uuid.NewString()
	logger := s.logger.With("pass_id", passID)

	logger.Info("starting sync pass",
		"scope", s.config.Scope,
		"group_by", s.config.GroupBy,
		"folder", s.config.FolderName,
	)

	state, err := s.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	stats := &domain.SyncStats{PassID: passID}
	resolver := NewNoteResolver(s.notes, logger)

	folderID, err := resolveFolder(ctx, s.notes, s.config.FolderName, logger)
	if err != nil {
		return nil, err
	}

	var maxEffective time.Time

	if s.config.Scope.IncludesArticles() {
		if err := s.syncArticles(ctx, state, resolver, folderID, &maxEffective, stats, logger); err != nil {
			return nil, err
		}
	}

	if s.config.Scope.IncludesHighlights() {
		if err := s.syncHighlights(ctx, state, resolver, folderID, &maxEffective, stats, logger); err != nil {
			return nil, err
		}
	}

	state.AdvanceWatermark(maxEffective)
	if pruned := state.PruneArticles(s.config.RetentionDays, time.Now()); pruned > 0 {
		logger.Debug("pruned article ledger", "records", pruned)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.state.Replace(txCtx, state)
	})
	if err != nil {
		return stats, fmt.Errorf("persist sync state: %w", err)
	}

	stats.Duration = time.Since(startTime)
	logger.Info("sync pass completed",
		"articles_written", stats.ArticlesWritten,
		"highlights_written", stats.HighlightsWritten,
		"notes_touched", stats.NotesTouched,
		"skipped", stats.ArticlesSkipped+stats.HighlightsSkipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"watermark", state.Watermark(),
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) syncArticles(
	ctx context.Context,
	state *domain.SyncState,
	resolver *NoteResolver,
	folderID string,
	maxEffective *time.Time,
	stats *domain.SyncStats,
	logger *slog.Logger,
) error {
	articles, err := s.source.FetchArticles(ctx, state.Watermark(), s.config.ArticleLabels)
	if err != nil {
		return fmt.Errorf("fetch articles: %w", err)
	}
	stats.ArticlesFetched = len(articles)
	logger.Info("fetched articles", "count", len(articles))

	for i := range articles {
		a := articles[i]
		if state.IsArticleSynced(a.ID) {
			stats.ArticlesSkipped++
			continue
		}

		// one bad article must not abort the pass
		if err := s.writeArticle(ctx, resolver, folderID, a, stats); err != nil {
			logger.Error("article sync failed", "article_id", a.ID, "error", err)
			stats.Errors++
			continue
		}

		state.RecordArticleSynced(a.ID, a.SavedAt)
		if a.SavedAt.After(*maxEffective) {
			*maxEffective = a.SavedAt
		}
		stats.ArticlesWritten++
	}

	return nil
}

func (s *SyncService) writeArticle(
	ctx context.Context,
	resolver *NoteResolver,
	folderID string,
	a domain.Article,
	stats *domain.SyncStats,
) error {
	fragment, err := render.RenderArticle(a, s.loc)
	if err != nil {
		return err
	}

	title := render.DecodeArtifacts(strings.TrimSpace(a.Title))
	if title == "" {
		title = a.URL
	}

	// article notes resolve under their own cache namespace: with article
	// grouping, a highlight group key is also an article id
	cacheKey := "article:" + a.ID
	note, err := resolver.Resolve(ctx, cacheKey, title, folderID)
	if err != nil {
		return err
	}

	action := domain.NoteAppend
	if strings.TrimSpace(note.Body) == "" {
		action = domain.NoteCreated
	}

	body, appended := AppendNovel(note.Body, []Fragment{{ID: a.ID, Body: fragment}}, domain.GroupByArticle)
	if len(appended) == 0 {
		return nil
	}

	note.Body = body
	if err := resolver.Update(ctx, cacheKey, note); err != nil {
		return err
	}
	stats.NotesTouched++

	s.publish(ctx, stats, &domain.NoteEvent{
		Action:    action,
		NoteID:    note.ID,
		Title:     note.Title,
		GroupKey:  a.ID,
		ItemCount: 1,
		PassID:    stats.PassID,
	})
	return nil
}

func (s *SyncService) syncHighlights(
	ctx context.Context,
	state *domain.SyncState,
	resolver *NoteResolver,
	folderID string,
	maxEffective *time.Time,
	stats *domain.SyncStats,
	logger *slog.Logger,
) error {
	highlights, err := s.source.FetchHighlights(ctx, state.Watermark(), s.config.LookbackDays, s.config.HighlightLabels)
	if err != nil {
		return fmt.Errorf("fetch highlights: %w", err)
	}
	stats.HighlightsFetched = len(highlights)
	logger.Info("fetched highlights", "count", len(highlights))

	groups := GroupHighlights(highlights, s.config.GroupBy, s.loc)

	for _, g := range groups {
		novel := make([]domain.Highlight, 0, len(g.Highlights))
		for _, h := range g.Highlights {
			if state.IsHighlightSynced(g.Key, h.ID) {
				stats.HighlightsSkipped++
				continue
			}
			novel = append(novel, h)
		}
		if len(novel) == 0 {
			continue
		}

		if err := s.flushGroup(ctx, state, resolver, folderID, g, novel, maxEffective, stats, logger); err != nil {
			logger.Error("group flush failed", "group_key", g.Key, "error", err)
			stats.Errors++
		}
	}

	return nil
}

func (s *SyncService) flushGroup(
	ctx context.Context,
	state *domain.SyncState,
	resolver *NoteResolver,
	folderID string,
	g Group,
	novel []domain.Highlight,
	maxEffective *time.Time,
	stats *domain.SyncStats,
	logger *slog.Logger,
) error {
	title := s.config.TitlePrefix + " " + g.TitleSuffix

	note, err := resolver.Resolve(ctx, g.Key, title, folderID)
	if err != nil {
		return err
	}

	action := domain.NoteAppend
	if strings.TrimSpace(note.Body) == "" {
		action = domain.NoteCreated
	}

	fragments := make([]Fragment, 0, len(novel))
	byID := make(map[string]domain.Highlight, len(novel))
	for _, h := range novel {
		frag, err := render.RenderHighlight(s.config.HighlightTemplate, h, s.loc)
		if err != nil {
			logger.Error("highlight render failed", "highlight_id", h.ID, "error", err)
			stats.Errors++
			continue
		}
		fragments = append(fragments, Fragment{ID: h.ID, Body: frag})
		byID[h.ID] = h
	}

	body, appendedIDs := AppendNovel(note.Body, fragments, s.config.GroupBy)
	if len(appendedIDs) == 0 {
		return nil
	}

	note.Body = body
	if err := resolver.Update(ctx, g.Key, note); err != nil {
		return err
	}

	for _, id := range appendedIDs {
		state.RecordHighlightSynced(g.Key, id)
		if h, ok := byID[id]; ok && h.CreatedAt.After(*maxEffective) {
			*maxEffective = h.CreatedAt
		}
	}
	stats.HighlightsWritten += len(appendedIDs)
	stats.NotesTouched++

	s.publish(ctx, stats, &domain.NoteEvent{
		Action:    action,
		NoteID:    note.ID,
		Title:     note.Title,
		GroupKey:  g.Key,
		ItemCount: len(appendedIDs),
		PassID:    stats.PassID,
	})
	return nil
}

func (s *SyncService) publish(ctx context.Context, stats *domain.SyncStats, event *domain.NoteEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish failed", "note_id", event.NoteID, "error", err)
		stats.Errors++
		return
	}
	stats.Published++
}

// Consolidate repairs title collisions left behind by overlapping passes or
// grouping changes: every set of destination notes sharing a full title is
// merged into one. Intended to run after the main pass.
func (s *SyncService) Consolidate(ctx context.Context) error {
	logger := s.logger.With("op", "consolidate")

	folderID, err := resolveFolder(ctx, s.notes, s.config.FolderName, logger)
	if err != nil {
		return err
	}

	notes, err := s.notes.SearchNotesByTitlePrefix(ctx, s.config.TitlePrefix)
	if err != nil {
		return fmt.Errorf("search notes by prefix %q: %w", s.config.TitlePrefix, err)
	}

	buckets := make(map[string][]domain.Note)
	for _, n := range notes {
		if strings.HasPrefix(n.Title, s.config.TitlePrefix) {
			buckets[n.Title] = append(buckets[n.Title], n)
		}
	}

	titles := make([]string, 0, len(buckets))
	for title, bucket := range buckets {
		if len(bucket) > 1 {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)

	resolver := NewNoteResolver(s.notes, logger)
	for _, title := range titles {
		if _, err := resolver.Merge(ctx, buckets[title], folderID); err != nil {
			return err
		}
	}

	if resolver.MergedCount() > 0 {
		logger.Info("consolidation merged notes", "absorbed", resolver.MergedCount())
	}
	return nil
}
