package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"omnivore_sync/internal/domain"
)

// StateStore persists sync state across passes: the watermark plus the
// article and highlight ledgers. Replace swaps the whole state atomically
// when run inside a transaction context.
type StateStore struct {
	db *sqlx.DB
}

func NewStateStore(db *sqlx.DB) *StateStore {
	return &StateStore{db: db}
}

type highlightRow struct {
	GroupKey    string `db:"group_key"`
	HighlightID string `db:"highlight_id"`
}

func (s *StateStore) Load(ctx context.Context) (*domain.SyncState, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT watermark FROM sync_watermark WHERE id = 1`)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load watermark: %w", err)
	}

	// a missing or unparseable watermark falls back to the epoch, which
	// only causes re-fetching; the ledgers still suppress duplicates
	var watermark time.Time
	if raw != "" {
		if parsed, perr := time.Parse(time.RFC3339, raw); perr == nil {
			watermark = parsed
		}
	}

	var articles []domain.SyncedArticle
	err = s.db.SelectContext(ctx, &articles, `SELECT id, saved_at FROM synced_articles`)
	if err != nil {
		return nil, fmt.Errorf("load article ledger: %w", err)
	}

	var rows []highlightRow
	err = s.db.SelectContext(ctx, &rows, `SELECT group_key, highlight_id FROM synced_highlights`)
	if err != nil {
		return nil, fmt.Errorf("load highlight ledger: %w", err)
	}

	highlights := make(map[string][]string, len(rows))
	for _, r := range rows {
		highlights[r.GroupKey] = append(highlights[r.GroupKey], r.HighlightID)
	}

	return domain.RestoreSyncState(watermark, articles, highlights), nil
}

func (s *StateStore) Replace(ctx context.Context, state *domain.SyncState) error {
	exec := GetExecutor(ctx, s.db)

	for _, table := range []string{"synced_highlights", "synced_articles", "sync_watermark"} {
		if _, err := exec.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err := exec.ExecContext(ctx,
		`INSERT INTO sync_watermark (id, watermark) VALUES (1, $1)`,
		state.Watermark().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}

	if err := s.insertArticles(ctx, exec, state.Articles()); err != nil {
		return err
	}
	return s.insertHighlights(ctx, exec, state.Highlights())
}

func (s *StateStore) insertArticles(ctx context.Context, exec sqlx.ExtContext, articles []domain.SyncedArticle) error {
	if len(articles) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO synced_articles (id, saved_at) VALUES ")
	valueArgs := make([]interface{}, 0, len(articles)*2)

	for i, a := range articles {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(itoa(i*2 + 1))
		sb.WriteString(", $")
		sb.WriteString(itoa(i*2 + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, a.ID, a.SavedAt)
	}

	if _, err := exec.ExecContext(ctx, sb.String(), valueArgs...); err != nil {
		return fmt.Errorf("write article ledger: %w", err)
	}
	return nil
}

func (s *StateStore) insertHighlights(ctx context.Context, exec sqlx.ExtContext, highlights map[string][]string) error {
	total := 0
	for _, ids := range highlights {
		total += len(ids)
	}
	if total == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO synced_highlights (group_key, highlight_id) VALUES ")
	valueArgs := make([]interface{}, 0, total*2)

	i := 0
	for key, ids := range highlights {
		for _, id := range ids {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("($")
			sb.WriteString(itoa(i*2 + 1))
			sb.WriteString(", $")
			sb.WriteString(itoa(i*2 + 2))
			sb.WriteString(")")
			valueArgs = append(valueArgs, key, id)
			i++
		}
	}

	if _, err := exec.ExecContext(ctx, sb.String(), valueArgs...); err != nil {
		return fmt.Errorf("write highlight ledger: %w", err)
	}
	return nil
}

// Reset wipes all persisted sync state. The next pass re-fetches from the
// epoch and relies on content dedup against the notes themselves.
func (s *StateStore) Reset(ctx context.Context) error {
	exec := GetExecutor(ctx, s.db)
	for _, table := range []string{"synced_highlights", "synced_articles", "sync_watermark"} {
		if _, err := exec.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
