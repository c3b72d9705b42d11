package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"omnivore_sync/internal/domain"
)

// Source is the remote read-it-later service. Implementations return fully
// paginated, source-deduplicated results; labels are OR-combined and an
// empty filter means no restriction.
type Source interface {
	ID() string
	Name() string
	FetchArticles(ctx context.Context, since time.Time, labels []string) ([]domain.Article, error)
	FetchHighlights(ctx context.Context, since time.Time, lookbackDays int, labels []string) ([]domain.Highlight, error)
}

// NoteStore is the local note-taking application's CRUD surface.
type NoteStore interface {
	CreateNote(ctx context.Context, note *domain.Note) (*domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, id string) error
	// SearchNotesByTitle returns notes whose title matches exactly, in
	// stable search-result order, bodies included.
	SearchNotesByTitle(ctx context.Context, title string) ([]domain.Note, error)
	// SearchNotesByTitlePrefix returns notes whose title starts with prefix.
	SearchNotesByTitlePrefix(ctx context.Context, prefix string) ([]domain.Note, error)
	ListFolders(ctx context.Context) ([]domain.Folder, error)
	CreateFolder(ctx context.Context, title string) (*domain.Folder, error)
}

// StateStore persists the watermark and both deduplication ledgers.
type StateStore interface {
	Load(ctx context.Context) (*domain.SyncState, error)
	// Replace overwrites the persisted state wholesale. Call inside a
	// transaction so a failed pass leaves the prior state intact.
	Replace(ctx context.Context, state *domain.SyncState) error
	Reset(ctx context.Context) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher emits note-flush events for downstream consumers. Optional: a
// nil publisher disables publishing.
type Publisher interface {
	Publish(ctx context.Context, event *domain.NoteEvent) error
	Close() error
}
