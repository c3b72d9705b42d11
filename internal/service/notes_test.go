package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/service/mocks"
)

type NoteResolverTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *mocks.MockNoteStore
	resolver *NoteResolver
}

func (s *NoteResolverTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockNoteStore(s.ctrl)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.resolver = NewNoteResolver(s.store, logger)
}

func (s *NoteResolverTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestNoteResolverTestSuite(t *testing.T) {
	suite.Run(t, new(NoteResolverTestSuite))
}

func (s *NoteResolverTestSuite) TestResolve_CreatesWhenAbsent() {
	ctx := context.Background()

	s.store.EXPECT().SearchNotesByTitle(ctx, "Omnivore Highlights 2024-01-05").Return(nil, nil)
	s.store.EXPECT().CreateNote(ctx, &domain.Note{
		Title:    "Omnivore Highlights 2024-01-05",
		ParentID: "folder-1",
	}).Return(&domain.Note{ID: "n1", Title: "Omnivore Highlights 2024-01-05", ParentID: "folder-1"}, nil)

	note, err := s.resolver.Resolve(ctx, "2024-01-05", "Omnivore Highlights 2024-01-05", "folder-1")

	s.NoError(err)
	s.Equal("n1", note.ID)
}

func (s *NoteResolverTestSuite) TestResolve_ReturnsSingleMatchUnchanged() {
	ctx := context.Background()
	existing := domain.Note{ID: "n1", Title: "T", Body: "body", ParentID: "folder-1"}

	s.store.EXPECT().SearchNotesByTitle(ctx, "T").Return([]domain.Note{existing}, nil)

	note, err := s.resolver.Resolve(ctx, "key", "T", "folder-1")

	s.NoError(err)
	s.Equal(existing, *note)
}

func (s *NoteResolverTestSuite) TestResolve_RelocatesWrongFolder() {
	ctx := context.Background()
	existing := domain.Note{ID: "n1", Title: "T", Body: "body", ParentID: "elsewhere"}

	s.store.EXPECT().SearchNotesByTitle(ctx, "T").Return([]domain.Note{existing}, nil)
	s.store.EXPECT().UpdateNote(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, n *domain.Note) error {
			s.Equal("n1", n.ID)
			s.Equal("folder-1", n.ParentID)
			return nil
		},
	)

	note, err := s.resolver.Resolve(ctx, "key", "T", "folder-1")

	s.NoError(err)
	s.Equal("folder-1", note.ParentID)
}

func (s *NoteResolverTestSuite) TestResolve_MergesTitleCollision() {
	ctx := context.Background()
	matches := []domain.Note{
		{ID: "n1", Title: "Omnivore Highlights 2024-01-05", Body: "A", ParentID: "folder-1"},
		{ID: "n2", Title: "Omnivore Highlights 2024-01-05", Body: "B", ParentID: "folder-1"},
	}

	s.store.EXPECT().SearchNotesByTitle(ctx, "Omnivore Highlights 2024-01-05").Return(matches, nil)
	s.store.EXPECT().UpdateNote(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, n *domain.Note) error {
			s.Equal("n1", n.ID)
			s.Equal("A\n\n---\n\nB", n.Body)
			return nil
		},
	)
	s.store.EXPECT().DeleteNote(ctx, "n2").Return(nil)

	note, err := s.resolver.Resolve(ctx, "2024-01-05", "Omnivore Highlights 2024-01-05", "folder-1")

	s.NoError(err)
	s.Equal("n1", note.ID)
	s.Equal("A\n\n---\n\nB", note.Body)
	s.Equal(1, s.resolver.MergedCount())
}

func (s *NoteResolverTestSuite) TestMerge_ThreeNotesKeepSearchOrder() {
	ctx := context.Background()
	notes := []domain.Note{
		{ID: "n1", Title: "T", Body: "A"},
		{ID: "n2", Title: "T", Body: "B"},
		{ID: "n3", Title: "T", Body: "C"},
	}

	s.store.EXPECT().UpdateNote(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, n *domain.Note) error {
			s.Equal("A\n\n---\n\nB\n\n---\n\nC", n.Body)
			return nil
		},
	)
	s.store.EXPECT().DeleteNote(ctx, "n2").Return(nil)
	s.store.EXPECT().DeleteNote(ctx, "n3").Return(nil)

	survivor, err := s.resolver.Merge(ctx, notes, "folder-1")

	s.NoError(err)
	s.Equal("n1", survivor.ID)
	s.Equal("T", survivor.Title)
	s.Equal(2, s.resolver.MergedCount())
}

func (s *NoteResolverTestSuite) TestMerge_SkipsEmptyBodies() {
	ctx := context.Background()
	notes := []domain.Note{
		{ID: "n1", Title: "T", Body: "A"},
		{ID: "n2", Title: "T", Body: "   "},
		{ID: "n3", Title: "T", Body: "C"},
	}

	s.store.EXPECT().UpdateNote(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, n *domain.Note) error {
			s.Equal("A\n\n---\n\nC", n.Body)
			return nil
		},
	)
	s.store.EXPECT().DeleteNote(ctx, "n2").Return(nil)
	s.store.EXPECT().DeleteNote(ctx, "n3").Return(nil)

	_, err := s.resolver.Merge(ctx, notes, "folder-1")
	s.NoError(err)
}

func (s *NoteResolverTestSuite) TestResolve_CachesPerGroupKey() {
	ctx := context.Background()
	existing := domain.Note{ID: "n1", Title: "T", ParentID: "folder-1"}

	// exactly one search for two resolves of the same group key
	s.store.EXPECT().SearchNotesByTitle(ctx, "T").Return([]domain.Note{existing}, nil).Times(1)

	first, err := s.resolver.Resolve(ctx, "key", "T", "folder-1")
	s.NoError(err)
	second, err := s.resolver.Resolve(ctx, "key", "T", "folder-1")
	s.NoError(err)
	s.Same(first, second)
}

func (s *NoteResolverTestSuite) TestResolve_IgnoresFuzzySearchResults() {
	ctx := context.Background()

	s.store.EXPECT().SearchNotesByTitle(ctx, "T").Return([]domain.Note{
		{ID: "n1", Title: "T plus noise", ParentID: "folder-1"},
	}, nil)
	s.store.EXPECT().CreateNote(ctx, gomock.Any()).Return(&domain.Note{ID: "n2", Title: "T", ParentID: "folder-1"}, nil)

	note, err := s.resolver.Resolve(ctx, "key", "T", "folder-1")

	s.NoError(err)
	s.Equal("n2", note.ID)
}
