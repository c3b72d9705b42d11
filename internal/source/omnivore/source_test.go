package omnivore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(baseURL string) *Source {
	return New(Config{
		BaseURL:        baseURL,
		APIToken:       "test-token",
		PageSize:       2,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func TestFetchArticles_Paginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/articles", r.URL.Path)
		require.Equal(t, "test-token", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "0":
			fmt.Fprint(w, `{
				"pageInfo": {"page": 0, "hasNextPage": true},
				"items": [
					{"id": "a1", "title": "One", "url": "https://example.com/1", "savedAt": "2024-01-05T10:00:00Z"},
					{"id": "a2", "title": "Two", "url": "https://example.com/2", "savedAt": "2024-01-05T11:00:00Z"}
				]
			}`)
		case "1":
			fmt.Fprint(w, `{
				"pageInfo": {"page": 1, "hasNextPage": false},
				"items": [
					{"id": "a3", "title": "Three", "url": "https://example.com/3", "savedAt": "2024-01-05T12:00:00Z"}
				]
			}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	articles, err := source.FetchArticles(context.Background(), time.Time{}, nil)

	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "a1", articles[0].ID)
	assert.Equal(t, "a3", articles[2].ID)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), articles[0].SavedAt)
}

func TestFetchArticles_SinceAndLabelsForwarded(t *testing.T) {
	since := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-05T10:00:00Z", r.URL.Query().Get("since"))
		assert.Equal(t, "tech,golang", r.URL.Query().Get("labels"))
		fmt.Fprint(w, `{"pageInfo": {"hasNextPage": false}, "items": []}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	articles, err := source.FetchArticles(context.Background(), since, []string{"tech", "golang"})

	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFetchArticles_SkipsUnparseableSavedAt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"pageInfo": {"hasNextPage": false},
			"items": [
				{"id": "bad", "title": "Bad", "savedAt": "not-a-date"},
				{"id": "good", "title": "Good", "savedAt": "2024-01-05T10:00:00Z"}
			]
		}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	articles, err := source.FetchArticles(context.Background(), time.Time{}, nil)

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "good", articles[0].ID)
}

func TestFetchHighlights_LookbackWidensWindow(t *testing.T) {
	watermark := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/highlights", r.URL.Path)
		// seven days before the watermark
		assert.Equal(t, "2024-01-03T00:00:00Z", r.URL.Query().Get("since"))
		fmt.Fprint(w, `{"pageInfo": {"hasNextPage": false}, "items": []}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	_, err := source.FetchHighlights(context.Background(), watermark, 7, nil)
	require.NoError(t, err)
}

func TestFetchHighlights_ZeroWatermarkFetchesEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("since"))
		fmt.Fprint(w, `{"pageInfo": {"hasNextPage": false}, "items": []}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	_, err := source.FetchHighlights(context.Background(), time.Time{}, 7, nil)
	require.NoError(t, err)
}

func TestFetchHighlights_TransformsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"pageInfo": {"hasNextPage": false},
			"items": [{
				"id": "h1",
				"quote": "A sharp observation.",
				"annotation": "My take.",
				"createdAt": "2024-01-05T10:00:00Z",
				"highlightPositionPercent": 0.42,
				"article": {
					"id": "art-1",
					"title": "Deep Work",
					"url": "https://example.com/deep-work",
					"author": "C. Newport",
					"publishedAt": "2023-12-01T00:00:00Z"
				}
			}]
		}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	highlights, err := source.FetchHighlights(context.Background(), time.Time{}, 0, nil)

	require.NoError(t, err)
	require.Len(t, highlights, 1)

	h := highlights[0]
	assert.Equal(t, "h1", h.ID)
	assert.Equal(t, "art-1", h.ArticleID)
	assert.Equal(t, "Deep Work", h.ArticleTitle)
	assert.Equal(t, "A sharp observation.", h.Quote)
	require.NotNil(t, h.Annotation)
	assert.Equal(t, "My take.", *h.Annotation)
	require.NotNil(t, h.Position)
	assert.InDelta(t, 0.42, *h.Position, 1e-9)
	require.NotNil(t, h.PublishedAt)
	assert.Equal(t, 2023, h.PublishedAt.Year())
}

func TestFetchPage_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"pageInfo": {"hasNextPage": false}, "items": []}`)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	_, err := source.FetchArticles(context.Background(), time.Time{}, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := newTestSource(server.URL)
	_, err := source.FetchArticles(context.Background(), time.Time{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}
