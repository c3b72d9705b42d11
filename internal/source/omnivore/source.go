package omnivore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"omnivore_sync/internal/domain"
)

const (
	SourceID   = "omnivore"
	SourceName = "Omnivore"
)

// Config holds read-it-later API configuration.
type Config struct {
	BaseURL        string
	APIToken       string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches saved articles and highlights from the read-it-later API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiToken       string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:       cfg.APIToken,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchArticles returns articles saved at or after since, oldest first.
func (s *Source) FetchArticles(ctx context.Context, since time.Time, labels []string) ([]domain.Article, error) {
	var all []apiArticle

	for page := 0; ; page++ {
		var resp articlesResponse
		err := s.fetchPage(ctx, "/api/articles", s.pageQuery(page, since, labels), &resp)
		if err != nil {
			return nil, fmt.Errorf("fetch articles page %d: %w", page, err)
		}

		all = append(all, resp.Items...)

		s.logger.Debug("fetched article page",
			"page", page,
			"articles", len(resp.Items),
			"total", len(all),
		)

		if !resp.PageInfo.HasNext {
			break
		}
	}

	return s.transformArticles(all), nil
}

// FetchHighlights returns highlights created at or after since, widened by
// lookbackDays to pick up late highlights on articles already past the
// watermark. The ledgers absorb the re-deliveries this causes.
func (s *Source) FetchHighlights(ctx context.Context, since time.Time, lookbackDays int, labels []string) ([]domain.Highlight, error) {
	if !since.IsZero() && lookbackDays > 0 {
		since = since.AddDate(0, 0, -lookbackDays)
	}

	var all []apiHighlight

	for page := 0; ; page++ {
		var resp highlightsResponse
		err := s.fetchPage(ctx, "/api/highlights", s.pageQuery(page, since, labels), &resp)
		if err != nil {
			return nil, fmt.Errorf("fetch highlights page %d: %w", page, err)
		}

		all = append(all, resp.Items...)

		s.logger.Debug("fetched highlight page",
			"page", page,
			"highlights", len(resp.Items),
			"total", len(all),
		)

		if !resp.PageInfo.HasNext {
			break
		}
	}

	return s.transformHighlights(all), nil
}

func (s *Source) pageQuery(page int, since time.Time, labels []string) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(s.pageSize))
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	if len(labels) > 0 {
		q.Set("labels", strings.Join(labels, ","))
	}
	return q
}

func (s *Source) fetchPage(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := s.baseURL + path + "?" + query.Encode()

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.doRequest(ctx, reqURL, out)
		if err == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", s.apiToken)
	req.Header.Set("User-Agent", "OmnivoreSync/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transformArticles(items []apiArticle) []domain.Article {
	articles := make([]domain.Article, 0, len(items))

	for _, it := range items {
		savedAt, err := time.Parse(time.RFC3339, it.SavedAt)
		if err != nil {
			s.logger.Warn("failed to parse saved_at",
				"article_id", it.ID,
				"saved_at", it.SavedAt,
			)
			continue
		}

		articles = append(articles, domain.Article{
			ID:      it.ID,
			Title:   it.Title,
			Content: it.Content,
			URL:     it.URL,
			Author:  it.Author,
			SavedAt: savedAt,
			Labels:  it.Labels,
		})
	}

	return articles
}

func (s *Source) transformHighlights(items []apiHighlight) []domain.Highlight {
	highlights := make([]domain.Highlight, 0, len(items))

	for _, it := range items {
		createdAt, err := time.Parse(time.RFC3339, it.CreatedAt)
		if err != nil {
			s.logger.Warn("failed to parse created_at",
				"highlight_id", it.ID,
				"created_at", it.CreatedAt,
			)
			continue
		}

		h := domain.Highlight{
			ID:           it.ID,
			ArticleID:    it.Article.ID,
			ArticleTitle: it.Article.Title,
			ArticleURL:   it.Article.URL,
			ArticleSlug:  it.Article.Slug,
			Author:       it.Article.Author,
			Quote:        it.Quote,
			Annotation:   it.Annotation,
			CreatedAt:    createdAt,
			Position:     it.Position,
		}

		if it.Article.PublishedAt != nil {
			if published, err := time.Parse(time.RFC3339, *it.Article.PublishedAt); err == nil {
				h.PublishedAt = &published
			}
		}

		highlights = append(highlights, h)
	}

	return highlights
}
