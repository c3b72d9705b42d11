package joplin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"omnivore_sync/internal/domain"
)

const noteFields = "id,title,body,parent_id"

// Config holds note application data API configuration.
type Config struct {
	BaseURL  string
	APIToken string
	PageSize int
	Timeout  time.Duration
}

// Client talks to the local note application's data API. Search endpoints
// are fuzzy and paginated; the search methods page through everything and
// filter down to what their contract promises.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	pageSize   int
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		pageSize: cfg.PageSize,
		logger:   logger.With("notestore", "joplin"),
	}
}

func (c *Client) CreateNote(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	payload := apiNote{
		Title:    note.Title,
		Body:     note.Body,
		ParentID: note.ParentID,
	}

	var created apiNote
	err := c.do(ctx, http.MethodPost, "/notes", nil, payload, &created)
	if err != nil {
		return nil, fmt.Errorf("create note %q: %w", note.Title, err)
	}

	c.logger.Debug("created note", "note_id", created.ID, "title", created.Title)
	return noteFromAPI(created), nil
}

func (c *Client) UpdateNote(ctx context.Context, note *domain.Note) error {
	payload := apiNote{
		Title:    note.Title,
		Body:     note.Body,
		ParentID: note.ParentID,
	}

	err := c.do(ctx, http.MethodPut, "/notes/"+note.ID, nil, payload, nil)
	if err != nil {
		return fmt.Errorf("update note %s: %w", note.ID, err)
	}
	return nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/notes/"+id, nil, nil, nil); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

func (c *Client) SearchNotesByTitle(ctx context.Context, title string) ([]domain.Note, error) {
	found, err := c.searchNotes(ctx, `title:"`+searchPhrase(title)+`"`)
	if err != nil {
		return nil, fmt.Errorf("search notes by title %q: %w", title, err)
	}

	// the search index matches on words, not the whole phrase
	exact := found[:0]
	for _, n := range found {
		if n.Title == title {
			exact = append(exact, n)
		}
	}
	return exact, nil
}

func (c *Client) SearchNotesByTitlePrefix(ctx context.Context, prefix string) ([]domain.Note, error) {
	found, err := c.searchNotes(ctx, `title:"`+searchPhrase(prefix)+`"*`)
	if err != nil {
		return nil, fmt.Errorf("search notes by prefix %q: %w", prefix, err)
	}

	matched := found[:0]
	for _, n := range found {
		if strings.HasPrefix(n.Title, prefix) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// searchPhrase makes a title safe to embed in a quoted search phrase. The
// search syntax has no escape for a double quote inside a phrase; dropping
// it keeps the query well-formed, and callers filter the results against the
// real title anyway. Article titles are arbitrary, so this does come up.
func searchPhrase(title string) string {
	return strings.ReplaceAll(title, `"`, "")
}

func (c *Client) searchNotes(ctx context.Context, query string) ([]domain.Note, error) {
	var notes []domain.Note

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("query", query)
		q.Set("type", "note")
		q.Set("fields", noteFields)
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp notePage
		if err := c.do(ctx, http.MethodGet, "/search", q, nil, &resp); err != nil {
			return nil, err
		}

		for _, it := range resp.Items {
			notes = append(notes, *noteFromAPI(it))
		}

		if !resp.HasMore {
			break
		}
	}

	return notes, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("fields", "id,title")
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp folderPage
		if err := c.do(ctx, http.MethodGet, "/folders", q, nil, &resp); err != nil {
			return nil, fmt.Errorf("list folders: %w", err)
		}

		for _, it := range resp.Items {
			folders = append(folders, domain.Folder{ID: it.ID, Title: it.Title})
		}

		if !resp.HasMore {
			break
		}
	}

	return folders, nil
}

func (c *Client) CreateFolder(ctx context.Context, title string) (*domain.Folder, error) {
	var created apiFolder
	err := c.do(ctx, http.MethodPost, "/folders", nil, apiFolder{Title: title}, &created)
	if err != nil {
		return nil, fmt.Errorf("create folder %q: %w", title, err)
	}

	c.logger.Debug("created folder", "folder_id", created.ID, "title", created.Title)
	return &domain.Folder{ID: created.ID, Title: created.Title}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.apiToken)
	reqURL := c.baseURL + path + "?" + query.Encode()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func noteFromAPI(n apiNote) *domain.Note {
	return &domain.Note{
		ID:       n.ID,
		Title:    n.Title,
		Body:     n.Body,
		ParentID: n.ParentID,
	}
}
