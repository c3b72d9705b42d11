package omnivore

// articlesResponse represents the read-it-later API article page.
type articlesResponse struct {
	PageInfo pageInfo     `json:"pageInfo"`
	Items    []apiArticle `json:"items"`
}

type highlightsResponse struct {
	PageInfo pageInfo       `json:"pageInfo"`
	Items    []apiHighlight `json:"items"`
}

type pageInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNextPage"`
}

type apiArticle struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	URL     string   `json:"url"`
	Author  *string  `json:"author"`
	SavedAt string   `json:"savedAt"`
	Labels  []string `json:"labels"`
}

type apiHighlight struct {
	ID         string              `json:"id"`
	Quote      string              `json:"quote"`
	Annotation *string             `json:"annotation"`
	CreatedAt  string              `json:"createdAt"`
	Position   *float64            `json:"highlightPositionPercent"`
	Labels     []string            `json:"labels"`
	Article    apiHighlightArticle `json:"article"`
}

type apiHighlightArticle struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Slug        *string `json:"slug"`
	Author      *string `json:"author"`
	PublishedAt *string `json:"publishedAt"`
}
