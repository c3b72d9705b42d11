package render

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"omnivore_sync/internal/domain"
)

// Built-in highlight templates. Every template must embed exactly one
// timestamp token and start with the quote so the dedup key stays stable
// across template changes.
var highlightTemplates = map[string]*template.Template{
	"default": template.Must(template.New("default").Parse(
		"{{.Quote}}\n" +
			"{{- if .Annotation}}\n\n{{.Annotation}}{{end}}\n\n" +
			"— [{{.ArticleTitle}}]({{.ArticleURL}}) {{.Token}}",
	)),
	"compact": template.Must(template.New("compact").Parse(
		"{{.Quote}} {{.Token}}",
	)),
}

var articleTemplate = template.Must(template.New("article").Parse(
	"# {{.Title}}\n\n" +
		"{{if .Author}}{{.Author}} — {{end}}[{{.URL}}]({{.URL}}) {{.Token}}\n\n" +
		"{{.Body}}",
))

// HighlightTemplateNames lists the selectable highlight templates.
func HighlightTemplateNames() []string {
	return []string{"default", "compact"}
}

type highlightView struct {
	Quote        string
	Annotation   string
	ArticleTitle string
	ArticleURL   string
	Token        string
}

type articleView struct {
	Title  string
	Author string
	URL    string
	Token  string
	Body   string
}

// RenderHighlight renders one highlight into a note fragment using the named
// template. Timestamps are formatted in loc.
func RenderHighlight(templateName string, h domain.Highlight, loc *time.Location) (string, error) {
	tmpl, ok := highlightTemplates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown highlight template %q", templateName)
	}

	view := highlightView{
		Quote:        quoteBlock(DecodeArtifacts(strings.TrimSpace(h.Quote))),
		ArticleTitle: DecodeArtifacts(h.ArticleTitle),
		ArticleURL:   h.ArticleURL,
		Token:        FormatToken(h.CreatedAt, loc),
	}
	if h.Annotation != nil {
		view.Annotation = DecodeArtifacts(strings.TrimSpace(*h.Annotation))
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render highlight %s: %w", h.ID, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// RenderArticle renders a full article into a note fragment: title heading,
// source line with the timestamp token, then the converted body.
func RenderArticle(a domain.Article, loc *time.Location) (string, error) {
	view := articleView{
		Title: DecodeArtifacts(strings.TrimSpace(a.Title)),
		URL:   a.URL,
		Token: FormatToken(a.SavedAt, loc),
		Body:  ToMarkdown(a.Content),
	}
	if a.Author != nil {
		view.Author = DecodeArtifacts(*a.Author)
	}

	var b strings.Builder
	if err := articleTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render article %s: %w", a.ID, err)
	}
	return strings.TrimSpace(b.String()), nil
}
