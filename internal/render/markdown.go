package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var sanitizePolicy = buildSanitizePolicy()

func buildSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("article", "section", "div", "span", "figure", "figcaption")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	return p
}

// ToMarkdown converts an HTML fragment to normalized markdown. The
// conversion is deterministic and never fails: input that cannot be parsed
// degrades to tag-stripped text.
func ToMarkdown(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "<") {
		return collapseBlankLines(trimmed)
	}

	sanitized := sanitizePolicy.Sanitize(trimmed)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return collapseBlankLines(strippedText(sanitized))
	}

	var blocks []string
	body := doc.Find("body")
	for _, node := range body.Nodes {
		collectBlocks(node, &blocks)
	}

	return collapseBlankLines(strings.Join(blocks, "\n\n"))
}

// collectBlocks walks the node tree appending one markdown block per
// block-level element. Inline content between blocks becomes its own
// paragraph.
func collectBlocks(n *html.Node, blocks *[]string) {
	var pending strings.Builder

	flush := func() {
		if text := strings.TrimSpace(pending.String()); text != "" {
			*blocks = append(*blocks, text)
		}
		pending.Reset()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			pending.WriteString(collapseSpaces(c.Data))
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			flush()
			level := int(c.Data[1] - '0')
			if text := strings.TrimSpace(inlineText(c)); text != "" {
				*blocks = append(*blocks, strings.Repeat("#", level)+" "+text)
			}
		case "p":
			flush()
			if text := strings.TrimSpace(inlineText(c)); text != "" {
				*blocks = append(*blocks, text)
			}
		case "blockquote":
			flush()
			var inner []string
			collectBlocks(c, &inner)
			if len(inner) > 0 {
				*blocks = append(*blocks, quoteBlock(strings.Join(inner, "\n\n")))
			}
		case "pre":
			flush()
			if code := strings.Trim(rawText(c), "\n"); code != "" {
				*blocks = append(*blocks, "```\n"+code+"\n```")
			}
		case "ul":
			flush()
			*blocks = append(*blocks, listBlock(c, false))
		case "ol":
			flush()
			*blocks = append(*blocks, listBlock(c, true))
		case "hr":
			flush()
			// "***" rather than "---": a converted rule must not collide
			// with the fragment delimiter
			*blocks = append(*blocks, "***")
		case "div", "article", "section", "figure":
			flush()
			collectBlocks(c, blocks)
		case "br":
			pending.WriteString("\n")
		default:
			pending.WriteString(inlineText(c))
		}
	}
	flush()
}

// inlineText renders the inline markdown of an element's subtree.
func inlineText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(collapseSpaces(c.Data))
		case html.ElementNode:
			switch c.Data {
			case "a":
				text := strings.TrimSpace(inlineText(c))
				href := attr(c, "href")
				switch {
				case text == "" && href == "":
				case href == "":
					b.WriteString(text)
				case text == "":
					b.WriteString(href)
				default:
					fmt.Fprintf(&b, "[%s](%s)", text, href)
				}
			case "strong", "b":
				if text := strings.TrimSpace(inlineText(c)); text != "" {
					b.WriteString("**" + text + "**")
				}
			case "em", "i":
				if text := strings.TrimSpace(inlineText(c)); text != "" {
					b.WriteString("*" + text + "*")
				}
			case "code":
				if text := strings.TrimSpace(rawText(c)); text != "" {
					b.WriteString("`" + text + "`")
				}
			case "img":
				alt := attr(c, "alt")
				if src := attr(c, "src"); src != "" {
					fmt.Fprintf(&b, "![%s](%s)", alt, src)
				}
			case "br":
				b.WriteString("\n")
			default:
				b.WriteString(inlineText(c))
			}
		}
	}
	return b.String()
}

func listBlock(n *html.Node, ordered bool) string {
	var items []string
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		text := strings.TrimSpace(inlineText(c))
		if text == "" {
			continue
		}
		idx++
		if ordered {
			items = append(items, fmt.Sprintf("%d. %s", idx, text))
		} else {
			items = append(items, "- "+text)
		}
	}
	return strings.Join(items, "\n")
}

func quoteBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// strippedText is the last-resort fallback: emit text tokens only.
func strippedText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// collapseSpaces squeezes runs of whitespace to single spaces, keeping a
// boundary space so adjacent inline elements stay separated.
func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func collapseBlankLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
