package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"headings and paragraphs",
			"<h1>Title</h1><p>First para.</p><p>Second para.</p>",
			"# Title\n\nFirst para.\n\nSecond para.",
		},
		{
			"inline emphasis",
			"<p>some <strong>bold</strong> and <em>italic</em> text</p>",
			"some **bold** and *italic* text",
		},
		{
			"links and images",
			`<p>see <a href="https://example.com">the docs</a></p><p><img src="https://x/i.png" alt="pic"></p>`,
			"see [the docs](https://example.com)\n\n![pic](https://x/i.png)",
		},
		{
			"unordered list",
			"<ul><li>one</li><li>two</li></ul>",
			"- one\n- two",
		},
		{
			"ordered list",
			"<ol><li>first</li><li>second</li></ol>",
			"1. first\n2. second",
		},
		{
			"blockquote",
			"<blockquote><p>wisdom</p></blockquote>",
			"> wisdom",
		},
		{
			"code block",
			"<pre>x := 1\ny := 2</pre>",
			"```\nx := 1\ny := 2\n```",
		},
		{
			"inline code",
			"<p>run <code>go test</code> now</p>",
			"run `go test` now",
		},
		{
			"horizontal rule avoids the fragment delimiter",
			"<p>above</p><hr><p>below</p>",
			"above\n\n***\n\nbelow",
		},
		{
			"nested containers are flattened",
			"<div><section><p>inner</p></section></div>",
			"inner",
		},
		{
			"scripts are stripped",
			"<p>keep</p><script>alert(1)</script>",
			"keep",
		},
		{
			"plain text passes through",
			"no markup at all",
			"no markup at all",
		},
		{
			"empty input",
			"   ",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMarkdown(tt.input))
		})
	}
}

func TestToMarkdown_Deterministic(t *testing.T) {
	input := `<h2>Header</h2><p>Body with <a href="https://a">link</a>.</p><ul><li>x</li></ul>`
	first := ToMarkdown(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ToMarkdown(input))
	}
}

func TestQuoteBlock(t *testing.T) {
	assert.Equal(t, "> one\n>\n> two", quoteBlock("one\n\ntwo"))
	assert.Equal(t, "> single", quoteBlock("single"))
}
