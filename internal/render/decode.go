package render

import (
	"html"
	"net/url"
	"strings"
)

// markdown punctuation that the HTML→markdown conversion backslash-escapes
const escapablePunctuation = `\[]_*#()>~.!-` + "`"

// DecodeArtifacts resolves text-entity artifacts left behind by rich-text
// conversion: HTML entities (named and numeric), backslash-escaped markdown
// punctuation, and percent-encoded byte sequences. It is idempotent on
// already-decoded text; unrecognized entities and escapes pass through
// unchanged.
func DecodeArtifacts(text string) string {
	out := html.UnescapeString(text)
	out = unescapeMarkdown(out)
	return decodePercent(out)
}

func unescapeMarkdown(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(escapablePunctuation, s[i+1]) >= 0 {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func decodePercent(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		// malformed escape somewhere in the string: leave it alone
		return s
	}
	return decoded
}

// FirstLine returns the first non-empty line of a fragment, trimmed.
func FirstLine(fragment string) string {
	for _, line := range strings.Split(fragment, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// DedupKey is the content-derived signature used to detect a fragment that
// is already present in a note body: the embedded timestamp token plus the
// fragment's first non-empty line.
type DedupKey struct {
	Token     string
	FirstLine string
}

// KeyOf computes the dedup key of a fragment after artifact decoding, so a
// fragment matches its prior rendering even when one side went through an
// extra decode stage.
func KeyOf(fragment string) DedupKey {
	decoded := DecodeArtifacts(fragment)
	key := DedupKey{FirstLine: FirstLine(decoded)}
	if m := tokenPattern.FindString(decoded); m != "" {
		key.Token = m
	}
	return key
}
