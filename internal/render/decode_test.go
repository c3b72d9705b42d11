package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeArtifacts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"named entity", "Tom &amp; Jerry", "Tom & Jerry"},
		{"numeric entity", "it&#39;s", "it's"},
		{"hex entity", "a&#x2F;b", "a/b"},
		{"backslash brackets", `\[link\]`, "[link]"},
		{"backslash underscore", `snake\_case\_name`, "snake_case_name"},
		{"percent escape", "hello%20world", "hello world"},
		{"mixed", `&quot;a\_b&quot;%21`, `"a_b"!`},
		{"unknown entity passes through", "&notanentity;", "&notanentity;"},
		{"dangling backslash passes through", `end\`, `end\`},
		{"bad percent passes through", "50%5 off", "50%5 off"},
		{"plain text untouched", "nothing to do here", "nothing to do here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeArtifacts(tt.input))
		})
	}
}

func TestDecodeArtifacts_Idempotent(t *testing.T) {
	inputs := []string{
		"Tom &amp; Jerry",
		"it&#39;s a %22quoted%22 \\[phrase\\]",
		"already decoded: it's [a] _b_ 100%",
		"",
		"> quote with token (2024-01-05 14:30)",
	}

	for _, in := range inputs {
		once := DecodeArtifacts(in)
		assert.Equal(t, once, DecodeArtifacts(once), "input %q", in)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "> quote", FirstLine("\n\n> quote\nsecond"))
	assert.Equal(t, "", FirstLine("\n  \n"))
}

func TestKeyOf(t *testing.T) {
	fragment := "> Some \\[escaped\\] quote\n\n— [T](https://x) (2024-01-05 14:30)"

	key := KeyOf(fragment)

	assert.Equal(t, "(2024-01-05 14:30)", key.Token)
	assert.Equal(t, "> Some [escaped] quote", key.FirstLine)

	// the same content rendered without escapes yields the same key
	plain := "> Some [escaped] quote\n\n— [T](https://x) (2024-01-05 14:30)"
	assert.Equal(t, key, KeyOf(plain))
}
