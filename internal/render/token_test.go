package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatToken(t *testing.T) {
	ts := time.Date(2024, 1, 5, 22, 45, 0, 0, time.UTC)

	assert.Equal(t, "(2024-01-05 22:45)", FormatToken(ts, time.UTC))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "(2024-01-06 07:45)", FormatToken(ts, tokyo))
}

func TestParseToken(t *testing.T) {
	got, ok := ParseToken("> quote\n\n— [T](https://x) (2024-01-05 14:30)")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC), got)

	_, ok = ParseToken("no token in here (not 14:30)")
	assert.False(t, ok)

	// first match wins
	got, ok = ParseToken("(2024-01-01 00:01) and later (2024-02-02 00:02)")
	require.True(t, ok)
	assert.Equal(t, 1, int(got.Month()))
}

func TestTokenRoundTrip(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)
	parsed, ok := ParseToken("prefix " + FormatToken(ts, time.UTC) + " suffix")
	require.True(t, ok)
	assert.True(t, parsed.Equal(ts))
}
