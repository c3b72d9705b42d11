package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

func frag(firstLine, token string) string {
	return firstLine + "\n\nsource link " + token
}

func TestAppendNovel_AppendsToEmptyBody(t *testing.T) {
	incoming := []Fragment{
		{ID: "h1", Body: frag("> one", "(2024-01-05 10:00)")},
		{ID: "h2", Body: frag("> two", "(2024-01-05 11:00)")},
	}

	body, appended := AppendNovel("", incoming, domain.GroupByDate)

	assert.Equal(t, []string{"h1", "h2"}, appended)
	parts := SplitFragments(body)
	require.Len(t, parts, 2)
	// date-grouped: newest first
	assert.Equal(t, "> two", render.FirstLine(parts[0]))
	assert.Equal(t, "> one", render.FirstLine(parts[1]))
}

func TestAppendNovel_SkipsPresentFragments(t *testing.T) {
	existing := frag("> already here", "(2024-01-05 10:00)")
	incoming := []Fragment{
		{ID: "dup", Body: frag("> already here", "(2024-01-05 10:00)")},
		{ID: "new", Body: frag("> brand new", "(2024-01-05 12:00)")},
	}

	body, appended := AppendNovel(existing, incoming, domain.GroupByDate)

	assert.Equal(t, []string{"new"}, appended)
	assert.Len(t, SplitFragments(body), 2)
}

func TestAppendNovel_RepeatedDeliveryIsIdempotent(t *testing.T) {
	incoming := []Fragment{
		{ID: "h1", Body: frag("> the quote", "(2024-01-05 10:00)")},
	}

	body, appended := AppendNovel("", incoming, domain.GroupByDate)
	require.Equal(t, []string{"h1"}, appended)

	// feed the same fragment N more times across "passes"
	for i := 0; i < 5; i++ {
		var again []string
		body, again = AppendNovel(body, incoming, domain.GroupByDate)
		assert.Empty(t, again)
	}

	assert.Equal(t, 1, strings.Count(body, "> the quote"))
}

func TestAppendNovel_MatchesEscapedPriorRendering(t *testing.T) {
	// a prior version wrote the fragment with markdown escapes intact
	existing := "> some \\[bracketed\\] text\n\nlink (2024-01-05 10:00)"
	incoming := []Fragment{
		{ID: "dup", Body: "> some [bracketed] text\n\nlink (2024-01-05 10:00)"},
	}

	_, appended := AppendNovel(existing, incoming, domain.GroupByDate)

	assert.Empty(t, appended)
}

func TestAppendNovel_DateGroupResortsWholeBody(t *testing.T) {
	// existing body is oldest-first; a newer fragment arrives
	existing := frag("> oldest", "(2024-01-01 08:00)") +
		render.FragmentDelimiter +
		frag("> middle", "(2024-01-03 08:00)")
	incoming := []Fragment{
		{ID: "h-new", Body: frag("> newest", "(2024-01-05 08:00)")},
		{ID: "h-older", Body: frag("> in between", "(2024-01-02 08:00)")},
	}

	body, appended := AppendNovel(existing, incoming, domain.GroupByDate)

	assert.Equal(t, []string{"h-new", "h-older"}, appended)
	parts := SplitFragments(body)
	require.Len(t, parts, 4)
	assert.Equal(t, "> newest", render.FirstLine(parts[0]))
	assert.Equal(t, "> middle", render.FirstLine(parts[1]))
	assert.Equal(t, "> in between", render.FirstLine(parts[2]))
	assert.Equal(t, "> oldest", render.FirstLine(parts[3]))
}

func TestAppendNovel_ArticleGroupPreservesInsertionOrder(t *testing.T) {
	existing := frag("> position 0.1", "(2024-01-05 10:00)")
	incoming := []Fragment{
		{ID: "h2", Body: frag("> position 0.4", "(2024-01-01 09:00)")}, // older token
		{ID: "h3", Body: frag("> position 0.9", "(2024-01-03 09:00)")},
	}

	body, _ := AppendNovel(existing, incoming, domain.GroupByArticle)

	parts := SplitFragments(body)
	require.Len(t, parts, 3)
	assert.Equal(t, "> position 0.1", render.FirstLine(parts[0]))
	assert.Equal(t, "> position 0.4", render.FirstLine(parts[1]))
	assert.Equal(t, "> position 0.9", render.FirstLine(parts[2]))
}

func TestAppendNovel_TokenlessFragmentsSortLast(t *testing.T) {
	// user-authored content without a token must survive the resort
	existing := "my own notes, hands off" +
		render.FragmentDelimiter +
		frag("> synced", "(2024-01-02 08:00)")
	incoming := []Fragment{
		{ID: "h1", Body: frag("> fresh", "(2024-01-04 08:00)")},
	}

	body, _ := AppendNovel(existing, incoming, domain.GroupByDate)

	parts := SplitFragments(body)
	require.Len(t, parts, 3)
	assert.Equal(t, "> fresh", render.FirstLine(parts[0]))
	assert.Equal(t, "> synced", render.FirstLine(parts[1]))
	assert.Equal(t, "my own notes, hands off", parts[2])
}

func TestSplitFragments_DiscardsBlankEntries(t *testing.T) {
	body := "one" + render.FragmentDelimiter + "   " + render.FragmentDelimiter + "two"
	assert.Equal(t, []string{"one", "two"}, SplitFragments(body))
	assert.Empty(t, SplitFragments(""))
	assert.Empty(t, SplitFragments("   \n  "))
}
