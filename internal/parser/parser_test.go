package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BulletList(t *testing.T) {
	doc, err := Parse("# Writing Prompts\n- Describe a door that should stay closed\n- Write about your last meal\n")
	require.NoError(t, err)

	assert.Equal(t, "Writing Prompts", doc.Title)
	assert.Equal(t, []string{
		"Describe a door that should stay closed",
		"Write about your last meal",
	}, doc.Prompts)
}

func TestParse_MixedBulletStyles(t *testing.T) {
	doc, err := Parse("- a\n* b\n")
	require.NoError(t, err)

	assert.Empty(t, doc.Title)
	assert.Equal(t, []string{"a", "b"}, doc.Prompts)
}

func TestParse_SeparatorTruncatesTrailingNotes(t *testing.T) {
	doc, err := Parse("- a\n- b\n---\nsource notes here\n- not a prompt\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, doc.Prompts)
}

func TestParse_FallbackToPlainLines(t *testing.T) {
	doc, err := Parse("# My List\nFirst\n\nSecond\n")
	require.NoError(t, err)

	assert.Equal(t, "My List", doc.Title)
	assert.Equal(t, []string{"First", "Second"}, doc.Prompts)
}

func TestParse_TitleRequiresTopLevelMarker(t *testing.T) {
	doc, err := Parse("## Section\n- a\n")
	require.NoError(t, err)
	assert.Empty(t, doc.Title)
	assert.Equal(t, []string{"a"}, doc.Prompts)

	doc, err = Parse("#nospace\nFirst\n")
	require.NoError(t, err)
	assert.Empty(t, doc.Title)
	assert.Equal(t, []string{"First"}, doc.Prompts)
}

func TestParse_FallbackSkipsHeadings(t *testing.T) {
	doc, err := Parse("# Title\n## Section\nOnly prompt\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Only prompt"}, doc.Prompts)
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n\n", "# Just a heading\n\n", "# T\n---\nnotes\n"} {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrNoPrompts, "input %q", input)
	}
}

func TestParse_DropsEmptyBullets(t *testing.T) {
	doc, err := Parse("- a\n- \n- b\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, doc.Prompts)
}

func TestParse_RoundTrip(t *testing.T) {
	// Rejoining a parsed bullet document as bullets parses to the same
	// prompt sequence.
	doc, err := Parse("- one\n* two\n- three\n")
	require.NoError(t, err)

	rejoined := "- " + strings.Join(doc.Prompts, "\n- ") + "\n"
	again, err := Parse(rejoined)
	require.NoError(t, err)
	assert.Equal(t, doc.Prompts, again.Prompts)
}
