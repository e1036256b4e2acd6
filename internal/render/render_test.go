// ABOUTME: Tests for markdown rendering
// ABOUTME: Checks basic formatting, GFM tables and that raw HTML is not passed through

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	html, err := Markdown("**hello** _world_")
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>hello</strong> <em>world</em></p>\n", html)
}

func TestMarkdown_Table(t *testing.T) {
	html, err := Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>1</td>")
}

func TestMarkdown_RawHTMLOmitted(t *testing.T) {
	html, err := Markdown("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestMarkdown_Empty(t *testing.T) {
	html, err := Markdown("")
	require.NoError(t, err)
	assert.Empty(t, html)
}
