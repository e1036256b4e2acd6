// ABOUTME: Markdown to HTML rendering for assistant replies
// ABOUTME: Raw HTML in the source is dropped, GitHub-flavored extensions are on

// Package render converts assistant markdown into HTML fragments.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts src to an HTML fragment.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
