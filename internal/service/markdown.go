package service

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	htmlSanitizer = blogSanitizer()
)

// RenderMarkdown converts markdown to sanitized HTML. Lines holding only a
// YouTube or Vimeo link become embedded players.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(applyVideoEmbeds(source)), &buf); err != nil {
		return "", err
	}
	return string(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil
}
