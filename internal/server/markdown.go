package server

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/lucaspires-source/authdash/internal/logger"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// RenderMarkdown converts the configured notice to HTML. Raw HTML in the
// source is not passed through.
func RenderMarkdown(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		logger.Warn("Rendering notice failed: %v", err)
		return ""
	}
	return template.HTML(buf.String())
}
