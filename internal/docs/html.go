package docs

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in topics is not passed through.
var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM, emoji.Emoji),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts markdown to an HTML fragment. On a conversion error the
// source is returned escaped inside <pre>.
func RenderHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := htmlRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

// HTML returns a topic rendered as an HTML fragment.
func HTML(topic string) (template.HTML, bool) {
	body, ok := Get(topic)
	if !ok {
		return "", false
	}
	return RenderHTML(body), true
}
