package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

type mdKey struct {
	style string
	width int
}

// mdCache holds one glamour renderer per style and wrap width. Renderers use
// explicit styles: WithAutoStyle queries the terminal and can block.
type mdCache struct {
	mu sync.Mutex
	r  map[mdKey]*glamour.TermRenderer
}

var markdown = &mdCache{r: map[mdKey]*glamour.TermRenderer{}}

func (c *mdCache) renderer(k mdKey) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.r[k]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(welcomeStyle(k.style)),
		glamour.WithWordWrap(k.width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	c.r[k] = r
	return r, nil
}

// renderMarkdown renders a docs topic for the body area. On any renderer
// failure the raw markdown is shown.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := markdown.renderer(mdKey{style: markdownStyle(), width: max(width, 10)})
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	if name := themeName(themePref); name != "" {
		return name
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func welcomeStyle(name string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	pick := func(c lipgloss.AdaptiveColor) *string {
		v := c.Dark
		if name == "light" {
			v = c.Light
		}
		return &v
	}
	if name == "light" {
		cfg = styles.LightStyleConfig
	}

	var noMargin uint
	cfg.Document.Margin = &noMargin
	cfg.Document.Color = pick(colorSurfaceFg)

	// The welcome title reads as a heading, not a badge.
	cfg.H1.Prefix = ""
	cfg.H1.BackgroundColor = nil
	cfg.H1.Color = pick(colorAccent)
	cfg.H1.Bold = boolPtr(true)
	cfg.H2.Color = pick(colorSurfaceFg)
	cfg.Item.Color = pick(colorSurfaceFg)
	cfg.Code.Color = pick(colorAccent)
	return cfg
}

func boolPtr(b bool) *bool { return &b }
