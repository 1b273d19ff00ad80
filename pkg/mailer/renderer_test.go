package mailer

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`<html><body>{{.Content}}</body></html>`),
		},
		"welcome.md": &fstest.MapFile{
			Data: []byte(`---
Subject: Welcome {{.Name}}
---
Hello **{{.Name}}**!
`),
		},
		"plain.md": &fstest.MapFile{
			Data: []byte("No frontmatter here.\n"),
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(testTemplates(), RendererConfig{LayoutDir: "layouts"})

	result, err := r.Render("base.html", "welcome.md", map[string]string{"Name": "Alice"})
	require.NoError(t, err)

	require.Equal(t, "Welcome {{.Name}}", result.Metadata["Subject"])
	require.Equal(t, "Hello **Alice**!\n", result.Text)
	require.Contains(t, result.HTML, "<html><body>")
	require.Contains(t, result.HTML, "<strong>Alice</strong>")
}

func TestRenderer_Render_NoLayout(t *testing.T) {
	t.Parallel()

	r := NewRenderer(testTemplates())

	result, err := r.Render("", "plain.md", nil)
	require.NoError(t, err)
	require.Equal(t, "No frontmatter here.\n", result.Text)
	require.Contains(t, result.HTML, "<p>No frontmatter here.</p>")
	require.NotContains(t, result.HTML, "<html>")
}

func TestRenderer_Render_TemplateNotFound(t *testing.T) {
	t.Parallel()

	r := NewRenderer(testTemplates())

	_, err := r.Render("", "missing.md", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderer_Render_LayoutNotFound(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(testTemplates(), RendererConfig{LayoutDir: "layouts"})

	_, err := r.Render("missing.html", "plain.md", nil)
	require.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestRenderer_Render_BadTemplateData(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"bad.md": &fstest.MapFile{
			Data: []byte(`{{.Missing.Deeply.Nested}}`),
		},
	}
	r := NewRenderer(fs)

	_, err := r.Render("", "bad.md", map[string]string{})
	require.ErrorIs(t, err, ErrRenderFailed)
}

func TestRenderer_CachesParsedTemplates(t *testing.T) {
	t.Parallel()

	fs := testTemplates()
	r := NewRendererWithConfig(fs, RendererConfig{LayoutDir: "layouts"})

	first, err := r.Render("base.html", "welcome.md", map[string]string{"Name": "One"})
	require.NoError(t, err)

	// Mutating the filesystem after the first render must not change the
	// output: the parsed template is cached.
	fs["welcome.md"] = &fstest.MapFile{Data: []byte("changed")}

	second, err := r.Render("base.html", "welcome.md", map[string]string{"Name": "One"})
	require.NoError(t, err)
	require.Equal(t, first.Text, second.Text)
}
