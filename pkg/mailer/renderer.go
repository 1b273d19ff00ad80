package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns markdown templates with YAML frontmatter into the text and
// HTML bodies of a job. Templates are Go text templates over markdown; the
// processed markdown becomes the plain-text body and its HTML conversion,
// optionally wrapped in a layout, becomes the HTML body.
//
// Parsed templates and layouts are cached; rendering itself always executes
// with fresh data.
type Renderer struct {
	fs        fs.FS
	md        goldmark.Markdown
	templates map[string]*parsedTemplate
	layouts   map[string]*htmltemplate.Template
	cfg       RendererConfig
	mu        sync.RWMutex
}

type parsedTemplate struct {
	metadata map[string]any
	tmpl     *texttemplate.Template
}

// RendererConfig configures template lookup paths.
type RendererConfig struct {
	TemplateDir string // directory holding templates, default "."
	LayoutDir   string // directory holding layouts, default "layouts"
}

// NewRenderer creates a renderer reading templates from the given
// filesystem with default lookup paths.
func NewRenderer(fsys fs.FS) *Renderer {
	return NewRendererWithConfig(fsys, RendererConfig{})
}

// NewRendererWithConfig creates a renderer with custom lookup paths.
func NewRendererWithConfig(fsys fs.FS, cfg RendererConfig) *Renderer {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "."
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = "layouts"
	}
	return &Renderer{
		fs:        fsys,
		cfg:       cfg,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*htmltemplate.Template),
	}
}

// RenderResult is the output of rendering one template.
type RenderResult struct {
	Metadata map[string]any
	Text     string // processed markdown, used as the plain-text body
	HTML     string // markdown converted to HTML, wrapped in the layout
}

// Render executes the named template with data, converts it to HTML and
// wraps it in the named layout. An empty layout name skips layout wrapping
// and returns the bare converted HTML.
func (r *Renderer) Render(layout, name string, data any) (*RenderResult, error) {
	cached, err := r.template(name)
	if err != nil {
		return nil, err
	}

	var markdown bytes.Buffer
	if err := cached.tmpl.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("%w: execute %s: %v", ErrRenderFailed, name, err)
	}

	var html bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &html); err != nil {
		return nil, fmt.Errorf("%w: convert %s: %v", ErrRenderFailed, name, err)
	}

	result := &RenderResult{
		Metadata: cached.metadata,
		Text:     markdown.String(),
		HTML:     html.String(),
	}
	if layout == "" {
		return result, nil
	}

	layoutTmpl, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var wrapped bytes.Buffer
	err = layoutTmpl.Execute(&wrapped, map[string]any{
		"Content":  htmltemplate.HTML(html.String()),
		"Metadata": cached.metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: execute layout %s: %v", ErrRenderFailed, layout, err)
	}
	result.HTML = wrapped.String()

	return result, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.RLock()
	cached, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.templates[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.cfg.TemplateDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	tmpl, err := texttemplate.New(name).Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrRenderFailed, name, err)
	}

	cached = &parsedTemplate{metadata: parsed.Metadata, tmpl: tmpl}
	r.templates[name] = cached
	return cached, nil
}

func (r *Renderer) layout(name string) (*htmltemplate.Template, error) {
	r.mu.RLock()
	cached, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.layouts[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.cfg.LayoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	tmpl, err := htmltemplate.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse layout %s: %v", ErrRenderFailed, name, err)
	}

	r.layouts[name] = tmpl
	return tmpl, nil
}
