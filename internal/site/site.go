// Package site renders the HTML pages of the festival site: the public
// landing page and the admin gate, login and dashboard.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html content/*.md
var files embed.FS

// Page names.
const (
	PageLanding   = "landing.html"
	PageGate      = "gate.html"
	PageLogin     = "login.html"
	PageDashboard = "dashboard.html"
)

var pages = []string{PageLanding, PageGate, PageLogin, PageDashboard}

// mdRenderer escapes raw HTML in content (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// Page is the value every template executes against.
type Page struct {
	Festival  string
	CSRFField template.HTML
	Data      any
}

// Renderer holds the parsed templates and landing content.
type Renderer struct {
	festival  string
	content   template.HTML
	templates map[string]*template.Template
}

// New parses the embedded templates. contentFile, when set, replaces the
// embedded landing page markdown.
func New(festival, contentFile string) (*Renderer, error) {
	src, err := files.ReadFile("content/landing.md")
	if err != nil {
		return nil, err
	}
	if contentFile != "" {
		if src, err = os.ReadFile(contentFile); err != nil {
			return nil, fmt.Errorf("read site content: %w", err)
		}
	}
	content, err := RenderMarkdown(src)
	if err != nil {
		return nil, err
	}

	funcs := template.FuncMap{
		"join": strings.Join,
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tpl
	}

	return &Renderer{festival: festival, content: content, templates: templates}, nil
}

// Festival returns the festival display name.
func (r *Renderer) Festival() string { return r.festival }

// Content returns the rendered landing page markdown.
func (r *Renderer) Content() template.HTML { return r.content }

// Render executes page with data and writes it with status. The page is
// fully rendered before anything is written.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page string, data any) error {
	tpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	err := tpl.Execute(&buf, Page{
		Festival:  r.festival,
		CSRFField: csrf.TemplateField(req),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// RenderMarkdown converts markdown to HTML.
func RenderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
