// Package views holds the console's HTML templates and static assets and
// renders them for echo.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/people-admin/console/internal/core/table"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded assets served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer implements echo.Renderer. Full pages are wrapped in the layout;
// any other name is executed as a fragment.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	base, err := template.New("console").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files)), fragments: base}
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		page, err := clone.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return r, nil
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	if page, ok := r.pages[name]; ok {
		return page.ExecuteTemplate(w, "layout", data)
	}
	if r.fragments.Lookup(name) == nil {
		return fmt.Errorf("views: unknown template %q", name)
	}
	return r.fragments.ExecuteTemplate(w, name, data)
}

var funcs = template.FuncMap{
	"query": func(q table.Query, page int) string {
		return "?" + q.Values(page).Encode()
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("02/01/2006")
	},
	"roleClass": func(name string) string {
		switch name {
		case "superadmin":
			return "badge badge-danger"
		case "admin":
			return "badge badge-primary"
		}
		return "badge"
	},
	"add": func(a, b int) int { return a + b },
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}
