// Package handler contains the HTTP handlers: server-rendered pages, the
// payment callbacks, the JSON component actions under /api and the
// operator actions under /admin.
//
// Handlers parse the request, call one service and write the response.
// They hold no business rules.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/model"
)

const layoutFile = "layout.html"

// Page is the data every page template receives.
type Page struct {
	Title   string
	Session *model.Session
	Flash   *flash.Message
	// Errors holds per-field validation messages of a rejected form.
	Errors map[string]string
	// Form echoes submitted values back into a rejected form.
	Form map[string]string
	Data any
}

// Renderer holds one parsed template set per page. Each page file defines
// "content" and is parsed together with the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("Jan 02, 2006")
	},
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

// NewRenderer parses every *.html page in fsys against layout.html.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("handler: listing templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(layoutFile).Funcs(templateFuncs).ParseFS(fsys, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", file, err)
		}
		pages[name] = t
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("handler: no page templates found")
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render executes page into a buffer first so a template error can still
// turn into a clean 500. The pending flash message and the session are
// filled in here.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if page.Flash == nil {
		page.Flash = flash.Pop(w, r)
	}
	if page.Session == nil {
		if sess, ok := auth.SessionFromContext(r.Context()); ok {
			page.Session = sess
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectWith sets a flash message and redirects with 303.
func redirectWith(w http.ResponseWriter, r *http.Request, to, kind, text string) {
	flash.Set(w, kind, text)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
