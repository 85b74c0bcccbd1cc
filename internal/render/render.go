// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render executes the admin html/template pages. A page is sent
// whole on normal navigation and as its "content" block alone on HTMX
// requests.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatepress/internal/middleware"
	"estatepress/internal/session"
)

//go:embed templates/admin/*.html
var adminFS embed.FS

// PageData is passed to every admin template.
type PageData struct {
	Title     string
	Section   string // active sidebar entry
	Session   *session.Data
	CSRFToken string
	Data      map[string]any
	Flashes   []Flash
}

// Flash is a one-time notice shown above the page content.
type Flash struct {
	Type    string // "success", "error", "info"
	Message string
}

// Renderer holds the parsed admin templates.
type Renderer struct {
	templates map[string]*template.Template
	siteName  string
}

// standalone pages carry their own <html> and skip base.html.
var standalone = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// New parses every admin page together with the base layout. devMode adds
// a visible environment badge to the layout.
func New(siteName string, devMode bool) (*Renderer, error) {
	funcs := template.FuncMap{
		"activeClass": func(current, target string) string {
			if current == target {
				return "nav-link active"
			}
			return "nav-link"
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"isDev":    func() bool { return devMode },
		"siteName": func() string { return siteName },
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("2 Jan 2006 15:04")
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "..."
		},
	}

	entries, err := fs.ReadDir(adminFS, "templates/admin")
	if err != nil {
		return nil, fmt.Errorf("read admin templates: %w", err)
	}

	rn := &Renderer{templates: make(map[string]*template.Template), siteName: siteName}
	for _, e := range entries {
		file := e.Name()
		if e.IsDir() || file == "base.html" || !strings.HasSuffix(file, ".html") {
			continue
		}
		name := strings.TrimSuffix(file, ".html")

		var tmpl *template.Template
		if standalone[name] {
			tmpl, err = template.New(file).Funcs(funcs).ParseFS(adminFS, "templates/admin/"+file)
		} else {
			tmpl, err = template.New("base.html").Funcs(funcs).ParseFS(adminFS,
				"templates/admin/base.html", "templates/admin/"+file)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
		rn.templates[name] = tmpl
	}

	return rn, nil
}

// Has reports whether a page template exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders name with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders name with the given status, e.g. 422 for a form that
// failed validation. Output is buffered so a template error still produces
// a clean 500.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Data == nil {
		data.Data = map[string]any{}
	}

	exec := "base.html"
	switch {
	case standalone[name]:
		exec = name + ".html"
	case middleware.IsHTMX(r):
		exec = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, exec, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
