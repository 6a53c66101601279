package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/aoideee/bookcatalog/internal/catalog"
	"github.com/aoideee/bookcatalog/internal/data"
	"github.com/aoideee/bookcatalog/internal/validator"
	"github.com/aoideee/bookcatalog/ui"
)

// templateData is everything a page may show.
type templateData struct {
	Title      string
	Page       catalog.Page
	Book       *data.Book
	Form       data.Candidate
	Errors     map[string]string
	Violations []validator.Violation
	RequestID  string
}

func (app *applicationDependencies) newTemplateData(r *http.Request, title string) templateData {
	return templateData{
		Title:     title,
		RequestID: requestIDFrom(r.Context()),
	}
}

// newTemplateCache parses every page together with the base layout and the
// partials, keyed by the page's file name.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(ui.Files, "html/pages/*.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := path.Base(page)
		patterns := []string{
			"html/base.tmpl",
			"html/partials/*.tmpl",
			page,
		}

		ts, err := template.New(name).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		cache[name] = ts
	}

	return cache, nil
}

// render executes page into a buffer first so that a template failure never
// leaves a half-written response behind.
func (app *applicationDependencies) render(w http.ResponseWriter, status int, page string, data templateData) error {
	ts, ok := app.templateCache[page]
	if !ok {
		return fmt.Errorf("the template %s does not exist", page)
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
	return nil
}
