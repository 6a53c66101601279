// cmd/api/handlers.go
// This file contains the JSON handlers for the /v1 books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the catalog.
package main

import (
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/zeebo/xxh3"

	"github.com/aoideee/bookcatalog/internal/catalog"
)

// healthcheckHandler handles GET /v1/healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	data := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Env,
			"version":     appVersion,
		},
	}
	err := app.writeJSON(w, http.StatusOK, data, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBookHandler handles POST /v1/books.
// A valid book is stored and returned with 201 Created and a Location header.
// A rejected submission is echoed back with its field errors and 200.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	outcome, err := app.catalog.Create(r.Context(), req.input())
	app.respondJSON(w, r, outcome, err)
}

// showBookHandler handles GET /v1/books/:id.
// The response carries an ETag so clients can revalidate with If-None-Match.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Get(r.Context(), app.readIDParam(r))
	app.respondJSON(w, r, outcome, err)
}

// listBooksHandler handles GET /v1/books?page=&search=&sort=.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.catalog.ListPage(r.Context(), app.listQuery(r.URL.Query()))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	data := envelope{
		"books": page.Items,
		"metadata": map[string]any{
			"current_page":  page.CurrentPage,
			"total_pages":   page.TotalPages,
			"total_records": page.TotalRecords,
			"page_size":     page.PageSize,
			"search":        page.Term,
			"sort":          page.Sort,
		},
	}
	err = app.writeJSON(w, http.StatusOK, data, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PATCH /v1/books/:id.
// Only the fields present in the body are changed.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	outcome, err := app.catalog.Update(r.Context(), app.readIDParam(r), req.input())
	app.respondJSON(w, r, outcome, err)
}

// deleteBookHandler handles DELETE /v1/books/:id.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Delete(r.Context(), app.readIDParam(r))
	app.respondJSON(w, r, outcome, err)
}

// respondJSON is the JSON counterpart of respond: the same classification,
// expressed as status codes and envelopes.
func (app *applicationDependencies) respondJSON(w http.ResponseWriter, r *http.Request, o catalog.Outcome, err error) {
	app.metrics.observeOutcome(o, err)

	switch catalog.Classify(o, err).Class {
	case catalog.ClassRedirect:
		switch o.Kind {
		case catalog.KindCreated:
			headers := make(http.Header)
			headers.Set("Location", "/v1"+catalog.BookPath(o.ID))
			err = app.writeJSON(w, http.StatusCreated, envelope{"book": o.Book}, headers)
		case catalog.KindUpdated:
			err = app.writeJSON(w, http.StatusOK, envelope{"book": o.Book}, nil)
		default:
			err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
		}

	case catalog.ClassRender:
		if o.Kind == catalog.KindRejected {
			err = app.writeJSON(w, http.StatusOK, envelope{"book": o.Candidate, "errors": o.Errors()}, nil)
			break
		}
		app.writeBookWithETag(w, r, o)
		return

	case catalog.ClassNotFound:
		app.notFoundResponse(w, r)
		return

	default:
		if err == nil {
			err = errUnexpectedOutcome(o)
		}
	}

	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// writeBookWithETag writes a found book, or 304 Not Modified when the
// client already holds the current representation.
func (app *applicationDependencies) writeBookWithETag(w http.ResponseWriter, r *http.Request, o catalog.Outcome) {
	body, err := json.Marshal(o.Book)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	etag := `"` + strconv.FormatUint(xxh3.Hash(body), 16) + `"`

	if etagMatches(r.Header.Values("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	headers := make(http.Header)
	headers.Set("ETag", etag)
	err = app.writeJSON(w, http.StatusOK, envelope{"book": o.Book}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// etagMatches reports whether any If-None-Match value names etag. Values may
// be comma-separated lists, "*" matches anything, and weak tags compare by
// their opaque part.
func etagMatches(values []string, etag string) bool {
	for _, value := range values {
		for _, tag := range strings.Split(value, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
				return true
			}
		}
	}
	return false
}
