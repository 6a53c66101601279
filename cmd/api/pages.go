// cmd/api/pages.go
// This file contains the handlers for the HTML pages. Every lookup and
// mutation goes through the catalog and is turned into a response by
// respond, so all pages treat outcomes the same way.
package main

import (
	"net/http"

	"github.com/aoideee/bookcatalog/internal/catalog"
	"github.com/aoideee/bookcatalog/internal/data"
)

// homeHandler sends visitors to the first page of the listing.
func (app *applicationDependencies) homeHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/books?page=1", http.StatusSeeOther)
}

// booksIndexHandler handles GET /books. An empty page, including a search
// with no matches, is rendered like any other.
func (app *applicationDependencies) booksIndexHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.catalog.ListPage(r.Context(), app.listQuery(r.URL.Query()))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	td := app.newTemplateData(r, "Books")
	td.Page = page
	if err := app.render(w, http.StatusOK, "index.tmpl", td); err != nil {
		app.serverError(w, r, err)
	}
}

// booksShowOrNewHandler serves GET /books/:id. httprouter cannot register
// /books/new beside the wildcard, so the form is dispatched from here.
func (app *applicationDependencies) booksShowOrNewHandler(w http.ResponseWriter, r *http.Request) {
	if app.readIDParam(r) == "new" {
		app.booksNewHandler(w, r)
		return
	}
	app.booksShowHandler(w, r)
}

// booksNewHandler shows an empty create form.
func (app *applicationDependencies) booksNewHandler(w http.ResponseWriter, r *http.Request) {
	td := app.newTemplateData(r, "New Book")
	if err := app.render(w, http.StatusOK, "new.tmpl", td); err != nil {
		app.serverError(w, r, err)
	}
}

// booksCreateHandler handles POST /books.
func (app *applicationDependencies) booksCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	outcome, err := app.catalog.Create(r.Context(), formInput(r.PostForm))
	app.respond(w, r, outcome, err, "new.tmpl", "New Book")
}

// booksShowHandler shows a single book.
func (app *applicationDependencies) booksShowHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Get(r.Context(), app.readIDParam(r))
	app.respond(w, r, outcome, err, "show.tmpl", "Book")
}

// booksEditHandler shows the edit form filled with the stored values.
func (app *applicationDependencies) booksEditHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Get(r.Context(), app.readIDParam(r))
	app.respond(w, r, outcome, err, "edit.tmpl", "Update Book")
}

// booksUpdateHandler handles POST /books/:id/edit.
func (app *applicationDependencies) booksUpdateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	outcome, err := app.catalog.Update(r.Context(), app.readIDParam(r), formInput(r.PostForm))
	app.respond(w, r, outcome, err, "edit.tmpl", "Update Book")
}

// booksConfirmDeleteHandler asks before deleting.
func (app *applicationDependencies) booksConfirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Get(r.Context(), app.readIDParam(r))
	app.respond(w, r, outcome, err, "delete.tmpl", "Delete Book")
}

// booksDeleteHandler handles POST /books/:id/delete.
func (app *applicationDependencies) booksDeleteHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.catalog.Delete(r.Context(), app.readIDParam(r))
	app.respond(w, r, outcome, err, "", "")
}

// respond turns an outcome into a redirect, a rendered page, the not-found
// page or the failure page. page is rendered for found books and for
// rejected submissions; a rejected submission keeps the user's input.
func (app *applicationDependencies) respond(w http.ResponseWriter, r *http.Request, o catalog.Outcome, err error, page, title string) {
	app.metrics.observeOutcome(o, err)

	resp := catalog.Classify(o, err)
	switch resp.Class {
	case catalog.ClassRedirect:
		http.Redirect(w, r, resp.Location, http.StatusSeeOther)

	case catalog.ClassRender:
		if page == "" {
			app.serverError(w, r, errUnexpectedOutcome(o))
			return
		}
		td := app.newTemplateData(r, title)
		if o.Kind == catalog.KindRejected {
			td.Form = o.Candidate
			td.Errors = o.Errors()
			td.Violations = o.Violations
		} else {
			td.Book = o.Book
			td.Form = data.CandidateFrom(o.Book)
		}
		if err := app.render(w, http.StatusOK, page, td); err != nil {
			app.serverError(w, r, err)
		}

	case catalog.ClassNotFound:
		app.notFound(w, r)

	default:
		if err == nil {
			err = errUnexpectedOutcome(o)
		}
		app.serverError(w, r, err)
	}
}
