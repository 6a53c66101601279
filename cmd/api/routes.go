// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/klauspost/compress/gzhttp"
)

// routes registers all HTTP endpoints and returns the configured router
// wrapped in middleware.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → requestID → logRequest → rateLimit → gzip → router
//
// HTML pages:
//
//	GET    /                   – redirect to the first listing page
//	GET    /books              – list books (page, search, sort)
//	GET    /books/new          – empty create form
//	POST   /books              – create a book
//	GET    /books/:id          – show a book
//	GET    /books/:id/edit     – edit form
//	POST   /books/:id/edit     – update a book
//	GET    /books/:id/delete   – delete confirmation
//	POST   /books/:id/delete   – delete a book
//
// JSON API:
//
//	GET    /v1/healthcheck     – liveness and version
//	POST   /v1/books           – create a new book
//	GET    /v1/books/:id       – retrieve a single book by ID
//	GET    /v1/books           – list books (paginated, searchable)
//	PATCH  /v1/books/:id       – partially update an existing book
//	DELETE /v1/books/:id       – delete a book by ID
//	GET    /metrics            – Prometheus metrics
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Answer unknown routes in the format of the surface they were aimed at.
	router.NotFound = http.HandlerFunc(app.routeNotFound)
	router.MethodNotAllowed = http.HandlerFunc(app.routeMethodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/", app.homeHandler)
	router.HandlerFunc(http.MethodGet, "/books", app.booksIndexHandler)
	router.HandlerFunc(http.MethodPost, "/books", app.booksCreateHandler)
	router.HandlerFunc(http.MethodGet, "/books/:id", app.booksShowOrNewHandler)
	router.HandlerFunc(http.MethodGet, "/books/:id/edit", app.booksEditHandler)
	router.HandlerFunc(http.MethodPost, "/books/:id/edit", app.booksUpdateHandler)
	router.HandlerFunc(http.MethodGet, "/books/:id/delete", app.booksConfirmDeleteHandler)
	router.HandlerFunc(http.MethodPost, "/books/:id/delete", app.booksDeleteHandler)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodPost, "/v1/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", app.deleteBookHandler)

	router.Handler(http.MethodGet, "/metrics", app.metrics.handler())

	// recoverPanic is outermost so it catches panics from everything below it.
	return app.recoverPanic(app.requestID(app.logRequest(app.rateLimit(gzhttp.GzipHandler(router)))))
}
