// cmd/api/errors.go
// This file contains all error-response helpers for the application.
// JSON helpers serve the /v1 API; the HTML helpers render the matching pages.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aoideee/bookcatalog/internal/catalog"
)

// logError logs an internal error at ERROR level with the request method, URL
// and request id for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
}

// errorResponse sends a JSON error envelope with the given status code and message.
// It is the low-level building block used by all the specific error helpers below.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	data := envelope{"error": message}
	err := app.writeJSON(w, status, data, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs a 500-level error and sends a generic message to the client.
// We never expose internal error details to the client for security reasons.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// notFoundResponse sends a 404 Not Found error.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed error.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "the " + r.Method + " method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request error with the error message from the caller.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// rateLimitExceededResponse sends a 429 Too Many Requests error.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

// serverError logs err and renders the generic failure page.
func (app *applicationDependencies) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.renderStatus(w, r, http.StatusInternalServerError, "error.tmpl", "Server Error")
}

// notFound renders the not-found page.
func (app *applicationDependencies) notFound(w http.ResponseWriter, r *http.Request) {
	app.renderStatus(w, r, http.StatusNotFound, "not_found.tmpl", "Not Found")
}

// renderStatus renders one of the error pages. If the page itself cannot be
// rendered the client still gets the status code and a plain-text body.
func (app *applicationDependencies) renderStatus(w http.ResponseWriter, r *http.Request, status int, page, title string) {
	td := app.newTemplateData(r, title)
	if err := app.render(w, status, page, td); err != nil {
		app.logError(r, err)
		http.Error(w, http.StatusText(status), status)
	}
}

// routeNotFound and routeMethodNotAllowed replace the router defaults and
// answer in the format of the surface the request was aimed at.
func (app *applicationDependencies) routeNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		app.notFoundResponse(w, r)
		return
	}
	app.notFound(w, r)
}

func (app *applicationDependencies) routeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		app.methodNotAllowedResponse(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func isAPIRequest(r *http.Request) bool {
	return r.URL.Path == "/v1" || strings.HasPrefix(r.URL.Path, "/v1/")
}

// errUnexpectedOutcome reports an outcome that the handler has no page for.
func errUnexpectedOutcome(o catalog.Outcome) error {
	return fmt.Errorf("unexpected %s outcome", o.Kind)
}
