// cmd/api/helpers.go
// This file contains general-purpose helper functions for the application.
// Error-response helpers live in errors.go; only non-error utilities are here.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"

	"github.com/aoideee/bookcatalog/internal/catalog"
	"github.com/aoideee/bookcatalog/internal/data"
)

// envelope is the top-level JSON wrapper type used for all API responses.
// Every response body is a JSON object with at least one named key,
// e.g. {"book": {...}} or {"books": [...], "metadata": {...}}.
type envelope map[string]any

// readIDParam returns the raw ":id" URL parameter added by httprouter.
// Parsing is left to the catalog so that a malformed token and a missing
// record are reported the same way.
func (app *applicationDependencies) readIDParam(r *http.Request) string {
	params := httprouter.ParamsFromContext(r.Context())
	return params.ByName("id")
}

// readString reads a string query parameter from qs, returning defaultValue
// if the key is absent or empty.
func (app *applicationDependencies) readString(qs url.Values, key, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return s
}

// listQuery pulls the listing parameters out of the query string.
func (app *applicationDependencies) listQuery(qs url.Values) catalog.ListQuery {
	return catalog.ListQuery{
		Page: catalog.ParsePage(qs.Get("page")),
		Term: app.readString(qs, "search", ""),
		Sort: app.readString(qs, "sort", catalog.SortTitle),
	}
}

// writeJSON marshals data to indented JSON, applies any custom headers,
// sets Content-Type to "application/json", writes the status code, and
// streams the body to the client.
func (app *applicationDependencies) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n') // Trailing newline makes curl output nicer.

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	return nil
}

// readJSON decodes a single JSON value from the request body into dst.
// It enforces a 1 MB size limit, rejects unknown fields, and ensures the
// body contains exactly one JSON value (no trailing data).
func (app *applicationDependencies) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// Cap the request body to 1 MB to prevent large-payload attacks.
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields() // Reject fields not present in dst.

	err := dec.Decode(dst)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			return err
		}
	}

	// Ensure there is no second JSON value in the body.
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// looseString accepts a JSON string or number and keeps its text, so that
// {"year": 1951} and {"year": "1951"} mean the same thing and a rejected
// value can be echoed back exactly as it arrived.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("must be a string or a number")
	}
	*s = looseString(n.String())
	return nil
}

// bookRequest is the JSON body accepted by create and update. Missing keys
// stay nil and leave the existing value alone on update.
type bookRequest struct {
	Title  *string      `json:"title"`
	Author *string      `json:"author"`
	Genre  *string      `json:"genre"`
	Year   *looseString `json:"year"`
}

func (req bookRequest) input() data.Input {
	in := data.Input{Title: req.Title, Author: req.Author, Genre: req.Genre}
	if req.Year != nil {
		year := string(*req.Year)
		in.Year = &year
	}
	return in
}

// formInput reads the book fields from a submitted HTML form. A form always
// posts every field, so each one is supplied even when blank.
func formInput(form url.Values) data.Input {
	field := func(name string) *string {
		v := form.Get(name)
		return &v
	}
	return data.Input{
		Title:  field("title"),
		Author: field("author"),
		Genre:  field("genre"),
		Year:   field("year"),
	}
}
