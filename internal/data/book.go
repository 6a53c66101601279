// Package data provides the data models and database interaction logic
// for the book catalog.
package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aoideee/bookcatalog/internal/validator"
)

// publishedLayout renders CreatedAt as e.g. "March 3, 2021, 4:30pm".
const publishedLayout = "January 2, 2006, 3:04pm"

// Book represents a single catalog record stored in the database.
// It maps directly to a row in the "books" table.
type Book struct {
	ID        int64     `json:"id"`         // Unique identifier assigned by the database
	Title     string    `json:"title"`      // Title of the book
	Author    string    `json:"author"`     // Author's name as entered
	Genre     string    `json:"genre"`      // Free-text genre
	Year      int       `json:"year"`       // Publication year
	CreatedAt time.Time `json:"created_at"` // Timestamp when the record was created, never changed
}

// PublishedAt formats the creation time for display.
func (b *Book) PublishedAt() string {
	return b.CreatedAt.Format(publishedLayout)
}

// Input holds the fields a client submitted for a create or update.
// Every field is a pointer so we can distinguish between "not provided" (nil)
// and "intentionally set to empty". Only non-nil fields are applied.
type Input struct {
	Title  *string
	Author *string
	Genre  *string
	Year   *string
}

// Candidate is a book in submitted, not yet validated form. Year stays a
// string so that whatever the user typed can be redisplayed unchanged.
type Candidate struct {
	ID     int64  `json:"id,omitempty"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   string `json:"year"`
}

// Apply merges the supplied fields of in over c and returns the result.
func (in Input) Apply(c Candidate) Candidate {
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Author != nil {
		c.Author = *in.Author
	}
	if in.Genre != nil {
		c.Genre = *in.Genre
	}
	if in.Year != nil {
		c.Year = *in.Year
	}
	return c
}

// CandidateFrom converts a stored book back into editable form.
func CandidateFrom(b *Book) Candidate {
	return Candidate{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
		Year:   strconv.Itoa(b.Year),
	}
}

// Book converts a candidate that passed ValidateCandidate into a Book.
// Text fields are trimmed; CreatedAt is left for the store to assign.
func (c Candidate) Book() (*Book, error) {
	year, err := parseYear(strings.TrimSpace(c.Year))
	if err != nil {
		return nil, fmt.Errorf("convert year %q: %w", c.Year, err)
	}
	return &Book{
		ID:     c.ID,
		Title:  strings.TrimSpace(c.Title),
		Author: strings.TrimSpace(c.Author),
		Genre:  strings.TrimSpace(c.Genre),
		Year:   year,
	}, nil
}

// ValidateCandidate applies the catalog rules to submitted fields. Every
// rule is evaluated so the caller can redisplay all errors at once; a blank
// year breaks both the required and the numeric rule.
func ValidateCandidate(v *validator.Validator, c Candidate) {
	v.Check(validator.NotBlank(c.Title), "title", `"Title" is required`)
	v.Check(validator.NotBlank(c.Author), "author", `"Author" is required`)
	v.Check(validator.NotBlank(c.Genre), "genre", `"Genre" is required`)

	year := strings.TrimSpace(c.Year)
	v.Check(year != "", "year", `"Year" is required`)
	_, err := parseYear(year)
	v.Check(validator.Matches(year, validator.DigitsRX) && err == nil, "year", `"Year" must be a number`)
}

// ValidateBook re-checks a typed book right before it is written.
func ValidateBook(v *validator.Validator, b *Book) {
	v.Check(validator.NotBlank(b.Title), "title", `"Title" is required`)
	v.Check(validator.NotBlank(b.Author), "author", `"Author" is required`)
	v.Check(validator.NotBlank(b.Genre), "genre", `"Genre" is required`)
	v.Check(b.Year >= 0 && b.Year <= math.MaxInt32, "year", `"Year" must be a number`)
}

// parseYear accepts only values the year column can hold (a 32-bit integer
// in Postgres).
func parseYear(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int(n), err
}

// ValidationError is returned by the store when a book breaks a field rule.
// Nothing is written when it is returned.
type ValidationError struct {
	Violations []validator.Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		fields = append(fields, violation.Field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

func checkBook(b *Book) error {
	v := validator.New()
	ValidateBook(v, b)
	if !v.Valid() {
		return &ValidationError{Violations: v.Violations}
	}
	return nil
}
