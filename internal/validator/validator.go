// Package validator provides a Validator type for accumulating field-level
// validation failures in the order they were found.
package validator

import (
	"regexp"
	"strings"
)

// DigitsRX matches a non-empty run of ASCII decimal digits and nothing else.
var DigitsRX = regexp.MustCompile(`^[0-9]+$`)

// Violation is a single broken rule: the offending field and a
// human-readable message.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects violations. A Validator with no violations is valid.
type Validator struct {
	Violations []Violation
}

// New creates and returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Violations: []Violation{}}
}

// Valid returns true if no violation has been recorded.
func (v *Validator) Valid() bool {
	return len(v.Violations) == 0
}

// AddError records field as failing with the given message. Unlike a
// map-backed validator every call is kept, so one field may report
// several broken rules.
func (v *Validator) AddError(field, message string) {
	v.Violations = append(v.Violations, Violation{Field: field, Message: message})
}

// Check adds a violation for field with message only when ok is false.
// Use this as a single-line guard:
//
//	v.Check(NotBlank(title), "title", `"Title" is required`)
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Errors returns the violations keyed by field. When a field has more than
// one violation the first one wins, which is what a form shows next to
// the input.
func (v *Validator) Errors() map[string]string {
	out := make(map[string]string, len(v.Violations))
	for _, violation := range v.Violations {
		if _, exists := out[violation.Field]; !exists {
			out[violation.Field] = violation.Message
		}
	}
	return out
}

// NotBlank returns true if value contains something other than whitespace.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// In returns true if value is present in the list slice.
func In(value string, list ...string) bool {
	for _, item := range list {
		if value == item {
			return true
		}
	}
	return false
}

// Matches returns true if value matches the provided compiled regexp.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}
