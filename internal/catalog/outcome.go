package catalog

import (
	"strconv"
	"strings"

	"github.com/aoideee/bookcatalog/internal/data"
	"github.com/aoideee/bookcatalog/internal/validator"
)

// Kind identifies which branch a lookup or mutation ended in.
type Kind int

const (
	KindFound Kind = iota + 1
	KindCreated
	KindUpdated
	KindDeleted
	KindRejected          // validation failed, nothing written
	KindMalformedIdentity // id token is not a positive integer
	KindNotFound          // well-formed id with no record behind it
)

var kindNames = map[Kind]string{
	KindFound:             "found",
	KindCreated:           "created",
	KindUpdated:           "updated",
	KindDeleted:           "deleted",
	KindRejected:          "rejected",
	KindMalformedIdentity: "malformed_identity",
	KindNotFound:          "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Outcome is the typed result of Get, Create, Update or Delete. Which
// fields are set depends on Kind:
//
//	Found, Created, Updated  Book
//	Deleted                  ID
//	Rejected                 Candidate, Violations (Candidate.ID set when editing)
type Outcome struct {
	Kind       Kind
	Book       *data.Book
	ID         int64
	Candidate  data.Candidate
	Violations []validator.Violation
}

// Errors returns the violations keyed by field for form display.
func (o Outcome) Errors() map[string]string {
	v := validator.Validator{Violations: o.Violations}
	return v.Errors()
}

func found(b *data.Book) Outcome   { return Outcome{Kind: KindFound, Book: b, ID: b.ID} }
func created(b *data.Book) Outcome { return Outcome{Kind: KindCreated, Book: b, ID: b.ID} }
func updated(b *data.Book) Outcome { return Outcome{Kind: KindUpdated, Book: b, ID: b.ID} }
func deleted(id int64) Outcome     { return Outcome{Kind: KindDeleted, ID: id} }
func malformed() Outcome           { return Outcome{Kind: KindMalformedIdentity} }
func notFound(id int64) Outcome    { return Outcome{Kind: KindNotFound, ID: id} }

func rejected(c data.Candidate, violations []validator.Violation) Outcome {
	return Outcome{Kind: KindRejected, ID: c.ID, Candidate: c, Violations: violations}
}

// ParseID parses an identity token. Only base-10 integers of at least 1 are
// accepted; ok is false for everything else.
func ParseID(token string) (id int64, ok bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
