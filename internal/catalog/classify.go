package catalog

import "strconv"

// Class is the presentation-level category of an outcome.
type Class int

const (
	ClassFatal    Class = iota // generic failure page
	ClassRedirect              // go to Location
	ClassRender                // show the book, or the form again with violations
	ClassNotFound              // not-found page
)

func (c Class) String() string {
	switch c {
	case ClassRedirect:
		return "redirect"
	case ClassRender:
		return "render"
	case ClassNotFound:
		return "not_found"
	default:
		return "fatal"
	}
}

// Response tells the presentation layer what to do with an outcome.
type Response struct {
	Class    Class
	Location string
}

// ListingPath is where a successful delete leads.
const ListingPath = "/books"

// BookPath is the canonical location of a book.
func BookPath(id int64) string {
	return ListingPath + "/" + strconv.FormatInt(id, 10)
}

// Classify maps a result of Get, Create, Update or Delete to a response.
// Any error is internal and therefore fatal. A malformed identity and a
// missing record are deliberately indistinguishable to the caller. A Page is
// never classified: an empty page, searched or not, is rendered like any
// other.
func Classify(o Outcome, err error) Response {
	if err != nil {
		return Response{Class: ClassFatal}
	}
	switch o.Kind {
	case KindCreated, KindUpdated:
		return Response{Class: ClassRedirect, Location: BookPath(o.ID)}
	case KindDeleted:
		return Response{Class: ClassRedirect, Location: ListingPath}
	case KindFound, KindRejected:
		return Response{Class: ClassRender}
	case KindMalformedIdentity, KindNotFound:
		return Response{Class: ClassNotFound}
	default:
		return Response{Class: ClassFatal}
	}
}
