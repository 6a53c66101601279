// Package catalog is the query and mutation engine for the book catalog.
// It turns request parameters into paginated searches, validates and applies
// mutations through a Store, and reports typed outcomes that the presentation
// layer maps onto responses with Classify. It has no knowledge of HTTP.
package catalog

import (
	"context"

	"github.com/aoideee/bookcatalog/internal/data"
)

// PageSize is the fixed number of books per listing page.
const PageSize = 5

// Accepted values for ListQuery.Sort.
const (
	SortTitle  = "title"
	SortNewest = "-created_at"
)

var sortSafeList = []string{SortTitle, SortNewest}

// Store is the persistence contract the engine depends on. data.BookModel
// satisfies it.
type Store interface {
	Insert(ctx context.Context, book *data.Book) error
	Get(ctx context.Context, id int64) (*data.Book, error)
	List(ctx context.Context, filters data.Filters) ([]*data.Book, int, error)
	Search(ctx context.Context, term string, filters data.Filters) ([]*data.Book, int, error)
	Update(ctx context.Context, book *data.Book) error
	Delete(ctx context.Context, id int64) error
}

var _ Store = data.BookModel{}

// Catalog holds no per-request state and is safe for concurrent use.
type Catalog struct {
	store Store
}

// New returns a Catalog backed by store.
func New(store Store) *Catalog {
	return &Catalog{store: store}
}
