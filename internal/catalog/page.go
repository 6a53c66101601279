package catalog

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/aoideee/bookcatalog/internal/data"
)

// ListQuery is a parsed listing request.
type ListQuery struct {
	Page int    // 1-based; anything below 1 is treated as 1
	Term string // optional search term
	Sort string // SortTitle (default) or SortNewest
}

// Page describes one page of a listing or search.
type Page struct {
	Items        []*data.Book `json:"books"`
	CurrentPage  int          `json:"current_page"`
	TotalPages   int          `json:"total_pages"`
	TotalRecords int          `json:"total_records"`
	PageSize     int          `json:"page_size"`
	Term         string       `json:"search,omitempty"`
	Sort         string       `json:"sort"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.CurrentPage < p.TotalPages }

func (p Page) PrevPage() int { return p.CurrentPage - 1 }

func (p Page) NextPage() int { return p.CurrentPage + 1 }

// Numbers lists every page number, for pagination links.
func (p Page) Numbers() []int {
	numbers := make([]int, p.TotalPages)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}

// MaxPage is the highest page number whose offset still fits in an int.
// Larger requests are served as MaxPage, which is always past the end.
const MaxPage = math.MaxInt / PageSize

// ParsePage turns a raw page parameter into a page number. Absent,
// non-numeric and non-positive input all mean the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, MaxPage)
}

// ListPage runs the listing, or the search when q.Term is not blank, and
// returns the requested page. Items and the total come from one store call.
// No matches is a normal result: empty Items and zero TotalPages.
func (c *Catalog) ListPage(ctx context.Context, q ListQuery) (Page, error) {
	q.Page = max(1, min(q.Page, MaxPage))
	if q.Sort != SortNewest {
		q.Sort = SortTitle
	}
	term := strings.TrimSpace(q.Term)

	filters := data.Filters{
		Page:         q.Page,
		PageSize:     PageSize,
		Sort:         q.Sort,
		SortSafeList: sortSafeList,
	}

	var (
		books []*data.Book
		total int
		err   error
	)
	if term == "" {
		books, total, err = c.store.List(ctx, filters)
	} else {
		books, total, err = c.store.Search(ctx, term, filters)
	}
	if err != nil {
		return Page{}, err
	}
	if books == nil {
		books = []*data.Book{}
	}

	return Page{
		Items:        books,
		CurrentPage:  q.Page,
		TotalPages:   totalPages(total, PageSize),
		TotalRecords: total,
		PageSize:     PageSize,
		Term:         term,
		Sort:         q.Sort,
	}, nil
}

// totalPages is ceil(total / size) in integer arithmetic.
func totalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
