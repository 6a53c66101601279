package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/aoideee/bookcatalog/internal/data"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) data.BookModel {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := data.EnsureSchema(context.Background(), db, data.DialectSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return data.NewModels(db, data.DialectSQLite).Books
}

func strPtr(s string) *string { return &s }

func input(title, author, genre, year string) data.Input {
	return data.Input{Title: strPtr(title), Author: strPtr(author), Genre: strPtr(genre), Year: strPtr(year)}
}

func mustCreate(t *testing.T, c *Catalog, in data.Input) *data.Book {
	t.Helper()
	out, err := c.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Kind != KindCreated {
		t.Fatalf("expected created, got %v (%v)", out.Kind, out.Violations)
	}
	return out.Book
}

// seed stores 12 books, two of them by Asimov.
func seed(t *testing.T, c *Catalog) {
	t.Helper()
	mustCreate(t, c, input("Foundation", "Isaac Asimov", "Science Fiction", "1951"))
	mustCreate(t, c, input("I, Robot", "Isaac Asimov", "Science Fiction", "1950"))
	for i := 1; i <= 10; i++ {
		mustCreate(t, c, input(fmt.Sprintf("Volume %02d", i), "Anon", "Reference", "2000"))
	}
}

func TestCreateValidFields(t *testing.T) {
	c := New(newTestStore(t))
	out, err := c.Create(context.Background(), input("Dune", "Frank Herbert", "Science Fiction", "1965"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Kind != KindCreated {
		t.Fatalf("expected created, got %v", out.Kind)
	}
	if out.Book.ID < 1 || out.Book.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", out.Book)
	}
	if resp := Classify(out, err); resp.Class != ClassRedirect || resp.Location != BookPath(out.Book.ID) {
		t.Fatalf("unexpected classification %+v", resp)
	}
}

func TestCreateRejectsAndPersistsNothing(t *testing.T) {
	cases := []struct {
		name string
		in   data.Input
		want int
	}{
		{"nothing supplied", data.Input{}, 5},
		{"blank year", input("Dune", "Herbert", "SF", ""), 2},
		{"year out of range", input("Dune", "Herbert", "SF", "3000000000"), 1},
		{"blank title", input("", "Herbert", "SF", "1965"), 1},
		{"non-numeric year", input("Dune", "Herbert", "SF", "mid sixties"), 1},
		{"three broken", input(" ", "", "SF", "1965.0"), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(newTestStore(t))
			out, err := c.Create(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if out.Kind != KindRejected {
				t.Fatalf("expected rejected, got %v", out.Kind)
			}
			if len(out.Violations) != tc.want {
				t.Fatalf("expected %d violations, got %v", tc.want, out.Violations)
			}
			if resp := Classify(out, err); resp.Class != ClassRender {
				t.Fatalf("rejection should re-render, got %v", resp.Class)
			}
			page, err := c.ListPage(context.Background(), ListQuery{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if page.TotalRecords != 0 {
				t.Fatalf("expected nothing persisted, got %d", page.TotalRecords)
			}
		})
	}
}

func TestCreateRejectionKeepsSubmittedValues(t *testing.T) {
	c := New(newTestStore(t))
	out, _ := c.Create(context.Background(), input("Dune", "Herbert", "", "19x5"))
	want := data.Candidate{Title: "Dune", Author: "Herbert", Genre: "", Year: "19x5"}
	if out.Candidate != want {
		t.Fatalf("candidate = %+v, want %+v", out.Candidate, want)
	}
	errs := out.Errors()
	if errs["genre"] == "" || errs["year"] == "" {
		t.Fatalf("expected genre and year errors, got %v", errs)
	}
}

func TestListPagePagination(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)
	ctx := context.Background()

	page, err := c.ListPage(ctx, ListQuery{Page: 1})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page.Items) != 5 || page.TotalPages != 3 || page.CurrentPage != 1 {
		t.Fatalf("page 1: got %d items, %d pages, current %d", len(page.Items), page.TotalPages, page.CurrentPage)
	}
	if page.Items[0].Title != "Foundation" {
		t.Fatalf("expected title order, first was %q", page.Items[0].Title)
	}

	page, err = c.ListPage(ctx, ListQuery{Page: 3})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page.Items) != 2 || page.TotalPages != 3 {
		t.Fatalf("page 3: got %d items, %d pages", len(page.Items), page.TotalPages)
	}
	if page.HasNext() || !page.HasPrev() {
		t.Fatalf("page 3 navigation wrong: next=%v prev=%v", page.HasNext(), page.HasPrev())
	}

	page, err = c.ListPage(ctx, ListQuery{Page: 9})
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(page.Items) != 0 || page.TotalPages != 3 || page.TotalRecords != 12 {
		t.Fatalf("page 9: got %d items, %d pages, %d records", len(page.Items), page.TotalPages, page.TotalRecords)
	}
}

func TestListPageClampsPage(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)
	for _, p := range []int{0, -3} {
		page, err := c.ListPage(context.Background(), ListQuery{Page: p})
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		if page.CurrentPage != 1 || len(page.Items) != 5 {
			t.Fatalf("page %d: expected clamp to 1, got current %d with %d items", p, page.CurrentPage, len(page.Items))
		}
	}
}

func TestListPageHugePageIsPastTheEnd(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)

	page, err := c.ListPage(context.Background(), ListQuery{Page: ParsePage("3689348814741910324")})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 0 || page.TotalRecords != 12 || page.CurrentPage != MaxPage {
		t.Fatalf("expected empty page %d of 12 records, got %d items, %d records, current %d",
			MaxPage, len(page.Items), page.TotalRecords, page.CurrentPage)
	}

	page, err = c.ListPage(context.Background(), ListQuery{Page: math.MaxInt, Term: "asimov"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Items) != 0 || page.TotalRecords != 2 {
		t.Fatalf("expected no items of 2 matches, got %d of %d", len(page.Items), page.TotalRecords)
	}
}

func TestListPageSearch(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)

	page, err := c.ListPage(context.Background(), ListQuery{Page: 1, Term: "asimov"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Items) != 2 || page.TotalPages != 1 || page.Term != "asimov" {
		t.Fatalf("expected 2 items on 1 page, got %d items on %d pages", len(page.Items), page.TotalPages)
	}
	for _, b := range page.Items {
		if b.Author != "Isaac Asimov" {
			t.Fatalf("unexpected match %+v", b)
		}
	}
}

func TestListPageEmptySearchIsNotAnError(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)

	page, err := c.ListPage(context.Background(), ListQuery{Term: "tolkien"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 || page.TotalPages != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestListPageBlankTermLists(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)
	page, err := c.ListPage(context.Background(), ListQuery{Term: "   "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalRecords != 12 || page.Term != "" {
		t.Fatalf("blank term should list everything, got %d records term %q", page.TotalRecords, page.Term)
	}
}

func TestListPageNewestFirst(t *testing.T) {
	c := New(newTestStore(t))
	seed(t, c)
	page, err := c.ListPage(context.Background(), ListQuery{Sort: SortNewest})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Sort != SortNewest || page.Items[0].Title != "Volume 10" {
		t.Fatalf("expected newest first, got %q sorted %q", page.Items[0].Title, page.Sort)
	}

	page, err = c.ListPage(context.Background(), ListQuery{Sort: "year; DROP TABLE books"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Sort != SortTitle {
		t.Fatalf("unknown sort should fall back to title, got %q", page.Sort)
	}
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"abc": 1,
		"0":   1,
		"-2":  1,
		"NaN": 1,
		"2.5": 1,
		"3":   3,
		" 4 ": 4,
		"3689348814741910324": MaxPage,
		"99999999999999999999": 1,
	}
	for raw, want := range cases {
		if got := ParsePage(raw); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestGetIdentityResolution(t *testing.T) {
	c := New(newTestStore(t))
	ctx := context.Background()

	malformedOut, err := c.Get(ctx, "abc")
	if err != nil || malformedOut.Kind != KindMalformedIdentity {
		t.Fatalf("expected malformed identity, got %v %v", malformedOut.Kind, err)
	}
	missingOut, err := c.Get(ctx, "99999")
	if err != nil || missingOut.Kind != KindNotFound {
		t.Fatalf("expected not found, got %v %v", missingOut.Kind, err)
	}
	if Classify(malformedOut, nil) != Classify(missingOut, nil) {
		t.Fatalf("malformed and missing should classify identically")
	}
	if Classify(missingOut, nil).Class != ClassNotFound {
		t.Fatalf("expected not-found class")
	}

	for _, token := range []string{"", "0", "-1", "1.5", "1e3", "99999999999999999999"} {
		out, err := c.Get(ctx, token)
		if err != nil || out.Kind != KindMalformedIdentity {
			t.Fatalf("Get(%q): expected malformed identity, got %v %v", token, out.Kind, err)
		}
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	c := New(newTestStore(t))
	b := mustCreate(t, c, input("Emma", "Jane Austen", "Romance", "1815"))

	out, err := c.Get(context.Background(), fmt.Sprint(b.ID))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Kind != KindFound {
		t.Fatalf("expected found, got %v", out.Kind)
	}
	got := out.Book
	if got.Title != "Emma" || got.Author != "Jane Austen" || got.Genre != "Romance" || got.Year != 1815 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestUpdateRejectsBlankTitleWithoutWriting(t *testing.T) {
	c := New(newTestStore(t))
	b := mustCreate(t, c, input("Dune", "Frank Herbert", "Science Fiction", "1965"))
	token := fmt.Sprint(b.ID)

	out, err := c.Update(context.Background(), token, data.Input{Title: strPtr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Kind != KindRejected {
		t.Fatalf("expected rejected, got %v", out.Kind)
	}
	if len(out.Violations) != 1 || out.Violations[0].Field != "title" {
		t.Fatalf("expected one title violation, got %v", out.Violations)
	}
	if out.Candidate.ID != b.ID || out.Candidate.Title != "" || out.Candidate.Author != "Frank Herbert" {
		t.Fatalf("candidate should carry the id and submitted values: %+v", out.Candidate)
	}

	after, _ := c.Get(context.Background(), token)
	if after.Book.Title != "Dune" {
		t.Fatalf("title changed to %q", after.Book.Title)
	}
}

func TestUpdateApplies(t *testing.T) {
	c := New(newTestStore(t))
	b := mustCreate(t, c, input("Dune", "Frank Herbert", "Science Fiction", "1965"))

	out, err := c.Update(context.Background(), fmt.Sprint(b.ID), data.Input{Title: strPtr("Dune Messiah"), Year: strPtr("1969")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Kind != KindUpdated {
		t.Fatalf("expected updated, got %v (%v)", out.Kind, out.Violations)
	}
	if out.Book.Author != "Frank Herbert" || out.Book.Year != 1969 {
		t.Fatalf("unexpected merge %+v", out.Book)
	}
	if !out.Book.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("created_at changed")
	}
	if resp := Classify(out, nil); resp.Location != BookPath(b.ID) {
		t.Fatalf("expected redirect to book, got %+v", resp)
	}
}

func TestUpdateIdentityFailures(t *testing.T) {
	c := New(newTestStore(t))
	ctx := context.Background()
	if out, _ := c.Update(ctx, "x1", input("a", "b", "c", "1")); out.Kind != KindMalformedIdentity {
		t.Fatalf("expected malformed identity, got %v", out.Kind)
	}
	if out, _ := c.Update(ctx, "42", input("a", "b", "c", "1")); out.Kind != KindNotFound {
		t.Fatalf("expected not found, got %v", out.Kind)
	}
}

func TestDelete(t *testing.T) {
	c := New(newTestStore(t))
	ctx := context.Background()
	b := mustCreate(t, c, input("Dune", "Frank Herbert", "Science Fiction", "1965"))
	token := fmt.Sprint(b.ID)

	out, err := c.Delete(ctx, token)
	if err != nil || out.Kind != KindDeleted {
		t.Fatalf("expected deleted, got %v %v", out.Kind, err)
	}
	if resp := Classify(out, nil); resp.Class != ClassRedirect || resp.Location != ListingPath {
		t.Fatalf("expected redirect to listing, got %+v", resp)
	}

	if out, _ := c.Get(ctx, token); out.Kind != KindNotFound {
		t.Fatalf("expected not found after delete, got %v", out.Kind)
	}
	out, err = c.Delete(ctx, token)
	if err != nil || out.Kind != KindNotFound {
		t.Fatalf("second delete: expected not found, got %v %v", out.Kind, err)
	}
	if out, _ := c.Delete(ctx, "abc"); out.Kind != KindMalformedIdentity {
		t.Fatalf("expected malformed identity, got %v", out.Kind)
	}
}

// racingStore deletes the row right after it has been looked up, as a
// concurrent request would.
type racingStore struct {
	data.BookModel
}

func (s racingStore) Get(ctx context.Context, id int64) (*data.Book, error) {
	b, err := s.BookModel.Get(ctx, id)
	if err == nil {
		_ = s.BookModel.Delete(ctx, id)
	}
	return b, err
}

func TestMutationAfterConcurrentDeleteIsNotFound(t *testing.T) {
	store := newTestStore(t)
	c := New(store)
	b := mustCreate(t, c, input("Dune", "Frank Herbert", "Science Fiction", "1965"))
	racing := New(racingStore{store})

	out, err := racing.Update(context.Background(), fmt.Sprint(b.ID), data.Input{Title: strPtr("Children of Dune")})
	if err != nil || out.Kind != KindNotFound {
		t.Fatalf("update: expected not found, got %v %v", out.Kind, err)
	}

	b = mustCreate(t, c, input("Emma", "Jane Austen", "Romance", "1815"))
	out, err = racing.Delete(context.Background(), fmt.Sprint(b.ID))
	if err != nil || out.Kind != KindNotFound {
		t.Fatalf("delete: expected not found, got %v %v", out.Kind, err)
	}
}

var errUnavailable = errors.New("storage unavailable")

type brokenStore struct{}

func (brokenStore) Insert(context.Context, *data.Book) error { return errUnavailable }
func (brokenStore) Get(context.Context, int64) (*data.Book, error) {
	return nil, errUnavailable
}
func (brokenStore) List(context.Context, data.Filters) ([]*data.Book, int, error) {
	return nil, 0, errUnavailable
}
func (brokenStore) Search(context.Context, string, data.Filters) ([]*data.Book, int, error) {
	return nil, 0, errUnavailable
}
func (brokenStore) Update(context.Context, *data.Book) error { return errUnavailable }
func (brokenStore) Delete(context.Context, int64) error      { return errUnavailable }

func TestStorageFailuresAreFatal(t *testing.T) {
	c := New(brokenStore{})
	ctx := context.Background()

	if _, err := c.ListPage(ctx, ListQuery{}); !errors.Is(err, errUnavailable) {
		t.Fatalf("list: expected storage error, got %v", err)
	}

	calls := map[string]func() (Outcome, error){
		"get":    func() (Outcome, error) { return c.Get(ctx, "1") },
		"create": func() (Outcome, error) { return c.Create(ctx, input("a", "b", "c", "1")) },
		"update": func() (Outcome, error) { return c.Update(ctx, "1", input("a", "b", "c", "1")) },
		"delete": func() (Outcome, error) { return c.Delete(ctx, "1") },
	}
	for name, call := range calls {
		out, err := call()
		if !errors.Is(err, errUnavailable) {
			t.Fatalf("%s: expected storage error, got %v", name, err)
		}
		if Classify(out, err).Class != ClassFatal {
			t.Fatalf("%s: expected fatal classification", name)
		}
	}

	// Identity problems never reach the store.
	out, err := c.Get(ctx, "abc")
	if err != nil || Classify(out, err).Class != ClassNotFound {
		t.Fatalf("malformed identity should be not-found, got %v %v", out.Kind, err)
	}
}

func TestKindString(t *testing.T) {
	if KindMalformedIdentity.String() != "malformed_identity" || Kind(0).String() != "unknown" {
		t.Fatalf("unexpected kind names")
	}
	if ClassNotFound.String() != "not_found" || Class(99).String() != "fatal" {
		t.Fatalf("unexpected class names")
	}
}
