// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aoideee/bookcatalog/internal/validator"
)

// queryTimeout bounds every statement issued by the models.
const queryTimeout = 3 * time.Second

// Models is a top-level container that groups all database model types together.
type Models struct {
	Books BookModel // Handles all database operations for the books table
}

// NewModels constructs a Models value wired up to the given database connection pool.
func NewModels(db *sql.DB, dialect Dialect) Models {
	return Models{
		Books: BookModel{DB: db, Dialect: dialect},
	}
}

// ErrRecordNotFound is returned when a query finds no matching row.
var ErrRecordNotFound = errors.New("record not found")

// Filters holds pagination and sorting parameters for listing queries.
type Filters struct {
	Page         int      // Current page number (1-indexed)
	PageSize     int      // Number of records per page
	Sort         string   // Column name to sort by (prefix with "-" for DESC)
	SortSafeList []string // Allowed sort values to prevent SQL injection
}

// sortColumn returns the validated column name for ORDER BY, defaulting to title.
func (f Filters) sortColumn() string {
	if validator.In(f.Sort, f.SortSafeList...) {
		return strings.TrimPrefix(f.Sort, "-")
	}
	return "title"
}

// sortDirection returns "ASC" or "DESC" based on the Sort prefix.
func (f Filters) sortDirection() string {
	if validator.In(f.Sort, f.SortSafeList...) && strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

// orderBy builds the ORDER BY list with id as the tie-breaker running in the
// same direction, qualified by prefix (e.g. "p.").
func (f Filters) orderBy(prefix string) string {
	dir := f.sortDirection()
	return fmt.Sprintf("%s%s %s, %sid %s", prefix, f.sortColumn(), dir, prefix, dir)
}

// limit returns the SQL LIMIT value derived from PageSize.
func (f Filters) limit() int { return f.PageSize }

// offset returns the SQL OFFSET value derived from Page and PageSize,
// saturating instead of overflowing for absurd page numbers.
func (f Filters) offset() int {
	if f.PageSize > 0 && f.Page-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PageSize
}

// BookModel wraps a *sql.DB connection and provides methods for
// creating, reading, searching, updating, and deleting book records.
type BookModel struct {
	DB      *sql.DB // Shared database connection pool
	Dialect Dialect // SQL flavour of DB
}

// Insert adds a new book record to the database.
// After a successful insert, the database-assigned id and the creation
// timestamp are written back into the book struct.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	if err := checkBook(book); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO books (title, author, genre, year, created_at)
		VALUES (%s, %s, %s, %s, %s)
		RETURNING id`, m.ph(1), m.ph(2), m.ph(3), m.ph(4), m.ph(5))

	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query,
		book.Title,
		book.Author,
		book.Genre,
		book.Year,
		createdAt,
	).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	book.CreatedAt = createdAt
	return nil
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := fmt.Sprintf(`
		SELECT id, title, author, genre, year, created_at
		FROM books
		WHERE id = %s`, m.ph(1))

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var book Book
	var createdAt sqlTime
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.Year,
		&createdAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("get book %d: %w", id, err)
		}
	}
	book.CreatedAt = createdAt.Time
	return &book, nil
}

// List returns one page of books in filters order together with the total
// number of books.
func (m BookModel) List(ctx context.Context, filters Filters) ([]*Book, int, error) {
	return m.page(ctx, "1 = 1", nil, filters)
}

// Search returns one page of books whose title, author, genre, or year
// contains term, ignoring case, together with the total number of matches.
// Wildcard characters in term match literally.
func (m BookModel) Search(ctx context.Context, term string, filters Filters) ([]*Book, int, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	lower := m.Dialect.lower
	where := fmt.Sprintf(`%[2]s LIKE %[1]s ESCAPE '\'
			   OR %[3]s LIKE %[1]s ESCAPE '\'
			   OR %[4]s LIKE %[1]s ESCAPE '\'
			   OR CAST(year AS TEXT) LIKE %[1]s ESCAPE '\'`,
		m.ph(1), lower("title"), lower("author"), lower("genre"))
	return m.page(ctx, where, []any{pattern}, filters)
}

// page runs a single statement that both counts the rows matching where and
// returns the requested window of them, so the total and the items always
// come from the same snapshot. The LEFT JOIN keeps the count row even when
// the window is empty; its book columns are then NULL.
func (m BookModel) page(ctx context.Context, where string, args []any, filters Filters) ([]*Book, int, error) {
	n := len(args)
	query := fmt.Sprintf(`
		WITH matched AS (
			SELECT id, title, author, genre, year, created_at
			FROM books
			WHERE %s
		)
		SELECT total.n, p.id, p.title, p.author, p.genre, p.year, p.created_at
		FROM (SELECT count(*) AS n FROM matched) AS total
		LEFT JOIN (
			SELECT id, title, author, genre, year, created_at
			FROM matched
			ORDER BY %s
			LIMIT %s OFFSET %s
		) AS p ON 1 = 1
		ORDER BY %s`,
		where, filters.orderBy(""), m.ph(n+1), m.ph(n+2), filters.orderBy("p."))

	args = append(args, filters.limit(), filters.offset())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	totalRecords := 0
	books := []*Book{}

	for rows.Next() {
		var (
			id                   sql.NullInt64
			title, author, genre sql.NullString
			year                 sql.NullInt64
			createdAt            sqlTime
		)
		err := rows.Scan(&totalRecords, &id, &title, &author, &genre, &year, &createdAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		if !id.Valid {
			continue // window past the last match
		}
		books = append(books, &Book{
			ID:        id.Int64,
			Title:     title.String,
			Author:    author.String,
			Genre:     genre.String,
			Year:      int(year.Int64),
			CreatedAt: createdAt.Time,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}

	return books, totalRecords, nil
}

// Update saves the modified fields of book back to the database. The
// creation time is read back so the caller holds the complete row.
// Returns ErrRecordNotFound if the row disappeared in the meantime.
func (m BookModel) Update(ctx context.Context, book *Book) error {
	if err := checkBook(book); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE books
		SET title = %s, author = %s, genre = %s, year = %s
		WHERE id = %s
		RETURNING created_at`, m.ph(1), m.ph(2), m.ph(3), m.ph(4), m.ph(5))

	args := []any{
		book.Title,
		book.Author,
		book.Genre,
		book.Year,
		book.ID,
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var createdAt sqlTime
	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&createdAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return fmt.Errorf("update book %d: %w", book.ID, err)
		}
	}
	book.CreatedAt = createdAt.Time
	return nil
}

// Delete removes the book with the given id from the database.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	query := fmt.Sprintf(`DELETE FROM books WHERE id = %s`, m.ph(1))

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m BookModel) ph(n int) string { return m.Dialect.placeholder(n) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
