package catalog

import (
	"context"
	"errors"

	"github.com/aoideee/bookcatalog/internal/data"
	"github.com/aoideee/bookcatalog/internal/validator"
)

// Get resolves an id token to a book.
func (c *Catalog) Get(ctx context.Context, token string) (Outcome, error) {
	id, ok := ParseID(token)
	if !ok {
		return malformed(), nil
	}
	book, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return notFound(id), nil
		}
		return Outcome{}, err
	}
	return found(book), nil
}

// Create validates the submitted fields and stores a new book. Fields that
// were not supplied count as empty.
func (c *Catalog) Create(ctx context.Context, in data.Input) (Outcome, error) {
	candidate := in.Apply(data.Candidate{})
	if violations := validate(candidate); len(violations) > 0 {
		return rejected(candidate, violations), nil
	}

	book, err := candidate.Book()
	if err != nil {
		return Outcome{}, err
	}
	if err := c.store.Insert(ctx, book); err != nil {
		return c.storeFailure(candidate, err)
	}
	return created(book), nil
}

// Update merges the submitted fields over the stored book, validates the
// result and saves it. A rejected candidate carries the book id and
// what the user submitted, never a partial write.
func (c *Catalog) Update(ctx context.Context, token string, in data.Input) (Outcome, error) {
	lookup, err := c.Get(ctx, token)
	if err != nil || lookup.Kind != KindFound {
		return lookup, err
	}

	candidate := in.Apply(data.CandidateFrom(lookup.Book))
	if violations := validate(candidate); len(violations) > 0 {
		return rejected(candidate, violations), nil
	}

	book, err := candidate.Book()
	if err != nil {
		return Outcome{}, err
	}
	if err := c.store.Update(ctx, book); err != nil {
		return c.storeFailure(candidate, err)
	}
	return updated(book), nil
}

// Delete removes a book permanently.
func (c *Catalog) Delete(ctx context.Context, token string) (Outcome, error) {
	lookup, err := c.Get(ctx, token)
	if err != nil || lookup.Kind != KindFound {
		return lookup, err
	}

	id := lookup.Book.ID
	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return notFound(id), nil
		}
		return Outcome{}, err
	}
	return deleted(id), nil
}

// storeFailure maps errors from a write. A row deleted by another request
// after our lookup shows up as ErrRecordNotFound; a rule the store enforces
// itself comes back as a ValidationError.
func (c *Catalog) storeFailure(candidate data.Candidate, err error) (Outcome, error) {
	var verr *data.ValidationError
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		return notFound(candidate.ID), nil
	case errors.As(err, &verr):
		return rejected(candidate, verr.Violations), nil
	default:
		return Outcome{}, err
	}
}

func validate(candidate data.Candidate) []validator.Violation {
	v := validator.New()
	data.ValidateCandidate(v, candidate)
	return v.Violations
}
