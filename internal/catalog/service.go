// Copyright (c) 2026 OpenShelf. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/validate"
	"github.com/openshelf/openshelf/pkg/pointer"
	"github.com/openshelf/openshelf/pkg/slug"
	"github.com/openshelf/openshelf/pkg/uuidv7"
)

// Field names used in validation errors.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldISBN        = "isbn"
	FieldCategory    = "category"
	FieldName        = "name"
	FieldTotalCopies = "total_copies"
)

// Service implements the catalogue use cases.
type Service struct {
	books      BookRepository
	categories CategoryRepository
}

// NewService constructs a catalogue [Service].
func NewService(books BookRepository, categories CategoryRepository) *Service {
	return &Service{books: books, categories: categories}
}

// # Browsing

// ListBooks returns a filtered page of books and the total match count.
func (service *Service) ListBooks(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	return service.books.List(ctx, filter, limit, offset)
}

// GetBook returns one book by ID.
func (service *Service) GetBook(ctx context.Context, id string) (*Book, error) {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	return service.books.GetByID(ctx, id)
}

// ListCategories returns all browsing categories.
func (service *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return service.categories.List(ctx)
}

// # Inventory Management

// CreateBookInput holds the data for a new catalogue entry.
type CreateBookInput struct {
	Title        string
	Author       string
	ISBN         string
	Description  *string
	CoverURL     *string
	Publisher    *string
	PublishDate  *time.Time
	Location     *string
	CategorySlug string
	TotalCopies  int
}

/*
CreateBook adds a new title to the inventory.

Description: Validates the entry, resolves the category slug, and creates
the book with all copies on the shelf (available = total).

Parameters:
  - ctx: context.Context
  - input: CreateBookInput

Returns:
  - *Book: Created entity
  - error: Validation, unknown category, or Conflict on a duplicate ISBN
*/
func (service *Service) CreateBook(ctx context.Context, input CreateBookInput) (*Book, error) {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 500).
		Required(FieldAuthor, input.Author).
		Required(FieldISBN, input.ISBN).
		ISBN(FieldISBN, input.ISBN).
		Range(FieldTotalCopies, input.TotalCopies, 1, 10000)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	book := &Book{
		ID:              uuidv7.New(),
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Description:     input.Description,
		CoverURL:        input.CoverURL,
		Publisher:       input.Publisher,
		PublishDate:     input.PublishDate,
		Location:        input.Location,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
	}

	if input.CategorySlug != "" {
		category, err := service.categories.GetBySlug(ctx, input.CategorySlug)
		if err != nil {
			if apperr.IsCode(err, "NOT_FOUND") {
				return nil, validate.RequiredError(FieldCategory, "Unknown category")
			}
			return nil, err
		}
		book.CategoryID = pointer.To(category.ID)
		book.Category = category
	}

	if err := service.books.Create(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// UpdateBookInput carries a partial update; nil fields are left unchanged.
type UpdateBookInput struct {
	Title        *string
	Author       *string
	ISBN         *string
	Description  *string
	CoverURL     *string
	Publisher    *string
	PublishDate  *time.Time
	Location     *string
	CategorySlug *string
	TotalCopies  *int
}

/*
UpdateBook applies a partial update to a catalogue entry.

Description: Loads the current row, overlays the provided fields, and
persists the result. Changing TotalCopies shifts AvailableCopies by the
same delta so copies currently on loan stay accounted for; shrinking
below the on-loan count is rejected.

Parameters:
  - ctx: context.Context
  - id: string
  - input: UpdateBookInput

Returns:
  - *Book: Updated entity
  - error: NotFound, validation, or Conflict errors
*/
func (service *Service) UpdateBook(ctx context.Context, id string, input UpdateBookInput) (*Book, error) {
	book, err := service.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	book.Title = pointer.Fallback(input.Title, book.Title)
	book.Author = pointer.Fallback(input.Author, book.Author)
	book.ISBN = pointer.Fallback(input.ISBN, book.ISBN)

	if input.Description != nil {
		book.Description = input.Description
	}
	if input.CoverURL != nil {
		book.CoverURL = input.CoverURL
	}
	if input.Publisher != nil {
		book.Publisher = input.Publisher
	}
	if input.PublishDate != nil {
		book.PublishDate = input.PublishDate
	}
	if input.Location != nil {
		book.Location = input.Location
	}

	if input.CategorySlug != nil {
		if *input.CategorySlug == "" {
			book.CategoryID = nil
			book.Category = nil
		} else {
			category, err := service.categories.GetBySlug(ctx, *input.CategorySlug)
			if err != nil {
				if apperr.IsCode(err, "NOT_FOUND") {
					return nil, validate.RequiredError(FieldCategory, "Unknown category")
				}
				return nil, err
			}
			book.CategoryID = pointer.To(category.ID)
			book.Category = category
		}
	}

	if input.TotalCopies != nil {
		onLoan := book.TotalCopies - book.AvailableCopies
		if *input.TotalCopies < onLoan {
			return nil, apperr.Unprocessable(
				fmt.Sprintf("Cannot reduce total copies below the %d currently on loan", onLoan))
		}
		book.AvailableCopies = *input.TotalCopies - onLoan
		book.TotalCopies = *input.TotalCopies
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, book.Title).
		Required(FieldAuthor, book.Author).
		Required(FieldISBN, book.ISBN).
		ISBN(FieldISBN, book.ISBN).
		Range(FieldTotalCopies, book.TotalCopies, 1, 10000)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.books.Update(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// DeleteBook removes a title from the inventory.
func (service *Service) DeleteBook(ctx context.Context, id string) error {
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		return err
	}
	return service.books.Delete(ctx, id)
}

// CreateCategory adds a browsing category, deriving its slug from the name.
func (service *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, name).MaxLen(FieldName, name, 100)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	category := &Category{
		Name: name,
		Slug: slug.From(name),
	}

	if err := service.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}
