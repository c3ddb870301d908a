// Copyright (c) 2026 OpenShelf. All rights reserved.

package catalog

import "context"

// BookRepository defines the persistence contract for books.
type BookRepository interface {
	// List returns a filtered, paginated slice of books with the total
	// count matching the filter.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error)

	// GetByID returns one book, with its category hydrated when set.
	GetByID(ctx context.Context, id string) (*Book, error)

	Create(ctx context.Context, book *Book) error
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines the persistence contract for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, category *Category) error
}
