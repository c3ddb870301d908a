// Copyright (c) 2026 OpenShelf. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/dberr"
)

// postgresBookRepository implements [BookRepository] using pgx.
type postgresBookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository creates the PostgreSQL implementation of [BookRepository].
func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &postgresBookRepository{pool: pool}
}

// bookColumns are the selected columns, joined with the category so that
// listings hydrate in a single round-trip.
const bookColumns = `
	b.id, b.title, b.author, b.isbn, b.description, b.cover_url,
	b.publisher, b.publish_date, b.location,
	b.category_id, b.total_copies, b.available_copies,
	b.created_at, b.updated_at,
	c.id, c.name, c.slug`

// scanBook reads one book row, including the nullable left-joined category.
func scanBook(row pgx.Row, extra ...any) (*Book, error) {
	book := &Book{}

	var categoryID *int
	var categoryName, categorySlug *string

	targets := []any{
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Description,
		&book.CoverURL,
		&book.Publisher,
		&book.PublishDate,
		&book.Location,
		&book.CategoryID,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
		&categoryID,
		&categoryName,
		&categorySlug,
	}
	targets = append(targets, extra...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	if categoryID != nil {
		book.Category = &Category{ID: *categoryID, Name: *categoryName, Slug: *categorySlug}
	}

	return book, nil
}

/*
List returns a filtered, paginated slice of books and the total count.

Description: Uses COUNT(*) OVER() to retrieve the total matching count
without a second query, and a dynamic WHERE clause built from the filter:
case-insensitive title search (ILIKE), category slug, and availability.

Parameters:
  - ctx: context.Context
  - filter: Filter (search, category, availability)
  - limit: int
  - offset: int

Returns:
  - []*Book: Slice of hydrated book entities
  - int: Total count matching the filter
  - error: Database execution errors
*/
func (repository *postgresBookRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(`
		SELECT ` + bookColumns + `,
			COUNT(*) OVER() AS total_count
		FROM library.books b
		LEFT JOIN library.categories c ON c.id = b.category_id
		WHERE TRUE`)

	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND b.title ILIKE $%d", argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}

	if filter.CategorySlug != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.slug = $%d", argID))
		args = append(args, filter.CategorySlug)
		argID++
	}

	if filter.AvailableOnly {
		queryBuilder.WriteString(" AND b.available_copies > 0")
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY b.title ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_book_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var books []*Book
	var total int

	for rows.Next() {
		book, err := scanBook(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_book_repo_scan_failed: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_book_repo_rows_failed: %w", err)
	}

	return books, total, nil
}

// GetByID returns one book with its category hydrated.
func (repository *postgresBookRepository) GetByID(ctx context.Context, id string) (*Book, error) {
	const query = `
		SELECT ` + bookColumns + `
		FROM library.books b
		LEFT JOIN library.categories c ON c.id = b.category_id
		WHERE b.id = $1`

	book, err := scanBook(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Book")
		}
		return nil, fmt.Errorf("postgres_book_repo_get_failed: %w", err)
	}

	return book, nil
}

// Create inserts a new book.
func (repository *postgresBookRepository) Create(ctx context.Context, book *Book) error {
	const query = `
		INSERT INTO library.books
			(id, title, author, isbn, description, cover_url,
			 publisher, publish_date, location, category_id,
			 total_copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING created_at, updated_at`

	now := time.Now().UTC()

	err := repository.pool.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Description,
		book.CoverURL,
		book.Publisher,
		book.PublishDate,
		book.Location,
		book.CategoryID,
		book.TotalCopies,
		book.AvailableCopies,
		now,
	).Scan(&book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("A book with this ISBN already exists")
		}
		return fmt.Errorf("postgres_book_repo_create_failed: %w", err)
	}

	return nil
}

// Update persists the mutable fields of a book. Copy counts are included
// so admins can correct inventory; availability arithmetic stays in the
// circulation transactions.
func (repository *postgresBookRepository) Update(ctx context.Context, book *Book) error {
	const query = `
		UPDATE library.books
		SET title = $2, author = $3, isbn = $4, description = $5,
			cover_url = $6, publisher = $7, publish_date = $8,
			location = $9, category_id = $10, total_copies = $11,
			available_copies = $12, updated_at = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Description,
		book.CoverURL,
		book.Publisher,
		book.PublishDate,
		book.Location,
		book.CategoryID,
		book.TotalCopies,
		book.AvailableCopies,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("A book with this ISBN already exists")
		}
		return fmt.Errorf("postgres_book_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}

	return nil
}

// Delete removes a book. Loan history rows keep their book_id via ON
// DELETE RESTRICT, so a book with recorded loans cannot be deleted.
func (repository *postgresBookRepository) Delete(ctx context.Context, id string) error {
	tag, err := repository.pool.Exec(ctx, `DELETE FROM library.books WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "Book")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}

	return nil
}

// # Category Repository

type postgresCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates the PostgreSQL implementation of [CategoryRepository].
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &postgresCategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (repository *postgresCategoryRepository) List(ctx context.Context) ([]*Category, error) {
	const query = `
		SELECT id, name, slug, created_at
		FROM library.categories
		ORDER BY name ASC`

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_category_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category := &Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_category_repo_scan_failed: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_category_repo_rows_failed: %w", err)
	}

	return categories, nil
}

// GetBySlug returns one category by its slug.
func (repository *postgresCategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	const query = `
		SELECT id, name, slug, created_at
		FROM library.categories
		WHERE slug = $1`

	category := &Category{}
	err := repository.pool.QueryRow(ctx, query, slug).
		Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, fmt.Errorf("postgres_category_repo_get_failed: %w", err)
	}

	return category, nil
}

// Create inserts a new category.
func (repository *postgresCategoryRepository) Create(ctx context.Context, category *Category) error {
	const query = `
		INSERT INTO library.categories (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(ctx, query, category.Name, category.Slug).
		Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("A category with this name already exists")
		}
		return fmt.Errorf("postgres_category_repo_create_failed: %w", err)
	}

	return nil
}
