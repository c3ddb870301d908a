// Copyright (c) 2026 OpenShelf. All rights reserved.

/*
Package catalog implements the book catalogue: the browsable, searchable
inventory of titles the library owns.

# Architecture

The package follows the standard domain layout: entities and contracts
(book.go, store.go), the PostgreSQL implementation (store_postgres.go),
business logic (service.go), and HTTP delivery (http.go).

Copy counts live here, but they only move through the circulation
package's loan transactions. The catalogue itself never decrements
availability.
*/
package catalog

import "time"

// Category is a browsing facet for books, addressable by slug.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"-"`
}

// Book is a title in the library's inventory.
//
// TotalCopies is the number of physical copies owned; AvailableCopies is
// how many are currently on the shelf. The invariant
// 0 <= AvailableCopies <= TotalCopies is enforced by the loan
// transactions and a database CHECK constraint.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	Publisher   *string `json:"publisher"`

	// PublishDate is the edition's publication date, date precision only.
	PublishDate *time.Time `json:"publish_date"`

	// Location is the physical shelf mark (e.g. "2F-A-12").
	Location *string `json:"location"`

	CategoryID *int      `json:"category_id,omitempty"`
	Category   *Category `json:"category,omitempty"`

	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available reports whether at least one copy is on the shelf.
func (book *Book) Available() bool {
	return book.AvailableCopies > 0
}

// Filter narrows a catalogue listing.
type Filter struct {
	// Search matches against the title, case-insensitively.
	Search string

	// CategorySlug restricts results to one category.
	CategorySlug string

	// AvailableOnly drops books with no copies on the shelf.
	AvailableOnly bool
}
