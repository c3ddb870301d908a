// Copyright (c) 2026 OpenShelf. All rights reserved.

package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/openshelf/openshelf/internal/platform/request"
	"github.com/openshelf/openshelf/internal/platform/respond"
	"github.com/openshelf/openshelf/internal/platform/validate"
	"github.com/openshelf/openshelf/pkg/pagination"
)

// Handler implements the catalogue HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPageRoutes mounts the public browsing pages on the root router.
func (handler *Handler) RegisterPageRoutes(router chi.Router) {
	router.Get("/books", handler.listBooks)
	router.Get("/books/{bookID}", handler.getBook)
}

// PublicRoutes returns the read-only catalogue API router.
func (handler *Handler) PublicRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/books", handler.listBooks)
	router.Get("/books/{bookID}", handler.getBook)
	router.Get("/categories", handler.listCategories)
	return router
}

// AdminRoutes returns the inventory-management API router. The caller
// mounts it behind bearer-token auth with the admin role.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/books", handler.createBook)
	router.Patch("/books/{bookID}", handler.updateBook)
	router.Delete("/books/{bookID}", handler.deleteBook)
	router.Post("/categories", handler.createCategory)
	return router
}

// # Request Payloads

type createBookRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	Publisher   *string `json:"publisher"`
	PublishDate *string `json:"publish_date"`
	Location    *string `json:"location"`
	Category    string  `json:"category"`
	TotalCopies int     `json:"total_copies"`
}

type updateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	Publisher   *string `json:"publisher"`
	PublishDate *string `json:"publish_date"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	TotalCopies *int    `json:"total_copies"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// parsePublishDate converts an optional "YYYY-MM-DD" payload value.
func parsePublishDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, validate.RequiredError("publish_date", "Must be a date in YYYY-MM-DD format")
	}
	return &parsed, nil
}

/*
listBooks returns the browsable book grid.

GET /books?search=&category=&available=&page=&limit=

Description: Serves both the public catalogue page and the API listing:
12 books per page by default, title search, category filter, and an
availability toggle.

Response:
  - 200: Paginated list of books
*/
func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Search:        requestutil.Query(request, "search"),
		CategorySlug:  requestutil.Query(request, "category"),
		AvailableOnly: requestutil.Query(request, "available") == "true",
	}

	books, total, err := handler.service.ListBooks(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
getBook returns one book's detail.

GET /books/{bookID}

Response:
  - 200: Book with category hydrated
  - 404: Unknown book
*/
func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.service.GetBook(request.Context(), requestutil.Param(request, "bookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

// listCategories returns all browsing categories.
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

/*
createBook adds a title to the inventory.

POST /api/v1/admin/books

Response:
  - 201: Created book
  - 409: Duplicate ISBN
*/
func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	var input createBookRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	publishDate, err := parsePublishDate(input.PublishDate)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.CreateBook(request.Context(), CreateBookInput{
		Title:        input.Title,
		Author:       input.Author,
		ISBN:         input.ISBN,
		Description:  input.Description,
		CoverURL:     input.CoverURL,
		Publisher:    input.Publisher,
		PublishDate:  publishDate,
		Location:     input.Location,
		CategorySlug: input.Category,
		TotalCopies:  input.TotalCopies,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, book)
}

/*
updateBook applies a partial update to a title.

PATCH /api/v1/admin/books/{bookID}

Description: Only the provided fields change. Copy-count changes preserve
the number currently on loan.

Response:
  - 200: Updated book
  - 404: Unknown book
  - 422: Total copies below the on-loan count
*/
func (handler *Handler) updateBook(writer http.ResponseWriter, request *http.Request) {
	var input updateBookRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	publishDate, err := parsePublishDate(input.PublishDate)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.UpdateBook(request.Context(), requestutil.Param(request, "bookID"), UpdateBookInput{
		Title:        input.Title,
		Author:       input.Author,
		ISBN:         input.ISBN,
		Description:  input.Description,
		CoverURL:     input.CoverURL,
		Publisher:    input.Publisher,
		PublishDate:  publishDate,
		Location:     input.Location,
		CategorySlug: input.Category,
		TotalCopies:  input.TotalCopies,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

// deleteBook removes a title from the inventory.
func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteBook(request.Context(), requestutil.Param(request, "bookID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// createCategory adds a browsing category.
func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input createCategoryRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.CreateCategory(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, category)
}
