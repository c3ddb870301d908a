// Copyright (c) 2026 OpenShelf. All rights reserved.

package circulation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/apperr"
	requestutil "github.com/openshelf/openshelf/internal/platform/request"
	"github.com/openshelf/openshelf/internal/platform/respond"
)

// Handler implements the lending HTTP endpoints for both surfaces: the
// session-backed pages and the bearer-token API.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPageRoutes mounts the lending page actions on the root router.
// These run behind the route guard; each handler still verifies the
// session itself, so mounting order cannot open a hole.
func (handler *Handler) RegisterPageRoutes(router chi.Router) {
	router.Get("/dashboard", handler.dashboardPage)
	router.Post("/books/borrow/{bookID}", handler.borrowPage)
	router.Post("/books/reserve/{bookID}", handler.reservePage)
	router.Post("/loans/{loanID}/return", handler.returnPage)
}

// MemberRoutes returns the lending API router. The caller mounts it
// behind bearer-token auth.
func (handler *Handler) MemberRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/dashboard", handler.dashboardAPI)
	router.Get("/loans", handler.listLoansAPI)
	router.Post("/loans", handler.borrowAPI)
	router.Post("/loans/{loanID}/return", handler.returnAPI)
	router.Post("/reservations", handler.reserveAPI)
	return router
}

// requireSession resolves the guard-attached session or answers 401.
func requireSession(writer http.ResponseWriter, request *http.Request) (*identity.Session, bool) {
	session := identity.SessionFrom(request.Context())
	if session == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return nil, false
	}
	return session, true
}

// # Page Surface

/*
dashboardPage serves the member dashboard.

GET /dashboard

Response:
  - 200: Stats (total, borrowed, overdue), active loans, reservations
*/
func (handler *Handler) dashboardPage(writer http.ResponseWriter, request *http.Request) {
	session, ok := requireSession(writer, request)
	if !ok {
		return
	}

	dashboard, err := handler.service.GetDashboard(request.Context(), session.SubjectID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, dashboard)
}

/*
borrowPage lends one copy of a book to the signed-in member.

POST /books/borrow/{bookID}

Response:
  - 201: The opened loan, due in 14 days
  - 409: Already on loan to this member
  - 422: No copies available
*/
func (handler *Handler) borrowPage(writer http.ResponseWriter, request *http.Request) {
	session, ok := requireSession(writer, request)
	if !ok {
		return
	}

	loan, err := handler.service.Borrow(request.Context(), session.SubjectID, requestutil.Param(request, "bookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, loan)
}

// reservePage claims the next returned copy of a lent-out book.
func (handler *Handler) reservePage(writer http.ResponseWriter, request *http.Request) {
	session, ok := requireSession(writer, request)
	if !ok {
		return
	}

	reservation, err := handler.service.Reserve(request.Context(), session.SubjectID, requestutil.Param(request, "bookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, reservation)
}

// returnPage closes one of the member's loans.
func (handler *Handler) returnPage(writer http.ResponseWriter, request *http.Request) {
	session, ok := requireSession(writer, request)
	if !ok {
		return
	}

	loan, err := handler.service.Return(request.Context(), session.SubjectID, requestutil.Param(request, "loanID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loan)
}

// # API Surface

type borrowRequest struct {
	BookID string `json:"book_id"`
}

type reserveRequest struct {
	BookID string `json:"book_id"`
}

func (handler *Handler) dashboardAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dashboard, err := handler.service.GetDashboard(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, dashboard)
}

func (handler *Handler) listLoansAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	loans, err := handler.service.ListLoans(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loans)
}

func (handler *Handler) borrowAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input borrowRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Borrow(request.Context(), userID, input.BookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, loan)
}

func (handler *Handler) returnAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	loan, err := handler.service.Return(request.Context(), userID, requestutil.Param(request, "loanID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loan)
}

func (handler *Handler) reserveAPI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input reserveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	reservation, err := handler.service.Reserve(request.Context(), userID, input.BookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, reservation)
}
