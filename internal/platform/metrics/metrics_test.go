// Copyright (c) 2026 OpenShelf. All rights reserved.

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/platform/metrics"
)

/*
TestInstrument_RoutePatternLabel verifies that HTTP metrics are labeled
with the matched route pattern, so parameterized routes produce one time
series instead of one per ID.
*/
func TestInstrument_RoutePatternLabel(t *testing.T) {
	m := metrics.New()

	router := chi.NewRouter()
	router.Use(m.Instrument)
	router.Get("/books/{bookID}", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/books/123", "/books/456"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	// Scrape the registry and check the label values.
	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	assert.Contains(t, body, `path="/books/{bookID}"`)
	assert.NotContains(t, body, "/books/123")
	assert.NotContains(t, body, "/books/456")
}
