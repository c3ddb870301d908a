// Copyright (c) 2026 OpenShelf. All rights reserved.

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/pkg/pagination"
)

/*
TestFromRequest tests query parsing and clamping of page/limit values.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", url: "/books", wantPage: 1, wantLimit: 12},
		{name: "explicit_values", url: "/books?page=3&limit=24", wantPage: 3, wantLimit: 24},
		{name: "zero_page_clamped", url: "/books?page=0", wantPage: 1, wantLimit: 12},
		{name: "negative_page_clamped", url: "/books?page=-5", wantPage: 1, wantLimit: 12},
		{name: "zero_limit_clamped", url: "/books?limit=0", wantPage: 1, wantLimit: 12},
		{name: "excessive_limit_clamped", url: "/books?limit=5000", wantPage: 1, wantLimit: 12},
		{name: "max_limit_allowed", url: "/books?limit=100", wantPage: 1, wantLimit: 100},
		{name: "garbage_ignored", url: "/books?page=abc&limit=xyz", wantPage: 1, wantLimit: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.FromRequest(httptest.NewRequest("GET", tt.url, nil))

			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

/*
TestParams_Offset tests the SQL offset derivation.
*/
func TestParams_Offset(t *testing.T) {
	tests := []struct {
		name   string
		params pagination.Params
		want   int
	}{
		{name: "first_page", params: pagination.Params{Page: 1, Limit: 12}, want: 0},
		{name: "second_page", params: pagination.Params{Page: 2, Limit: 12}, want: 12},
		{name: "deep_page", params: pagination.Params{Page: 10, Limit: 25}, want: 225},
		{name: "zero_page_guard", params: pagination.Params{Page: 0, Limit: 12}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Offset())
		})
	}
}

/*
TestNewMeta tests total page calculation, including the ragged last page.
*/
func TestNewMeta(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		limit          int
		wantTotalPages int
	}{
		{name: "exact_fit", total: 24, limit: 12, wantTotalPages: 2},
		{name: "ragged_last_page", total: 25, limit: 12, wantTotalPages: 3},
		{name: "single_item", total: 1, limit: 12, wantTotalPages: 1},
		{name: "empty", total: 0, limit: 12, wantTotalPages: 0},
		{name: "zero_limit_guard", total: 10, limit: 0, wantTotalPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := pagination.NewMeta(1, tt.limit, tt.total)

			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.wantTotalPages, meta.TotalPages)
		})
	}
}
