// Copyright (c) 2026 OpenShelf. All rights reserved.

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "non_empty_value", value: "hello", hasError: false},
		{name: "empty_string", value: "", hasError: true},
		{name: "whitespace_only", value: "   ", hasError: true},
		{name: "tabs_and_newlines", value: "\t\n", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Required("title", tt.value).Err()

			if tt.hasError {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_Email tests RFC 5322 address parsing.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "plain_address", value: "ada@example.com", hasError: false},
		{name: "subaddressed", value: "ada+library@example.com", hasError: false},
		{name: "missing_domain", value: "ada@", hasError: true},
		{name: "missing_at", value: "ada.example.com", hasError: true},
		{name: "empty", value: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Email("email", tt.value).Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_Password tests the minimum-length floor on passwords.
*/
func TestValidator_Password(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "exactly_minimum", value: "12345678", hasError: false},
		{name: "longer", value: "correct horse battery staple", hasError: false},
		{name: "one_short", value: "1234567", hasError: true},
		{name: "empty", value: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Password("password", tt.value).Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_ISBN tests ISBN-10/ISBN-13 format checking, including
hyphen and space normalization.
*/
func TestValidator_ISBN(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "isbn13_bare", value: "9780134190440", hasError: false},
		{name: "isbn13_hyphenated", value: "978-0-13-419044-0", hasError: false},
		{name: "isbn10_bare", value: "0134190440", hasError: false},
		{name: "isbn10_x_check_digit", value: "043942089X", hasError: false},
		{name: "isbn13_with_spaces", value: "978 0134190440", hasError: false},
		{name: "too_short", value: "12345", hasError: true},
		{name: "twelve_digits", value: "978013419044", hasError: true},
		{name: "letters", value: "97801341904AB", hasError: true},
		{name: "empty", value: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.ISBN("isbn", tt.value).Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_Slug tests URL slug format checking.
*/
func TestValidator_Slug(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "simple", value: "science-fiction", hasError: false},
		{name: "single_word", value: "history", hasError: false},
		{name: "with_digits", value: "top-10", hasError: false},
		{name: "uppercase", value: "Science-Fiction", hasError: true},
		{name: "leading_hyphen", value: "-history", hasError: true},
		{name: "trailing_hyphen", value: "history-", hasError: true},
		{name: "double_hyphen", value: "science--fiction", hasError: true},
		{name: "empty", value: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Slug("slug", tt.value).Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_Range tests inclusive integer range checking.
*/
func TestValidator_Range(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		hasError bool
	}{
		{name: "lower_bound", value: 1, hasError: false},
		{name: "upper_bound", value: 10000, hasError: false},
		{name: "middle", value: 42, hasError: false},
		{name: "below", value: 0, hasError: true},
		{name: "above", value: 10001, hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Range("total_copies", tt.value, 1, 10000).Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_OneOf tests membership in an allowed set.
*/
func TestValidator_OneOf(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{name: "first_option", value: "user", hasError: false},
		{name: "second_option", value: "admin", hasError: false},
		{name: "unknown", value: "superuser", hasError: true},
		{name: "case_sensitive", value: "Admin", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.OneOf("role", tt.value, "user", "admin").Err()

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestValidator_Chaining verifies that a chain collects every failure as a
field-level detail on one VALIDATION_ERROR.
*/
func TestValidator_Chaining(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("title", "").
		Email("email", "not-an-email").
		Range("total_copies", 0, 1, 10000).
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Len(t, ae.Details, 3)

	fields := make([]string, 0, len(ae.Details))
	for _, detail := range ae.Details {
		fields = append(fields, detail.Field)
	}
	assert.Equal(t, []string{"title", "email", "total_copies"}, fields)
}

/*
TestRequiredError verifies the single-field error shortcut.
*/
func TestRequiredError(t *testing.T) {
	err := validate.RequiredError("category", "Unknown category")

	assert.Equal(t, "VALIDATION_ERROR", err.Code)
	require.Len(t, err.Details, 1)
	assert.Equal(t, "category", err.Details[0].Field)
	assert.Equal(t, "Unknown category", err.Details[0].Message)
}
