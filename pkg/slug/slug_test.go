// Copyright (c) 2026 OpenShelf. All rights reserved.

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/pkg/slug"
)

/*
TestFrom tests slug generation across casing, punctuation, accents, and
hyphen collapsing.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "History", want: "history"},
		{name: "spaces", input: "Science Fiction", want: "science-fiction"},
		{name: "accents", input: "Café Littéraire", want: "cafe-litteraire"},
		{name: "punctuation", input: "Sci-Fi & Fantasy!", want: "sci-fi-fantasy"},
		{name: "multiple_spaces", input: "Graphic   Novels", want: "graphic-novels"},
		{name: "leading_trailing", input: "  Poetry  ", want: "poetry"},
		{name: "digits", input: "Top 100", want: "top-100"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}
