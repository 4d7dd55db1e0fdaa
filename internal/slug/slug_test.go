package slug_test

import (
	"testing"
	"time"

	"github.com/latifiss/oak/internal/slug"
	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	testCases := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "punctuation and surrounding whitespace stripped",
			title:    " Hello, World! ",
			expected: "hello-world",
		},
		{
			name:     "empty input",
			title:    "",
			expected: "",
		},
		{
			name:     "repeated hyphens collapsed",
			title:    "a--b",
			expected: "a-b",
		},
		{
			name:     "whitespace runs become single hyphen",
			title:    "breaking   news\ttonight",
			expected: "breaking-news-tonight",
		},
		{
			name:     "uppercase lowered",
			title:    "ELECTION Results 2026",
			expected: "election-results-2026",
		},
		{
			name:     "leading and trailing hyphens trimmed",
			title:    "--dash heavy--",
			expected: "dash-heavy",
		},
		{
			name:     "only punctuation yields empty",
			title:    "?!...",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, slug.Make(tc.title))
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	assert.Equal(t, slug.Make("Same Title"), slug.Make("Same Title"))
}

func TestMakeUnique(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	assert.Equal(t, "hello-world-150926", slug.MakeUnique("Hello, World!", now))
	assert.Equal(t, "150926", slug.MakeUnique("", now))
}
