package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string `json:"title" validate:"required,max=5"`
	Pages    int    `json:"total_pages" validate:"gt=0"`
	Rating   int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	CoverURL string `json:"cover_url" validate:"omitempty,url"`
	Status   string `json:"status" validate:"omitempty,oneof=want_to_read finished"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(sample{Title: "Dune", Pages: 10}))

	err := v.Validate(sample{Pages: 0, Rating: 9, CoverURL: "nope", Status: "lost"})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"title":       "is required",
		"total_pages": "must be greater than 0",
		"rating":      "must not exceed 5",
		"cover_url":   "must be a valid URL",
		"status":      "must be one of: want_to_read finished",
	}, verr.Fields)
	assert.Contains(t, err.Error(), "title is required")
}

func TestValidator_StringLength(t *testing.T) {
	err := New().Validate(sample{Title: "Too long", Pages: 1})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must not exceed 5 characters", verr.Fields["title"])
}
