package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Title string `json:"title" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := ValidateStruct(v, sampleInput{Title: "", Email: "nope"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "This field is required.", verr.Fields["title"])
	assert.Equal(t, "Enter a valid email address.", verr.Fields["email"])

	err = ValidateStruct(v, sampleInput{Title: "toolong"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Ensure this field has no more than 5 characters.", verr.Fields["title"])

	assert.NoError(t, ValidateStruct(v, sampleInput{Title: "ok"}))
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("posts: get: %w", NotFound("Post"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "posts: get: No Post matches the given query.", err.Error())
}
