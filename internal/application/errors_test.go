package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	assert.Equal(t, "", nilErr.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())

	withFields := &ValidationError{FieldErrors: map[string]string{"name": "x", "date": "y"}}
	assert.Equal(t, "validation failed: date, name", withFields.Error())
}

func TestValidationError_RequiredAndErrOrNil(t *testing.T) {
	t.Parallel()

	v := &ValidationError{}
	v.required("name", "  ")
	v.required("location", "Jamor")
	assert.True(t, v.HasErrors())
	assert.Equal(t, "name is required", v.FieldErrors["name"])
	assert.NotContains(t, v.FieldErrors, "location")

	var target *ValidationError
	assert.True(t, errors.As(v.errOrNil(), &target))
	assert.NoError(t, (&ValidationError{}).errOrNil())
}
