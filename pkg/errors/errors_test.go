package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), ErrConflict.Code, ErrConflict.Status, "room taken")
	got := FromError(wrapped)
	assert.Same(t, wrapped, got)
	assert.Equal(t, "room taken: boom", got.Error())
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	got := FromError(errors.New("db down"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "section not found")
	assert.Equal(t, "section not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
}
