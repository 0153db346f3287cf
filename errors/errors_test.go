package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := E(NotFound, "transaction x not found", nil)
	wrapped := fmt.Errorf("capture: %w", err)

	assert.Equal(t, NotFound, KindOf(err))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(NotFound, wrapped))
	assert.False(t, Is(Invalid, wrapped))
	assert.Equal(t, Unexpected, KindOf(stderrors.New("boom")))
	assert.False(t, Is(Unexpected, nil))
}

func TestErrorMessage(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := InvalidBodyErr(cause)

	assert.Equal(t, "invalid request body: unexpected EOF", err.Error())
	assert.Equal(t, "invalid request body", MessageOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", MessageOf(stderrors.New("boom")))
}

func TestValidationErrs(t *testing.T) {
	ve := ValidationErrs()
	require.NoError(t, ve.Err())

	ve.Add("mongo.uri", "cannot be empty")
	ve.Add("application", "cannot be empty")
	ve.Add("mongo.uri", "must be a mongodb uri")

	assert.Equal(t, 2, ve.Len())
	assert.EqualError(t, ve.Err(), "application cannot be empty; mongo.uri cannot be empty, must be a mongodb uri")
}

func TestEmptyParamErr(t *testing.T) {
	err := EmptyParamErr("transaction_id")

	assert.True(t, Is(Invalid, err))
	assert.EqualError(t, err, "validation failed: transaction_id cannot be empty")
}

func TestConflictErr(t *testing.T) {
	err := ConflictErr("abc", 3)

	assert.True(t, Is(Conflict, err))
	assert.Contains(t, err.Error(), "abc")
}
