package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNoSchedules, "no schedules for course c-9")
	assert.True(t, errors.Is(err, ErrNoSchedules))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "no schedules for course c-9", err.Message)
	assert.Equal(t, "no class schedules found", ErrNoSchedules.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("load: %w", sql.ErrConnDone))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestFromErrorFindsWrappedAppError(t *testing.T) {
	inner := Clone(ErrConflict, "duplicate class group")
	appErr := FromError(fmt.Errorf("allocate: %w", inner))
	assert.Same(t, inner, appErr)
	assert.Nil(t, FromError(nil))
}
