package billing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := NewError(KindAlreadyOwned, "%s is already owned", "database_package")
	assert.ErrorIs(t, err, ErrAlreadyOwned)
	assert.NotErrorIs(t, err, ErrPlanIncludesFeature)
	assert.Equal(t, "database_package is already owned", err.Error())

	wrapped := fmt.Errorf("purchase failed: %w", err)
	assert.ErrorIs(t, wrapped, ErrAlreadyOwned)
	assert.Equal(t, KindAlreadyOwned, KindOf(wrapped))
}

func TestWrapError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(KindUnavailable, cause, "failed to begin transaction")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "failed to begin transaction: connection refused", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, "not_found", ErrNotFound.Error())
}
