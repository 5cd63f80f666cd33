package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("approve: %w", NotFound("listing not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "approve: listing not found", err.Error())
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("BAD_REQUEST_ERROR")
	err := Upstream("failed to create order", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to create order: BAD_REQUEST_ERROR", err.Error())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestEnums(t *testing.T) {
	assert.True(t, ValidCondition("Like New"))
	assert.False(t, ValidCondition("like new"))
	assert.True(t, ValidCategory("Textbook"))
	assert.False(t, ValidCategory("Comics"))

	assert.True(t, Actor{ID: "a", Role: RoleAdmin}.IsAdmin())
	assert.False(t, Actor{ID: "u", Role: RoleUser}.IsAdmin())
}
