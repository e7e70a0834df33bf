package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("resolve: %w", TripStateNotFoundError{Provider: "sealink", TripID: "t1"})
	assert.True(t, IsTripStateNotFound(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))

	verr := fmt.Errorf("check: %w", ValidationError{Field: "origin", Msg: "must differ from destination"})
	assert.True(t, IsValidation(verr))
	assert.Equal(t, "check: origin: must differ from destination", verr.Error())
}

func TestProviderErrorKind(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := fmt.Errorf("search: %w", NewProviderError("makruzz", "login", KindAuth, "invalid credentials", base))

	assert.True(t, IsAuth(err))
	assert.False(t, IsTimeout(err))
	assert.Equal(t, KindAuth, KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "invalid credentials", ProviderMessage(err))
	assert.Equal(t, ProviderErrorKind(""), KindOf(errors.New("plain")))
}

func TestDeadlineIsTimeout(t *testing.T) {
	err := fmt.Errorf("sealink search: %w", context.DeadlineExceeded)
	assert.True(t, IsTimeout(err))
}
