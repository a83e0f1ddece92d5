package errors_test

import (
	"errors"
	"io"
	"net/http"
	"testing"

	apperrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorMatchesStatusSentinels(t *testing.T) {
	err := error(&apperrors.APIError{Status: http.StatusUnauthorized, Message: "Token expired"})
	require.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	require.False(t, errors.Is(err, apperrors.ErrForbidden))
	require.Equal(t, "api error: 401 Token expired", err.Error())

	err = &apperrors.APIError{Status: http.StatusConflict}
	require.True(t, apperrors.Is(err, apperrors.ErrConflict))
	require.Equal(t, "api error: 409 Conflict", err.Error())

	err = &apperrors.APIError{Status: http.StatusBadGateway}
	require.ErrorIs(t, err, apperrors.ErrInternal)
	require.NotErrorIs(t, &apperrors.APIError{Status: http.StatusBadRequest}, apperrors.ErrInternal)
}

func TestRefreshErrorUnwrapsBoth(t *testing.T) {
	err := error(&apperrors.RefreshError{Cause: io.ErrUnexpectedEOF})
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Contains(t, err.Error(), "session refresh failed")

	wrapped := apperrors.Wrapf(err, "[GET %s]", "/api/tasks")
	require.ErrorIs(t, wrapped, apperrors.ErrRefreshFailed)

	var re *apperrors.RefreshError
	require.True(t, apperrors.As(wrapped, &re))
	require.Nil(t, apperrors.Wrapf(nil, "ignored"))
}
