package session

import apperrors "github.com/jrsteele09/go-task-client/internal/errors"

var (
	ErrNoSession         = apperrors.ErrNoSession
	ErrPartialCredential = apperrors.ErrPartialCredential
	ErrRefreshFailed     = apperrors.ErrRefreshFailed
)
