package session

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

var (
	ErrSessionError       apperrors.Error = apperrors.New("session error")
	ErrInvalidSession     apperrors.Error = ErrSessionError.New("invalid session").SetStatusCode(http.StatusBadRequest)
	ErrInvalidRequest     apperrors.Error = ErrSessionError.New("invalid request").SetStatusCode(http.StatusBadRequest)
	ErrUnknownCoach       apperrors.Error = ErrSessionError.New("unknown coach").SetStatusCode(http.StatusBadRequest)
	ErrTrainRequired      apperrors.Error = ErrSessionError.New("train number is required for this module").SetStatusCode(http.StatusBadRequest)
	ErrInvalidTransition  apperrors.Error = ErrSessionError.New("invalid status transition").SetStatusCode(http.StatusConflict)
	ErrUnableToGetSession apperrors.Error = ErrSessionError.New("unable to get session").SetStatusCode(http.StatusBadRequest)
)
