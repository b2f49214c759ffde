package dberror

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

var (
	ErrDatabase       apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists  apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound       apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput   apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrInvalidModule  apperrors.Error = ErrInvalidInput.New("unknown inspection module").SetStatusCode(http.StatusBadRequest)
	ErrMissingDepotID apperrors.Error = ErrInvalidInput.New("missing depot ID").SetStatusCode(http.StatusBadRequest)
)
