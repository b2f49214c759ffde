package models

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

// Domain errors shared between the storage layer and the managers above it.
// The validation that raises them runs inside the write transaction, so the
// storage layer is the one that returns them.
var (
	ErrIncompleteDeficiency apperrors.Error = apperrors.New("deficiency requires reasons, remark and photo").SetStatusCode(http.StatusBadRequest)
	ErrIncompleteResolution apperrors.Error = apperrors.New("resolution requires an after photo").SetStatusCode(http.StatusBadRequest)
	ErrNotDeficiency        apperrors.Error = apperrors.New("answer is not a deficiency").SetStatusCode(http.StatusConflict)
	ErrAlreadyResolved      apperrors.Error = apperrors.New("deficiency is already resolved").SetStatusCode(http.StatusConflict)
	ErrSessionLocked        apperrors.Error = apperrors.New("session is submitted and can no longer be edited").SetStatusCode(http.StatusConflict)
)
