package inspection

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

var (
	ErrInspectionError       apperrors.Error = apperrors.New("inspection error")
	ErrInvalidRequest        apperrors.Error = ErrInspectionError.New("invalid request").SetStatusCode(http.StatusBadRequest)
	ErrUnknownQuestion       apperrors.Error = ErrInspectionError.New("unknown question").SetStatusCode(http.StatusBadRequest)
	ErrCompartmentRequired   apperrors.Error = ErrInspectionError.New("compartment, subcategory and activity level are required for this module").SetStatusCode(http.StatusBadRequest)
	ErrUnexpectedCompartment apperrors.Error = ErrInspectionError.New("this module does not answer per compartment").SetStatusCode(http.StatusBadRequest)
	ErrInvalidLevel          apperrors.Error = ErrInspectionError.New("invalid activity level").SetStatusCode(http.StatusBadRequest)
	ErrInvalidStatus         apperrors.Error = ErrInspectionError.New("invalid answer status").SetStatusCode(http.StatusBadRequest)
	ErrEmptyCheckpoint       apperrors.Error = ErrInspectionError.New("checkpoint carries no answers").SetStatusCode(http.StatusBadRequest)
)
