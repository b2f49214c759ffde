package progress

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

var (
	ErrProgressError apperrors.Error = apperrors.New("progress error")
	ErrUnknownModule apperrors.Error = ErrProgressError.New("unknown module").SetStatusCode(http.StatusBadRequest)
)
