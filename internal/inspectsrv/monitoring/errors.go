package monitoring

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/apperrors"
)

var (
	ErrMonitoringError apperrors.Error = apperrors.New("monitoring error")
	ErrInvalidRequest  apperrors.Error = ErrMonitoringError.New("invalid request").SetStatusCode(http.StatusBadRequest)
)
