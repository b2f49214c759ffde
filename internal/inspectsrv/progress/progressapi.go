package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func getSessionProgress(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	p, apperr := GetSessionProgress(ctx, module, sessionID, r.URL.Query().Get("subcategory"))
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   p,
	}, nil
}

func getSessionSummary(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	s, apperr := GetSessionSummary(ctx, module, sessionID)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   s,
	}, nil
}

func sessionIDFromRequest(r *http.Request) (inscommon.ModuleKind, uuid.UUID, error) {
	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return "", uuid.Nil, err
	}
	sessionID, parseErr := uuid.Parse(chi.URLParam(r, "sessionID"))
	if parseErr != nil {
		return "", uuid.Nil, httpx.ErrInvalidRequest("invalid session ID")
	}
	return module, sessionID, nil
}
