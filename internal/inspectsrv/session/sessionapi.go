package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func getOrCreateSession(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	req := &SessionRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	session, created, apperr := GetOrCreateSession(ctx, module, req)
	if apperr != nil {
		return nil, apperr
	}

	statusCode := http.StatusOK
	location := ""
	if created {
		statusCode = http.StatusCreated
		location = "/sessions/" + string(module) + "/" + session.SessionID.String()
	}

	return &httpx.Response{
		StatusCode: statusCode,
		Location:   location,
		Response:   NewSessionRsp(session),
	}, nil
}

func lookupSession(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	session, apperr := LookupSession(ctx, module, q.Get("coach"), q.Get("date"))
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewSessionRsp(session),
	}, nil
}

func getSessionByID(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	session, apperr := GetSession(ctx, module, sessionID)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewSessionRsp(session),
	}, nil
}

func submitSession(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	session, apperr := SubmitSession(ctx, module, sessionID)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewSessionRsp(session),
	}, nil
}

func completeSession(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	session, apperr := CompleteSession(ctx, module, sessionID)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewSessionRsp(session),
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
