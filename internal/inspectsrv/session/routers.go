package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
)

var sessionHandlers = []apis.ResponseHandlerParam{
	{
		Method:  http.MethodPost,
		Path:    "/",
		Handler: getOrCreateSession,
	},
	{
		Method:  http.MethodGet,
		Path:    "/",
		Handler: lookupSession,
	},
	{
		Method:  http.MethodGet,
		Path:    "/{sessionID}",
		Handler: getSessionByID,
	},
	{
		Method:  http.MethodPost,
		Path:    "/{sessionID}/submit",
		Handler: submitSession,
	},
	{
		Method:  http.MethodPost,
		Path:    "/{sessionID}/complete",
		Handler: completeSession,
	},
}

func Router() chi.Router {
	r := chi.NewRouter()
	for _, handler := range sessionHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	return r
}
