package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
)

var progressHandlers = []apis.ResponseHandlerParam{
	{
		Method:  http.MethodGet,
		Path:    "/sessions/{sessionID}",
		Handler: getSessionProgress,
	},
	{
		Method:  http.MethodGet,
		Path:    "/sessions/{sessionID}/summary",
		Handler: getSessionSummary,
	},
}

func Router() chi.Router {
	r := chi.NewRouter()
	for _, handler := range progressHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	return r
}
