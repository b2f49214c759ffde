package monitoring

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
)

var monitoringHandlers = []apis.ResponseHandlerParam{
	{
		Method:  http.MethodGet,
		Path:    "/sessions",
		Handler: listSessionFeed,
	},
	{
		Method:  http.MethodGet,
		Path:    "/defects",
		Handler: listDefectFeed,
	},
	{
		Method:  http.MethodGet,
		Path:    "/summary",
		Handler: getSummary,
	},
}

func Router() chi.Router {
	r := chi.NewRouter()
	for _, handler := range monitoringHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	return r
}
