package inspection

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
)

var inspectionHandlers = []apis.ResponseHandlerParam{
	{
		Method:  http.MethodPut,
		Path:    "/sessions/{sessionID}/answers",
		Handler: saveAnswer,
	},
	{
		Method:  http.MethodPost,
		Path:    "/sessions/{sessionID}/checkpoint",
		Handler: saveCheckpoint,
	},
	{
		Method:  http.MethodGet,
		Path:    "/sessions/{sessionID}/answers",
		Handler: listAnswers,
	},
	{
		Method:  http.MethodGet,
		Path:    "/defects",
		Handler: listPendingDefects,
	},
	{
		Method:  http.MethodPost,
		Path:    "/defects/{answerID}/resolve",
		Handler: resolveDefect,
	},
	{
		Method:  http.MethodGet,
		Path:    "/questions",
		Handler: listQuestions,
	},
	{
		Method:  http.MethodGet,
		Path:    "/subcategories",
		Handler: listSubcategories,
	},
}

func Router() chi.Router {
	r := chi.NewRouter()
	for _, handler := range inspectionHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	return r
}
