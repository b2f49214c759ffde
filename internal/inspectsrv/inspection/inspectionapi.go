package inspection

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func saveAnswer(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	body, readErr := io.ReadAll(r.Body)
	if readErr != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	req, apperr := ParseAnswerSaveRequest(body)
	if apperr != nil {
		return nil, apperr
	}

	answer, apperr := SaveAnswer(ctx, module, sessionID, req)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewAnswerRsp(answer),
	}, nil
}

func saveCheckpoint(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	body, readErr := io.ReadAll(r.Body)
	if readErr != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	req, apperr := ParseCheckpointRequest(body)
	if apperr != nil {
		return nil, apperr
	}
	if err := V().Struct(req); err != nil {
		return nil, ErrInvalidRequest.Msg(err.Error())
	}

	answers, apperr := SaveCheckpoint(ctx, module, sessionID, req)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewAnswerRsps(answers),
	}, nil
}

func listAnswers(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return nil, err
	}

	compartment := r.URL.Query().Get("compartment")
	level := inscommon.ActivityLevel(r.URL.Query().Get("activityLevel"))

	answers, apperr := ListAnswers(ctx, module, sessionID, compartment, level)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewAnswerRsps(answers),
	}, nil
}

func listPendingDefects(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	filter := models.DefectFilter{
		CoachNumber:   q.Get("coach"),
		Compartment:   q.Get("compartment"),
		SubcategoryID: q.Get("subcategory"),
	}
	if v := q.Get("session"); v != "" {
		sessionID, parseErr := uuid.Parse(v)
		if parseErr != nil {
			return nil, httpx.ErrInvalidRequest("invalid session ID")
		}
		filter.SessionID = sessionID
	}

	answers, apperr := ListPendingDefects(ctx, module, filter)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewAnswerRsps(answers),
	}, nil
}

func resolveDefect(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	answerID, parseErr := uuid.Parse(chi.URLParam(r, "answerID"))
	if parseErr != nil {
		return nil, httpx.ErrInvalidRequest("invalid answer ID")
	}

	req := &ResolveRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	answer, apperr := ResolveDefect(ctx, module, answerID, req)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   NewAnswerRsp(answer),
	}, nil
}

func listQuestions(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	questions, apperr := db.DB(ctx).ListQuestions(ctx, module)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   questions,
	}, nil
}

func listSubcategories(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	module, err := apis.ModuleFromRequest(r)
	if err != nil {
		return nil, err
	}

	subcategories, apperr := db.DB(ctx).ListSubcategories(ctx, module)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   subcategories,
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
