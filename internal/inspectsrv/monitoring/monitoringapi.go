package monitoring

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/httpx"
)

func listSessionFeed(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req, apperr := parseFeedRequest(r.URL.Query())
	if apperr != nil {
		return nil, apperr
	}

	page, apperr := ListSessions(ctx, req)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   page,
	}, nil
}

func listDefectFeed(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req, apperr := parseFeedRequest(r.URL.Query())
	if apperr != nil {
		return nil, apperr
	}

	page, apperr := ListDefects(ctx, req)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   page,
	}, nil
}

func getSummary(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req, apperr := parseFeedRequest(r.URL.Query())
	if apperr != nil {
		return nil, apperr
	}
	days, apperr := parseTrendDays(r.URL.Query())
	if apperr != nil {
		return nil, apperr
	}

	summary, apperr := GetSummary(ctx, req.Filter, days)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   summary,
	}, nil
}
