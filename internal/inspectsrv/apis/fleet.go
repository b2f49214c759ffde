package apis

import (
	"net/http"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
)

// ListCoaches returns the depot's active coach fleet.
func ListCoaches(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	coaches, err := db.DB(ctx).ListCoaches(ctx)
	if err != nil {
		return nil, err
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   coaches,
	}, nil
}
