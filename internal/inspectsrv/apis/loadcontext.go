package apis

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Request headers carrying the caller's identity. The adapter in front of
// this service authenticates the inspector and forwards these; the core
// trusts them as-is.
const (
	HeaderDepotID       = "X-Depot-Id"
	HeaderInspectorID   = "X-Inspector-Id"
	HeaderInspectorName = "X-Inspector-Name"
)

// DepotContextLoader resolves the depot and inspector for the request and
// pins the depot scope on the request's db connection. The depot falls back
// to the deployment default when the header is absent.
func DepotContextLoader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		depotID := r.Header.Get(HeaderDepotID)
		if depotID == "" {
			depotID = config.Config().DefaultDepotID
		}
		if depotID == "" {
			httpx.ErrInvalidDepotId().Send(w)
			return
		}
		ctx = inscommon.WithDepotID(ctx, inscommon.DepotId(depotID))

		if inspectorID := r.Header.Get(HeaderInspectorID); inspectorID != "" {
			ctx = inscommon.WithInspector(ctx, &inscommon.InspectorContext{
				InspectorID: inscommon.InspectorId(inspectorID),
				Name:        r.Header.Get(HeaderInspectorName),
			})
		}

		if dbConn := db.DB(ctx); dbConn != nil {
			if err := dbConn.AddScope(ctx, db.Scope_DepotId, depotID); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("unable to set depot scope")
				httpx.ErrApplicationError("unable to service request at this time").Send(w)
				return
			}
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, config.Config().MaxRequestBodySize)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
