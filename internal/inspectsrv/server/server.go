// Package server assembles the HTTP surface of the inspection service:
// routing, middleware and the health and version endpoints.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/httpx"
	"github.com/railcheck/railcheck/internal/common/logtrace"
	commonmiddleware "github.com/railcheck/railcheck/internal/common/middleware"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
	"github.com/railcheck/railcheck/internal/inspectsrv/inspection"
	"github.com/railcheck/railcheck/internal/inspectsrv/monitoring"
	"github.com/railcheck/railcheck/internal/inspectsrv/progress"
	"github.com/railcheck/railcheck/internal/inspectsrv/session"
)

type InspectionServer struct {
	Router *chi.Mux
}

func CreateNewServer() (*InspectionServer, error) {
	s := &InspectionServer{}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *InspectionServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.SetTimeout(30 * time.Second))
	s.Router.Use(db.LoadScopedDBMiddleware)
	s.Router.Use(apis.DepotContextLoader)
	if config.Config().HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.mountResourceHandlers(s.Router)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in inspection router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

func (s *InspectionServer) mountResourceHandlers(r chi.Router) {
	r.Mount("/sessions/{module}", session.Router())
	r.Mount("/inspections/{module}", inspection.Router())
	r.Mount("/progress/{module}", progress.Router())
	r.Mount("/monitoring", monitoring.Router())
	r.Method(http.MethodGet, "/coaches", httpx.WrapHttpRsp(apis.ListCoaches))
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *InspectionServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Railcheck Inspection Server: " + inscommon.ServerVersion,
		ApiVersion:    inscommon.ApiVersion,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *InspectionServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")

	ctx, err := db.ConnCtx(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Database connection failed during readiness check")
		httpx.SendJsonRsp(r.Context(), w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "database connection failed",
		})
		return
	}
	defer db.DB(ctx).Close(ctx)

	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *InspectionServer) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding", apis.HeaderDepotID, apis.HeaderInspectorID, apis.HeaderInspectorName},
		ExposedHeaders:   []string{"Link", "Location", commonmiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
