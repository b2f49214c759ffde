package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

const testDepot inscommon.DepotId = "DEPOT-TEST"

// newDb initializes the pool and returns a depot-scoped context for seeding
// fixtures directly through the db layer. Requests through the router get
// their own connection from the middleware.
func newDb() context.Context {
	config.TestInit()
	db.Init()
	ctx, err := db.ConnCtx(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("unable to get db connection")
	}
	ctx = inscommon.WithDepotID(ctx, testDepot)
	ctx = inscommon.WithInspector(ctx, &inscommon.InspectorContext{
		InspectorID: "INSP-1",
		Name:        "Test Inspector",
	})
	if err := db.DB(ctx).AddScope(ctx, db.Scope_DepotId, string(testDepot)); err != nil {
		log.Fatal().Err(err).Msg("unable to set depot scope")
	}
	return ctx
}
