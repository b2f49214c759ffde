package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

const testDepot = "DEPOT-TEST"

func newDb(c ...context.Context) context.Context {
	config.TestInit()
	db.Init()
	var ctx context.Context
	var err error
	if len(c) > 0 {
		ctx, err = db.ConnCtx(c[0])
	} else {
		ctx, err = db.ConnCtx(context.Background())
	}
	if err != nil {
		log.Ctx(ctx).Fatal().Err(err).Msg("unable to get db connection")
	}
	ctx = inscommon.WithDepotID(ctx, testDepot)
	ctx = inscommon.WithInspector(ctx, &inscommon.InspectorContext{
		InspectorID: "INSP-1",
		Name:        "Test Inspector",
	})
	return ctx
}

func seedCoach(ctx context.Context, coachNumber string) error {
	return db.DB(ctx).CreateCoach(ctx, &models.Coach{
		CoachNumber:  coachNumber,
		CoachType:    "LHB",
		Compartments: []string{"C1", "C2"},
		Active:       true,
	})
}
