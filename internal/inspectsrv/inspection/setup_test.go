package inspection

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
	"github.com/railcheck/railcheck/internal/inspectsrv/session"
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

type fixture struct {
	ctx     context.Context
	module  inscommon.ModuleKind
	coach   string
	session *models.InspectionSession
}

// newFixture seeds a coach, a question and a fresh session for the module.
func newFixture(ctx context.Context, module inscommon.ModuleKind, coach, question string) (*fixture, error) {
	err := db.DB(ctx).CreateCoach(ctx, &models.Coach{
		CoachNumber:  coach,
		CoachType:    "LHB",
		Compartments: []string{"C1", "C2"},
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	err = db.DB(ctx).CreateQuestion(ctx, &models.Question{
		QuestionID:    question,
		Module:        module,
		SubcategoryID: "SC-GEN",
		Text:          "Check item",
		Seq:           1,
		Active:        true,
	})
	if err != nil {
		return nil, err
	}

	req := &session.SessionRequest{CoachNumber: coach}
	spec, _ := inscommon.GetModuleSpec(module)
	if spec.HasTrain {
		req.TrainNumber = "12345"
	}
	sess, _, apperr := session.GetOrCreateSession(ctx, module, req)
	if apperr != nil {
		return nil, apperr
	}

	return &fixture{ctx: ctx, module: module, coach: coach, session: sess}, nil
}

func (f *fixture) cleanup(question string) {
	db.DB(f.ctx).DeleteSession(f.ctx, f.module, f.session.SessionID)
	db.DB(f.ctx).DeleteQuestion(f.ctx, f.module, question)
	db.DB(f.ctx).DeleteCoach(f.ctx, f.coach)
}
