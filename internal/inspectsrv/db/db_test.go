package db

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func TestCreateSession(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleWSP, "WSP-COACH-001")
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	assert.Equal(t, inscommon.DepotId(testDepot), session.DepotID)
	assert.False(t, session.CreatedAt.IsZero())

	// A second open session for the same coach and day must collide.
	dup := newTestSession(inscommon.ModuleWSP, "WSP-COACH-001")
	err := DB(ctx).CreateSession(ctx, dup)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)
}

func TestGetSessionByLookup(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-002")
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	got, err := DB(ctx).GetSessionByLookup(ctx, models.SessionLookup{
		Module:         inscommon.ModuleSickLine,
		CoachNumber:    "SL-COACH-002",
		InspectionDate: session.InspectionDate,
	})
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)
	assert.Equal(t, inscommon.ModuleSickLine, got.Module)

	_, err = DB(ctx).GetSessionByLookup(ctx, models.SessionLookup{
		Module:         inscommon.ModuleSickLine,
		CoachNumber:    "no-such-coach",
		InspectionDate: session.InspectionDate,
	})
	assert.ErrorIs(t, err, dberror.ErrNotFound)

	// Terminal sessions never match the lookup.
	require.NoError(t, DB(ctx).UpdateSessionStatus(ctx, session.Module, session.SessionID, inscommon.SessionStatusSubmitted))
	_, err = DB(ctx).GetSessionByLookup(ctx, models.SessionLookup{
		Module:         inscommon.ModuleSickLine,
		CoachNumber:    "SL-COACH-002",
		InspectionDate: session.InspectionDate,
	})
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestUpdateSessionStatus(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleCAI, "CAI-COACH-003")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	require.NoError(t, DB(ctx).UpdateSessionStatus(ctx, session.Module, session.SessionID, inscommon.SessionStatusSubmitted))

	got, err := DB(ctx).GetSession(ctx, session.Module, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, inscommon.SessionStatusSubmitted, got.Status)
	assert.True(t, got.SubmittedAt.Valid)

	// Unknown session
	err = DB(ctx).UpdateSessionStatus(ctx, session.Module, uuid.New(), inscommon.SessionStatusSubmitted)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestUpsertAnswersInsertAndPatch(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-010")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	key := models.SimpleKey{Session: session.SessionID, Question: "Q-1"}
	status := inscommon.AnswerStatusOK
	saves := []models.AnswerSave{{
		Key:          key,
		Patch:        models.AnswerPatch{Status: &status},
		QuestionText: "Check brake rigging",
	}}

	answers, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, saves)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, inscommon.AnswerStatusOK, answers[0].Status)

	// Patch the same answer; omitted fields keep their stored values.
	remark := "brake rigging fine"
	answers2, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key:   key,
		Patch: models.AnswerPatch{Remark: &remark},
	}})
	require.NoError(t, err)
	require.Len(t, answers2, 1)
	assert.Equal(t, answers[0].AnswerID, answers2[0].AnswerID)
	assert.Equal(t, inscommon.AnswerStatusOK, answers2[0].Status)
	assert.Equal(t, remark, answers2[0].Remark)

	// Same key resolves to the same row, so the session still has one answer.
	list, err := DB(ctx).ListSessionAnswers(ctx, session.Module, session.SessionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpsertAnswersDeficiencyValidation(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-011")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	deficiency := inscommon.AnswerStatusDeficiency
	key := models.SimpleKey{Session: session.SessionID, Question: "Q-2"}

	// A deficiency without evidence is rejected.
	_, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key:   key,
		Patch: models.AnswerPatch{Status: &deficiency},
	}})
	assert.ErrorIs(t, err, models.ErrIncompleteDeficiency)

	// The rejected batch left nothing behind.
	list, err := DB(ctx).ListSessionAnswers(ctx, session.Module, session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Complete evidence goes through.
	remark := "torn seat cover"
	photo := "https://photos/seat.jpg"
	answers, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key: key,
		Patch: models.AnswerPatch{
			Status:   &deficiency,
			Reasons:  []string{"torn seat"},
			Remark:   &remark,
			PhotoURL: &photo,
		},
	}})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, []string{"torn seat"}, answers[0].Reasons)

	// Downgrading to OK clears the reasons on the stored row.
	ok := inscommon.AnswerStatusOK
	answers, err = DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key:   key,
		Patch: models.AnswerPatch{Status: &ok},
	}})
	require.NoError(t, err)
	assert.Nil(t, answers[0].Reasons)

	got, err := DB(ctx).GetAnswerByKey(ctx, session.Module, key)
	require.NoError(t, err)
	assert.Nil(t, got.Reasons)
	assert.Equal(t, inscommon.AnswerStatusOK, got.Status)
}

func TestUpsertAnswersBatchRollsBackAsOne(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-012")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	ok := inscommon.AnswerStatusOK
	deficiency := inscommon.AnswerStatusDeficiency
	saves := []models.AnswerSave{
		{
			Key:   models.SimpleKey{Session: session.SessionID, Question: "Q-1"},
			Patch: models.AnswerPatch{Status: &ok},
		},
		{
			// Incomplete deficiency poisons the whole batch.
			Key:   models.SimpleKey{Session: session.SessionID, Question: "Q-2"},
			Patch: models.AnswerPatch{Status: &deficiency},
		},
	}

	_, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, saves)
	assert.ErrorIs(t, err, models.ErrIncompleteDeficiency)

	list, err := DB(ctx).ListSessionAnswers(ctx, session.Module, session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, list, "valid writes in a failed batch must not persist")
}

func TestUpsertAnswersLockedSession(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-013")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	require.NoError(t, DB(ctx).UpdateSessionStatus(ctx, session.Module, session.SessionID, inscommon.SessionStatusSubmitted))

	ok := inscommon.AnswerStatusOK
	_, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key:   models.SimpleKey{Session: session.SessionID, Question: "Q-1"},
		Patch: models.AnswerPatch{Status: &ok},
	}})
	assert.ErrorIs(t, err, models.ErrSessionLocked)
}

func TestUpsertAnswersCompartmentedKeys(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleWSP, "WSP-COACH-014")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	ok := inscommon.AnswerStatusOK
	keyC1 := models.CompartmentedKey{
		Session:     session.SessionID,
		Question:    "Q-5",
		Compartment: "C1",
		Subcategory: "SC-DOORS",
		Level:       inscommon.ActivityLevelMajor,
	}
	keyC2 := keyC1
	keyC2.Compartment = "C2"

	answers, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{
		{Key: keyC1, Patch: models.AnswerPatch{Status: &ok}, QuestionText: "Check door locks"},
		{Key: keyC2, Patch: models.AnswerPatch{Status: &ok}, QuestionText: "Check door locks"},
	})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.NotEqual(t, answers[0].AnswerID, answers[1].AnswerID,
		"same question in different compartments must be distinct answers")

	// A simple key is the wrong shape for a compartmented module.
	_, err = DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key:   models.SimpleKey{Session: session.SessionID, Question: "Q-5"},
		Patch: models.AnswerPatch{Status: &ok},
	}})
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)

	area, err := DB(ctx).ListAreaAnswers(ctx, session.Module, session.SessionID, "C1", inscommon.ActivityLevelMajor)
	require.NoError(t, err)
	assert.Len(t, area, 1)
}

func TestResolveAnswer(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModuleSickLine, "SL-COACH-015")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	deficiency := inscommon.AnswerStatusDeficiency
	remark := "window cracked"
	photo := "https://photos/window.jpg"
	answers, err := DB(ctx).UpsertAnswers(ctx, session.Module, session.SessionID, []models.AnswerSave{{
		Key: models.SimpleKey{Session: session.SessionID, Question: "Q-9"},
		Patch: models.AnswerPatch{
			Status:   &deficiency,
			Reasons:  []string{"cracked glass"},
			Remark:   &remark,
			PhotoURL: &photo,
		},
	}})
	require.NoError(t, err)
	answerID := answers[0].AnswerID

	// Resolution without an after photo is rejected.
	_, err = DB(ctx).ResolveAnswer(ctx, session.Module, answerID, "INSP-2", "replaced pane", "")
	assert.ErrorIs(t, err, models.ErrIncompleteResolution)

	resolved, err := DB(ctx).ResolveAnswer(ctx, session.Module, answerID, "INSP-2", "replaced pane", "https://photos/window-after.jpg")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, inscommon.InspectorId("INSP-2"), resolved.ResolvedBy)
	assert.True(t, resolved.ResolvedAt.Valid)

	// Resolution is one way.
	_, err = DB(ctx).ResolveAnswer(ctx, session.Module, answerID, "INSP-2", "again", "https://photos/window-after.jpg")
	assert.ErrorIs(t, err, models.ErrAlreadyResolved)

	pending, err := DB(ctx).ListPendingDefects(ctx, session.Module, models.DefectFilter{CoachNumber: "SL-COACH-015"})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMonitoringFeedAndCounts(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	session := newTestSession(inscommon.ModulePitLine, "PL-COACH-020")
	session.Status = inscommon.SessionStatusInProgress
	require.NoError(t, DB(ctx).CreateSession(ctx, session))
	defer DB(ctx).DeleteSession(ctx, session.Module, session.SessionID)

	feed, err := DB(ctx).ListSessionFeed(ctx, session.Module, models.FeedFilter{CoachNumber: "PL-COACH-020"}, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, session.SessionID, feed[0].SessionID)
	assert.Equal(t, inscommon.ModulePitLine, feed[0].Module)
	assert.Empty(t, feed[0].TrainNumber)

	counts, err := DB(ctx).CountSessions(ctx, session.Module, models.FeedFilter{CoachNumber: "PL-COACH-020"})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
	assert.Equal(t, 1, counts.Active)
	assert.Equal(t, 0, counts.Submitted)
}

const testDepot = "DEPOT-TEST"

func newTestSession(module inscommon.ModuleKind, coach string) *models.InspectionSession {
	spec, _ := inscommon.GetModuleSpec(module)
	s := &models.InspectionSession{
		Module:         module,
		CoachNumber:    coach,
		InspectionDate: time.Now().UTC().Truncate(24 * time.Hour),
		Status:         inscommon.SessionStatusDraft,
		InspectorID:    "INSP-1",
		InspectorName:  "Test Inspector",
	}
	if spec.HasTrain {
		s.TrainNumber = "12345"
	}
	if spec.SkipDraft {
		s.Status = inscommon.SessionStatusInProgress
	}
	return s
}

func newDb(c ...context.Context) context.Context {
	config.TestInit()
	Init()
	var ctx context.Context
	var err error
	if len(c) > 0 {
		ctx, err = ConnCtx(c[0])
		if err != nil {
			log.Ctx(ctx).Fatal().Err(err).Msg("unable to get db connection")
		}
	} else {
		ctx, err = ConnCtx(context.Background())
		if err != nil {
			log.Ctx(ctx).Fatal().Err(err).Msg("unable to get db connection")
		}
	}
	ctx = inscommon.WithDepotID(ctx, testDepot)
	ctx = inscommon.WithInspector(ctx, &inscommon.InspectorContext{
		InspectorID: "INSP-1",
		Name:        "Test Inspector",
	})
	return ctx
}
