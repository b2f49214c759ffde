package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func TestGetOrCreateSessionIdempotent(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "SL-SESS-001"))
	defer db.DB(ctx).DeleteCoach(ctx, "SL-SESS-001")

	req := &SessionRequest{CoachNumber: "SL-SESS-001"}
	created, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleSickLine, req)
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleSickLine, created.SessionID)

	assert.True(t, isNew)
	assert.Equal(t, inscommon.SessionStatusDraft, created.Status)
	assert.Equal(t, inscommon.InspectorId("INSP-1"), created.InspectorID)

	// Same coach and day resolves to the same session.
	again, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleSickLine, req)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.SessionID, again.SessionID)
}

func TestLookupSession(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "SL-SESS-005"))
	defer db.DB(ctx).DeleteCoach(ctx, "SL-SESS-005")

	// No session yet for today.
	_, err := LookupSession(ctx, inscommon.ModuleSickLine, "SL-SESS-005", "")
	assert.ErrorIs(t, err, dberror.ErrNotFound)

	created, _, err := GetOrCreateSession(ctx, inscommon.ModuleSickLine, &SessionRequest{CoachNumber: "SL-SESS-005"})
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleSickLine, created.SessionID)

	found, err := LookupSession(ctx, inscommon.ModuleSickLine, "SL-SESS-005", "")
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, found.SessionID)

	_, err = LookupSession(ctx, inscommon.ModuleSickLine, "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// A submitted session is no longer open, so the lookup comes up empty.
	_, err = SubmitSession(ctx, inscommon.ModuleSickLine, created.SessionID)
	require.NoError(t, err)
	_, err = LookupSession(ctx, inscommon.ModuleSickLine, "SL-SESS-005", "")
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestGetOrCreateSessionPerCoachDay(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "WSP-SESS-006"))
	defer db.DB(ctx).DeleteCoach(ctx, "WSP-SESS-006")

	first, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleWSP, &SessionRequest{
		CoachNumber: "WSP-SESS-006",
		TrainNumber: "12345",
	})
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleWSP, first.SessionID)
	assert.True(t, isNew)

	// A different train number for the same coach and day resolves to the
	// one open session; the train is not part of the session's identity.
	again, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleWSP, &SessionRequest{
		CoachNumber: "WSP-SESS-006",
		TrainNumber: "67890",
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.SessionID, again.SessionID)
	assert.Equal(t, "12345", again.TrainNumber)

	// Once the session is submitted the next request starts a fresh one.
	_, err = SubmitSession(ctx, inscommon.ModuleWSP, first.SessionID)
	require.NoError(t, err)

	fresh, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleWSP, &SessionRequest{
		CoachNumber: "WSP-SESS-006",
		TrainNumber: "12345",
	})
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleWSP, fresh.SessionID)
	assert.True(t, isNew)
	assert.NotEqual(t, first.SessionID, fresh.SessionID)
}

func TestGetOrCreateSessionSkipDraft(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "CAI-SESS-002"))
	defer db.DB(ctx).DeleteCoach(ctx, "CAI-SESS-002")

	created, isNew, err := GetOrCreateSession(ctx, inscommon.ModuleCAI, &SessionRequest{CoachNumber: "CAI-SESS-002"})
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleCAI, created.SessionID)

	assert.True(t, isNew)
	assert.Equal(t, inscommon.SessionStatusInProgress, created.Status)
}

func TestGetOrCreateSessionValidation(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "WSP-SESS-003"))
	defer db.DB(ctx).DeleteCoach(ctx, "WSP-SESS-003")

	// Train-bound module without a train number.
	_, _, err := GetOrCreateSession(ctx, inscommon.ModuleWSP, &SessionRequest{CoachNumber: "WSP-SESS-003"})
	assert.ErrorIs(t, err, ErrTrainRequired)

	// Coach not in the fleet.
	_, _, err = GetOrCreateSession(ctx, inscommon.ModuleSickLine, &SessionRequest{CoachNumber: "no-such-coach"})
	assert.ErrorIs(t, err, ErrUnknownCoach)

	// Missing coach number.
	_, _, err = GetOrCreateSession(ctx, inscommon.ModuleSickLine, &SessionRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// Malformed date.
	_, _, err = GetOrCreateSession(ctx, inscommon.ModuleSickLine, &SessionRequest{
		CoachNumber:    "WSP-SESS-003",
		InspectionDate: "31-08-2026",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer db.DB(ctx).Close(ctx)

	require.NoError(t, seedCoach(ctx, "SL-SESS-004"))
	defer db.DB(ctx).DeleteCoach(ctx, "SL-SESS-004")

	created, _, err := GetOrCreateSession(ctx, inscommon.ModuleSickLine, &SessionRequest{CoachNumber: "SL-SESS-004"})
	require.NoError(t, err)
	defer db.DB(ctx).DeleteSession(ctx, inscommon.ModuleSickLine, created.SessionID)

	// First edit promotes DRAFT to IN_PROGRESS.
	require.NoError(t, EnsureEditable(ctx, created))
	assert.Equal(t, inscommon.SessionStatusInProgress, created.Status)

	submitted, err := SubmitSession(ctx, inscommon.ModuleSickLine, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, inscommon.SessionStatusSubmitted, submitted.Status)
	assert.True(t, submitted.SubmittedAt.Valid)

	// Submitted sessions take no further edits or submissions.
	assert.ErrorIs(t, EnsureEditable(ctx, submitted), models.ErrSessionLocked)
	_, err = SubmitSession(ctx, inscommon.ModuleSickLine, created.SessionID)
	assert.ErrorIs(t, err, models.ErrSessionLocked)

	completed, err := CompleteSession(ctx, inscommon.ModuleSickLine, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, inscommon.SessionStatusCompleted, completed.Status)

	_, err = CompleteSession(ctx, inscommon.ModuleSickLine, created.SessionID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
