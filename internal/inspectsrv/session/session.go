// Package session implements the inspection session lifecycle. A session is
// keyed by coach and day within its module; get-or-create resolves repeat
// requests for the same key onto the one open row, and a submitted session
// is locked against further edits.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// GetOrCreateSession returns the open session for the coach and day,
// creating it if the inspector has not started one. A terminal session never
// matches; the next request after submit starts fresh. The create path races
// benignly with concurrent requests for the same key: the unique index keeps
// one row, and the loser re-fetches it. The returned bool is true when this
// call created the session.
func GetOrCreateSession(ctx context.Context, module inscommon.ModuleKind, req *SessionRequest) (*models.InspectionSession, bool, apperrors.Error) {
	spec, ok := inscommon.GetModuleSpec(module)
	if !ok {
		return nil, false, dberror.ErrInvalidModule.Msg(string(module))
	}
	if err := V().Struct(req); err != nil {
		return nil, false, ErrInvalidRequest.Msg(err.Error())
	}
	if spec.HasTrain && req.TrainNumber == "" {
		return nil, false, ErrTrainRequired
	}
	if !spec.HasTrain {
		req.TrainNumber = ""
	}

	day, err := inspectionDay(req.InspectionDate)
	if err != nil {
		return nil, false, err
	}

	coach, err := db.DB(ctx).GetCoach(ctx, req.CoachNumber)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, false, ErrUnknownCoach.Msg(req.CoachNumber)
		}
		return nil, false, err
	}

	lookup := models.SessionLookup{
		Module:         module,
		CoachNumber:    coach.CoachNumber,
		InspectionDate: day,
	}

	existing, err := db.DB(ctx).GetSessionByLookup(ctx, lookup)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, dberror.ErrNotFound) {
		return nil, false, err
	}

	status := inscommon.SessionStatusDraft
	if spec.SkipDraft {
		status = inscommon.SessionStatusInProgress
	}

	inspector := inscommon.GetInspector(ctx)
	if inspector == nil {
		return nil, false, ErrInvalidRequest.Msg("inspector identity is required")
	}

	created := &models.InspectionSession{
		Module:         module,
		CoachNumber:    coach.CoachNumber,
		TrainNumber:    req.TrainNumber,
		InspectionDate: day,
		Status:         status,
		InspectorID:    inspector.InspectorID,
		InspectorName:  inspector.Name,
	}

	err = db.DB(ctx).CreateSession(ctx, created)
	if err == nil {
		log.Ctx(ctx).Info().
			Str("module", string(module)).
			Str("coach", coach.CoachNumber).
			Msg("created inspection session")
		return created, true, nil
	}
	if !errors.Is(err, dberror.ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the race; the winner's row is the session.
	existing, err = db.DB(ctx).GetSessionByLookup(ctx, lookup)
	if err != nil {
		return nil, false, ErrUnableToGetSession.Err(err)
	}
	return existing, false, nil
}

// LookupSession finds the open session for a coach and day without creating
// one. The date defaults to today when empty.
func LookupSession(ctx context.Context, module inscommon.ModuleKind, coachNumber, date string) (*models.InspectionSession, apperrors.Error) {
	if _, ok := inscommon.GetModuleSpec(module); !ok {
		return nil, dberror.ErrInvalidModule.Msg(string(module))
	}
	if coachNumber == "" {
		return nil, ErrInvalidRequest.Msg("coach is required")
	}

	day, err := inspectionDay(date)
	if err != nil {
		return nil, err
	}

	return db.DB(ctx).GetSessionByLookup(ctx, models.SessionLookup{
		Module:         module,
		CoachNumber:    coachNumber,
		InspectionDate: day,
	})
}

// GetSession retrieves a session by its ID.
func GetSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*models.InspectionSession, apperrors.Error) {
	return db.DB(ctx).GetSession(ctx, module, sessionID)
}

// EnsureEditable verifies the session accepts writes, moving a DRAFT session
// to IN_PROGRESS on its first edit.
func EnsureEditable(ctx context.Context, session *models.InspectionSession) apperrors.Error {
	if session.Status.IsTerminal() {
		return models.ErrSessionLocked
	}
	if session.Status == inscommon.SessionStatusDraft {
		if err := db.DB(ctx).UpdateSessionStatus(ctx, session.Module, session.SessionID, inscommon.SessionStatusInProgress); err != nil {
			return err
		}
		session.Status = inscommon.SessionStatusInProgress
	}
	return nil
}

// SubmitSession moves a session to SUBMITTED. Submitting is final; a
// submitted or completed session cannot be submitted again.
func SubmitSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*models.InspectionSession, apperrors.Error) {
	return transition(ctx, module, sessionID, inscommon.SessionStatusSubmitted)
}

// CompleteSession moves a session to COMPLETED, the closing acknowledgement
// after submission review.
func CompleteSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*models.InspectionSession, apperrors.Error) {
	return transition(ctx, module, sessionID, inscommon.SessionStatusCompleted)
}

func transition(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, to inscommon.SessionStatus) (*models.InspectionSession, apperrors.Error) {
	session, err := db.DB(ctx).GetSession(ctx, module, sessionID)
	if err != nil {
		return nil, err
	}

	switch to {
	case inscommon.SessionStatusSubmitted:
		if session.Status.IsTerminal() {
			return nil, models.ErrSessionLocked
		}
	case inscommon.SessionStatusCompleted:
		if session.Status == inscommon.SessionStatusCompleted {
			return nil, ErrInvalidTransition.Msg("session is already completed")
		}
	default:
		return nil, ErrInvalidTransition.Msg(string(to))
	}

	if err := db.DB(ctx).UpdateSessionStatus(ctx, module, sessionID, to); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("module", string(module)).
		Str("session_id", sessionID.String()).
		Str("status", string(to)).
		Msg("session status changed")

	return db.DB(ctx).GetSession(ctx, module, sessionID)
}

func inspectionDay(s string) (time.Time, apperrors.Error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidRequest.Msg("inspectionDate must be YYYY-MM-DD")
	}
	return day, nil
}
