// Package inspection implements answer capture and defect resolution. Writes
// are patches: a request carries only the fields it changes, and the storage
// layer merges and validates the result inside one transaction. Autosave
// sends single answers; a checkpoint batches several and lands atomically.
package inspection

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
	"github.com/railcheck/railcheck/internal/inspectsrv/session"
)

// SaveAnswer applies one autosave write to a session.
func SaveAnswer(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, req *AnswerSaveRequest) (*models.InspectionAnswer, apperrors.Error) {
	saves, err := prepareSaves(ctx, module, sessionID, []AnswerSaveRequest{*req})
	if err != nil {
		return nil, err
	}

	answers, err := db.DB(ctx).UpsertAnswers(ctx, module, sessionID, saves)
	if err != nil {
		return nil, err
	}
	return answers[0], nil
}

// SaveCheckpoint applies a batch of writes atomically. Either every answer
// in the batch lands or none do. A successful checkpoint stamps the session's
// updated_at; autosaves do not.
func SaveCheckpoint(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, req *CheckpointRequest) ([]*models.InspectionAnswer, apperrors.Error) {
	if len(req.Answers) == 0 {
		return nil, ErrEmptyCheckpoint
	}

	saves, err := prepareSaves(ctx, module, sessionID, req.Answers)
	if err != nil {
		return nil, err
	}

	answers, err := db.DB(ctx).UpsertAnswers(ctx, module, sessionID, saves)
	if err != nil {
		return nil, err
	}

	if err := db.DB(ctx).TouchSession(ctx, module, sessionID); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("module", string(module)).
		Str("session_id", sessionID.String()).
		Int("answers", len(answers)).
		Msg("checkpoint saved")

	return answers, nil
}

// prepareSaves checks the session is editable and converts the requests into
// storage saves, resolving each question against the module's master.
func prepareSaves(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, reqs []AnswerSaveRequest) ([]models.AnswerSave, apperrors.Error) {
	spec, ok := inscommon.GetModuleSpec(module)
	if !ok || !spec.HasAnswers() {
		return nil, dberror.ErrInvalidModule.Msg(string(module))
	}

	sess, err := session.GetSession(ctx, module, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureEditable(ctx, sess); err != nil {
		return nil, err
	}

	saves := make([]models.AnswerSave, 0, len(reqs))
	for i := range reqs {
		save, err := buildSave(ctx, spec, sessionID, &reqs[i])
		if err != nil {
			return nil, err
		}
		saves = append(saves, save)
	}
	return saves, nil
}

func buildSave(ctx context.Context, spec inscommon.ModuleSpec, sessionID uuid.UUID, req *AnswerSaveRequest) (models.AnswerSave, apperrors.Error) {
	var save models.AnswerSave

	if err := V().Struct(req); err != nil {
		return save, ErrInvalidRequest.Msg(err.Error())
	}

	question, err := db.DB(ctx).GetQuestion(ctx, spec.Kind, req.QuestionID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return save, ErrUnknownQuestion.Msg(req.QuestionID)
		}
		return save, err
	}

	key, keyErr := buildKey(spec, sessionID, req)
	if keyErr != nil {
		return save, keyErr
	}

	patch, patchErr := buildPatch(req)
	if patchErr != nil {
		return save, patchErr
	}

	save.Key = key
	save.Patch = patch
	save.QuestionText = question.Text
	return save, nil
}

func buildKey(spec inscommon.ModuleSpec, sessionID uuid.UUID, req *AnswerSaveRequest) (models.AnswerKey, apperrors.Error) {
	if !spec.Compartmented {
		if req.Compartment != "" || req.SubcategoryID != "" || req.ActivityLevel != "" {
			return nil, ErrUnexpectedCompartment
		}
		return models.SimpleKey{Session: sessionID, Question: req.QuestionID}, nil
	}

	if req.Compartment == "" || req.SubcategoryID == "" || req.ActivityLevel == "" {
		return nil, ErrCompartmentRequired
	}
	level := inscommon.ActivityLevel(req.ActivityLevel)
	if !inscommon.IsValidActivityLevel(level) {
		return nil, ErrInvalidLevel.Msg(req.ActivityLevel)
	}

	return models.CompartmentedKey{
		Session:     sessionID,
		Question:    req.QuestionID,
		Compartment: req.Compartment,
		Subcategory: req.SubcategoryID,
		Level:       level,
	}, nil
}

func buildPatch(req *AnswerSaveRequest) (models.AnswerPatch, apperrors.Error) {
	var patch models.AnswerPatch

	if req.Status != nil {
		status := inscommon.AnswerStatus(*req.Status)
		if !inscommon.IsValidAnswerStatus(status) {
			return patch, ErrInvalidStatus.Msg(*req.Status)
		}
		patch.Status = &status
	}
	patch.Reasons = req.Reasons
	patch.Remark = req.Remark
	patch.PhotoURL = req.PhotoURL
	return patch, nil
}

// ListAnswers retrieves a session's answers, optionally narrowed to one
// compartment and activity level.
func ListAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, compartment string, level inscommon.ActivityLevel) ([]*models.InspectionAnswer, apperrors.Error) {
	if compartment != "" {
		if !inscommon.IsValidActivityLevel(level) {
			return nil, ErrInvalidLevel.Msg(string(level))
		}
		return db.DB(ctx).ListAreaAnswers(ctx, module, sessionID, compartment, level)
	}
	return db.DB(ctx).ListSessionAnswers(ctx, module, sessionID)
}

// ResolveDefect marks a deficiency as fixed by the calling inspector.
func ResolveDefect(ctx context.Context, module inscommon.ModuleKind, answerID uuid.UUID, req *ResolveRequest) (*models.InspectionAnswer, apperrors.Error) {
	if err := V().Struct(req); err != nil {
		return nil, models.ErrIncompleteResolution.Msg(err.Error())
	}

	inspector := inscommon.GetInspector(ctx)
	if inspector == nil {
		return nil, ErrInvalidRequest.Msg("inspector identity is required")
	}

	answer, err := db.DB(ctx).ResolveAnswer(ctx, module, answerID, inspector.InspectorID, req.Remark, req.AfterPhotoURL)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("module", string(module)).
		Str("answer_id", answerID.String()).
		Msg("deficiency resolved")

	return answer, nil
}

// ListPendingDefects retrieves the module's unresolved deficiencies,
// optionally narrowed to one session, coach, compartment or subcategory.
func ListPendingDefects(ctx context.Context, module inscommon.ModuleKind, filter models.DefectFilter) ([]*models.InspectionAnswer, apperrors.Error) {
	spec, ok := inscommon.GetModuleSpec(module)
	if !ok || !spec.HasAnswers() {
		return nil, dberror.ErrInvalidModule.Msg(string(module))
	}
	if !spec.Compartmented && (filter.Compartment != "" || filter.SubcategoryID != "") {
		return nil, ErrUnexpectedCompartment
	}
	return db.DB(ctx).ListPendingDefects(ctx, module, filter)
}
