package postgresql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgtype"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Each module keeps its own session and answer tables. The ModuleSpec
// registry supplies the table names and the shape flags; the helpers here
// turn those into column lists and key predicates so every manager method
// can stay generic across modules.

func moduleSpec(kind inscommon.ModuleKind) (inscommon.ModuleSpec, apperrors.Error) {
	spec, ok := inscommon.GetModuleSpec(kind)
	if !ok {
		return inscommon.ModuleSpec{}, dberror.ErrInvalidModule.Msg(string(kind))
	}
	return spec, nil
}

func answerSpec(kind inscommon.ModuleKind) (inscommon.ModuleSpec, apperrors.Error) {
	spec, err := moduleSpec(kind)
	if err != nil {
		return spec, err
	}
	if !spec.HasAnswers() {
		return spec, dberror.ErrInvalidModule.Msg(fmt.Sprintf("module %s records no answers", kind))
	}
	return spec, nil
}

// sessionColumns returns the select list for a module's session table.
func sessionColumns(spec inscommon.ModuleSpec) string {
	cols := []string{"session_id", "depot_id", "coach_number"}
	if spec.HasTrain {
		cols = append(cols, "train_number")
	}
	cols = append(cols, "inspection_date", "status", "inspector_id", "inspector_name",
		"created_at", "updated_at", "submitted_at")
	return strings.Join(cols, ", ")
}

func sessionScanDest(spec inscommon.ModuleSpec, s *models.InspectionSession) []any {
	dest := []any{&s.SessionID, &s.DepotID, &s.CoachNumber}
	if spec.HasTrain {
		dest = append(dest, &s.TrainNumber)
	}
	dest = append(dest, &s.InspectionDate, &s.Status, &s.InspectorID, &s.InspectorName,
		&s.CreatedAt, &s.UpdatedAt, &s.SubmittedAt)
	return dest
}

// answerColumns returns the select list for a module's answer table.
func answerColumns(spec inscommon.ModuleSpec) string {
	cols := []string{"answer_id", "session_id", "depot_id", "question_id", "question_text"}
	if spec.Compartmented {
		cols = append(cols, "compartment", "subcategory_id", "activity_level")
	}
	cols = append(cols, "status", "reasons", "remark", "photo_url",
		"resolved", "resolved_by", "resolved_remark", "after_photo_url", "resolved_at",
		"created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func answerScanDest(spec inscommon.ModuleSpec, a *models.InspectionAnswer, reasons *pgtype.JSONB) []any {
	dest := []any{&a.AnswerID, &a.SessionID, &a.DepotID, &a.QuestionID, &a.QuestionText}
	if spec.Compartmented {
		dest = append(dest, &a.Compartment, &a.SubcategoryID, &a.ActivityLevel)
	}
	dest = append(dest, &a.Status, reasons, &a.Remark, &a.PhotoURL,
		&a.Resolved, &a.ResolvedBy, &a.ResolvedRemark, &a.AfterPhotoURL, &a.ResolvedAt,
		&a.CreatedAt, &a.UpdatedAt)
	return dest
}

func assignReasons(a *models.InspectionAnswer, reasons pgtype.JSONB) apperrors.Error {
	a.Reasons = nil
	if reasons.Status != pgtype.Present || len(reasons.Bytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(reasons.Bytes, &a.Reasons); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func reasonsParam(reasons []string) (pgtype.JSONB, apperrors.Error) {
	var j pgtype.JSONB
	if reasons == nil {
		reasons = []string{}
	}
	if err := j.Set(reasons); err != nil {
		return j, dberror.ErrDatabase.Err(err)
	}
	return j, nil
}

// keyPredicate builds the WHERE fragment that identifies one answer within a
// session. Placeholders start at $1; the caller appends its own conditions
// after the returned args.
func keyPredicate(spec inscommon.ModuleSpec, key models.AnswerKey) (string, []any, apperrors.Error) {
	switch k := key.(type) {
	case models.SimpleKey:
		if spec.Compartmented {
			return "", nil, dberror.ErrInvalidInput.Msg(fmt.Sprintf("module %s requires a compartmented answer key", spec.Kind))
		}
		return "session_id = $1 AND question_id = $2", []any{k.Session, k.Question}, nil
	case models.CompartmentedKey:
		if !spec.Compartmented {
			return "", nil, dberror.ErrInvalidInput.Msg(fmt.Sprintf("module %s uses a simple answer key", spec.Kind))
		}
		return "session_id = $1 AND question_id = $2 AND compartment = $3 AND subcategory_id = $4 AND activity_level = $5",
			[]any{k.Session, k.Question, k.Compartment, k.Subcategory, k.Level}, nil
	default:
		return "", nil, dberror.ErrInvalidInput.Msg("unknown answer key type")
	}
}
