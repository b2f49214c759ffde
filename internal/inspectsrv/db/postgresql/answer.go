package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// UpsertAnswers applies a batch of answer patches inside one transaction.
// Each target row is locked, merged with its patch and validated before the
// write, so a DEFICIENCY can never be stored without its evidence no matter
// how writes interleave. Any failure rolls the whole batch back. The session
// row is locked first; a submitted session rejects the batch with
// ErrSessionLocked. The session's own timestamp is not bumped here; the
// checkpoint path records the save time via TouchSession.
func (am *answerManager) UpsertAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, saves []models.AnswerSave) (result []*models.InspectionAnswer, err apperrors.Error) {
	spec, err := answerSpec(module)
	if err != nil {
		return nil, err
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}
	for _, save := range saves {
		if save.Key == nil || save.Key.SessionID() != sessionID {
			return nil, dberror.ErrInvalidInput.Msg("answer key does not belong to the session")
		}
	}

	tx, errStd := am.conn().BeginTx(ctx, nil)
	if errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to begin transaction")
		return nil, dberror.ErrDatabase.Err(errStd)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = lockSession(ctx, tx, spec, depotID, sessionID); err != nil {
		return nil, err
	}

	for _, save := range saves {
		var answer *models.InspectionAnswer
		answer, err = am.upsertAnswerWithTransaction(ctx, tx, spec, depotID, save)
		if err != nil {
			return nil, err
		}
		result = append(result, answer)
	}

	if errStd := tx.Commit(); errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to commit transaction")
		err = dberror.ErrDatabase.Err(errStd)
		return nil, err
	}

	return result, nil
}

// lockSession takes a row lock on the session and verifies it is editable.
func lockSession(ctx context.Context, tx *sql.Tx, spec inscommon.ModuleSpec, depotID inscommon.DepotId, sessionID uuid.UUID) apperrors.Error {
	query := fmt.Sprintf(`
		SELECT status FROM %s
		WHERE depot_id = $1 AND session_id = $2
		FOR UPDATE
	`, spec.SessionTable)

	var status inscommon.SessionStatus
	if err := tx.QueryRowContext(ctx, query, depotID, sessionID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("session not found")
		}
		return dberror.ErrDatabase.Err(err)
	}
	if status.IsTerminal() {
		return models.ErrSessionLocked
	}
	return nil
}

// upsertAnswerWithTransaction locks, merges and validates one answer row.
func (am *answerManager) upsertAnswerWithTransaction(ctx context.Context, tx *sql.Tx, spec inscommon.ModuleSpec, depotID inscommon.DepotId, save models.AnswerSave) (*models.InspectionAnswer, apperrors.Error) {
	predicate, args, apperr := keyPredicate(spec, save.Key)
	if apperr != nil {
		return nil, apperr
	}
	args = append(args, depotID)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s AND depot_id = $%d
		FOR UPDATE
	`, answerColumns(spec), spec.AnswerTable, predicate, len(args))

	answer := models.InspectionAnswer{Module: spec.Kind}
	var reasons pgtype.JSONB
	errStd := tx.QueryRowContext(ctx, query, args...).
		Scan(answerScanDest(spec, &answer, &reasons)...)

	switch {
	case errStd == sql.ErrNoRows:
		fresh := models.NewAnswerFromPatch(save.Key, save.Patch, save.QuestionText)
		fresh.Module = spec.Kind
		fresh.DepotID = depotID
		if missing := models.MissingDeficiencyFields(fresh); len(missing) > 0 {
			return nil, models.ErrIncompleteDeficiency.Msg("missing: " + strings.Join(missing, ", "))
		}
		if apperr := insertAnswer(ctx, tx, spec, fresh); apperr != nil {
			return nil, apperr
		}
		return fresh, nil
	case errStd != nil:
		return nil, dberror.ErrDatabase.Err(errStd)
	}

	if apperr := assignReasons(&answer, reasons); apperr != nil {
		return nil, apperr
	}
	if save.QuestionText != "" {
		answer.QuestionText = save.QuestionText
	}
	models.ApplyPatch(&answer, save.Patch)
	if missing := models.MissingDeficiencyFields(&answer); len(missing) > 0 {
		return nil, models.ErrIncompleteDeficiency.Msg("missing: " + strings.Join(missing, ", "))
	}
	if apperr := updateAnswer(ctx, tx, spec, &answer); apperr != nil {
		return nil, apperr
	}
	return &answer, nil
}

func insertAnswer(ctx context.Context, tx *sql.Tx, spec inscommon.ModuleSpec, a *models.InspectionAnswer) apperrors.Error {
	reasons, apperr := reasonsParam(a.Reasons)
	if apperr != nil {
		return apperr
	}

	cols := []string{"answer_id", "session_id", "depot_id", "question_id", "question_text"}
	args := []any{a.AnswerID, a.SessionID, a.DepotID, a.QuestionID, a.QuestionText}
	if spec.Compartmented {
		cols = append(cols, "compartment", "subcategory_id", "activity_level")
		args = append(args, a.Compartment, a.SubcategoryID, a.ActivityLevel)
	}
	cols = append(cols, "status", "reasons", "remark", "photo_url")
	args = append(args, a.Status, reasons, a.Remark, a.PhotoURL)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING created_at, updated_at
	`, spec.AnswerTable, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("question_id", a.QuestionID).Msg("failed to insert answer")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func updateAnswer(ctx context.Context, tx *sql.Tx, spec inscommon.ModuleSpec, a *models.InspectionAnswer) apperrors.Error {
	reasons, apperr := reasonsParam(a.Reasons)
	if apperr != nil {
		return apperr
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET
			question_text = $3,
			status = $4,
			reasons = $5,
			remark = $6,
			photo_url = $7,
			updated_at = NOW()
		WHERE depot_id = $1 AND answer_id = $2
		RETURNING updated_at
	`, spec.AnswerTable)

	err := tx.QueryRowContext(ctx, query,
		a.DepotID, a.AnswerID, a.QuestionText, a.Status, reasons, a.Remark, a.PhotoURL).
		Scan(&a.UpdatedAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("question_id", a.QuestionID).Msg("failed to update answer")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetAnswerByID retrieves an answer by its ID.
func (am *answerManager) GetAnswerByID(ctx context.Context, module inscommon.ModuleKind, answerID uuid.UUID) (*models.InspectionAnswer, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE depot_id = $1 AND answer_id = $2
	`, answerColumns(spec), spec.AnswerTable)

	answer := models.InspectionAnswer{Module: module}
	var reasons pgtype.JSONB
	err := am.conn().QueryRowContext(ctx, query, depotID, answerID).
		Scan(answerScanDest(spec, &answer, &reasons)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("answer not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}
	if apperr := assignReasons(&answer, reasons); apperr != nil {
		return nil, apperr
	}

	return &answer, nil
}

// GetAnswerByKey retrieves an answer by its logical key.
func (am *answerManager) GetAnswerByKey(ctx context.Context, module inscommon.ModuleKind, key models.AnswerKey) (*models.InspectionAnswer, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	predicate, args, apperr := keyPredicate(spec, key)
	if apperr != nil {
		return nil, apperr
	}
	args = append(args, depotID)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s AND depot_id = $%d
	`, answerColumns(spec), spec.AnswerTable, predicate, len(args))

	answer := models.InspectionAnswer{Module: module}
	var reasons pgtype.JSONB
	err := am.conn().QueryRowContext(ctx, query, args...).
		Scan(answerScanDest(spec, &answer, &reasons)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("answer not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}
	if apperr := assignReasons(&answer, reasons); apperr != nil {
		return nil, apperr
	}

	return &answer, nil
}

// ListSessionAnswers retrieves all answers of a session in checklist order.
func (am *answerManager) ListSessionAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) ([]*models.InspectionAnswer, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	order := "question_id"
	if spec.Compartmented {
		order = "compartment, subcategory_id, question_id"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE depot_id = $1 AND session_id = $2
		ORDER BY %s
	`, answerColumns(spec), spec.AnswerTable, order)

	return am.queryAnswers(ctx, spec, query, depotID, sessionID)
}

// ListAreaAnswers retrieves the answers of one compartment and activity level
// within a session. Only compartmented modules have areas.
func (am *answerManager) ListAreaAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, compartment string, level inscommon.ActivityLevel) ([]*models.InspectionAnswer, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	if !spec.Compartmented {
		return nil, dberror.ErrInvalidInput.Msg(fmt.Sprintf("module %s has no compartments", module))
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE depot_id = $1 AND session_id = $2 AND compartment = $3 AND activity_level = $4
		ORDER BY subcategory_id, question_id
	`, answerColumns(spec), spec.AnswerTable)

	return am.queryAnswers(ctx, spec, query, depotID, sessionID, compartment, level)
}

// ListPendingDefects retrieves unresolved deficiencies for the module, newest
// first. Zero filter fields match everything; compartment and subcategory
// filters only apply to compartmented modules.
func (am *answerManager) ListPendingDefects(ctx context.Context, module inscommon.ModuleKind, filter models.DefectFilter) ([]*models.InspectionAnswer, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	if !spec.Compartmented && (filter.Compartment != "" || filter.SubcategoryID != "") {
		return nil, dberror.ErrInvalidInput.Msg(fmt.Sprintf("module %s has no compartments", module))
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	cols := answerColumns(spec)
	prefixed := "a." + strings.ReplaceAll(cols, ", ", ", a.")

	conds := []string{"a.depot_id = $1", "a.status = 'DEFICIENCY'", "NOT a.resolved"}
	args := []any{depotID}
	if filter.SessionID != uuid.Nil {
		conds = append(conds, fmt.Sprintf("a.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.CoachNumber != "" {
		conds = append(conds, fmt.Sprintf("s.coach_number = $%d", len(args)+1))
		args = append(args, filter.CoachNumber)
	}
	if filter.Compartment != "" {
		conds = append(conds, fmt.Sprintf("a.compartment = $%d", len(args)+1))
		args = append(args, filter.Compartment)
	}
	if filter.SubcategoryID != "" {
		conds = append(conds, fmt.Sprintf("a.subcategory_id = $%d", len(args)+1))
		args = append(args, filter.SubcategoryID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s a
		JOIN %s s ON s.session_id = a.session_id AND s.depot_id = a.depot_id
		WHERE %s
		ORDER BY a.updated_at DESC
	`, prefixed, spec.AnswerTable, spec.SessionTable, strings.Join(conds, " AND "))

	return am.queryAnswers(ctx, spec, query, args...)
}

func (am *answerManager) queryAnswers(ctx context.Context, spec inscommon.ModuleSpec, query string, args ...any) ([]*models.InspectionAnswer, apperrors.Error) {
	rows, err := am.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []*models.InspectionAnswer
	for rows.Next() {
		answer := models.InspectionAnswer{Module: spec.Kind}
		var reasons pgtype.JSONB
		if err := rows.Scan(answerScanDest(spec, &answer, &reasons)...); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan answer row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		if apperr := assignReasons(&answer, reasons); apperr != nil {
			return nil, apperr
		}
		result = append(result, &answer)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// ResolveAnswer marks a deficiency as fixed. The parent session is locked
// first, then the answer row, and both are checked inside the transaction, so
// a concurrent autosave or submit cannot slip between the check and the
// write. A submitted session rejects the resolve with ErrSessionLocked.
// Resolution is one way; a resolved deficiency stays resolved.
func (am *answerManager) ResolveAnswer(ctx context.Context, module inscommon.ModuleKind, answerID uuid.UUID, resolvedBy inscommon.InspectorId, remark, afterPhotoURL string) (answer *models.InspectionAnswer, err apperrors.Error) {
	spec, err := answerSpec(module)
	if err != nil {
		return nil, err
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}
	if afterPhotoURL == "" {
		return nil, models.ErrIncompleteResolution
	}

	tx, errStd := am.conn().BeginTx(ctx, nil)
	if errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to begin transaction")
		return nil, dberror.ErrDatabase.Err(errStd)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Resolve the parent session before taking any row locks so the lock
	// order matches UpsertAnswers: session first, then answers.
	var sessionID uuid.UUID
	sessionQuery := fmt.Sprintf(`
		SELECT session_id FROM %s
		WHERE depot_id = $1 AND answer_id = $2
	`, spec.AnswerTable)
	if errStd := tx.QueryRowContext(ctx, sessionQuery, depotID, answerID).Scan(&sessionID); errStd != nil {
		if errStd == sql.ErrNoRows {
			err = dberror.ErrNotFound.Msg("answer not found")
		} else {
			err = dberror.ErrDatabase.Err(errStd)
		}
		return nil, err
	}
	if err = lockSession(ctx, tx, spec, depotID, sessionID); err != nil {
		return nil, err
	}

	lockQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE depot_id = $1 AND answer_id = $2
		FOR UPDATE
	`, answerColumns(spec), spec.AnswerTable)

	a := models.InspectionAnswer{Module: module}
	var reasons pgtype.JSONB
	errStd = tx.QueryRowContext(ctx, lockQuery, depotID, answerID).
		Scan(answerScanDest(spec, &a, &reasons)...)
	if errStd != nil {
		if errStd == sql.ErrNoRows {
			err = dberror.ErrNotFound.Msg("answer not found")
		} else {
			err = dberror.ErrDatabase.Err(errStd)
		}
		return nil, err
	}
	if err = assignReasons(&a, reasons); err != nil {
		return nil, err
	}

	if a.Status != inscommon.AnswerStatusDeficiency {
		err = models.ErrNotDeficiency
		return nil, err
	}
	if a.Resolved {
		err = models.ErrAlreadyResolved
		return nil, err
	}

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET
			resolved = TRUE,
			resolved_by = $3,
			resolved_remark = $4,
			after_photo_url = $5,
			resolved_at = NOW(),
			updated_at = NOW()
		WHERE depot_id = $1 AND answer_id = $2
		RETURNING resolved_at, updated_at
	`, spec.AnswerTable)

	errStd = tx.QueryRowContext(ctx, updateQuery, depotID, answerID, resolvedBy, remark, afterPhotoURL).
		Scan(&a.ResolvedAt, &a.UpdatedAt)
	if errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to resolve answer")
		err = dberror.ErrDatabase.Err(errStd)
		return nil, err
	}

	a.Resolved = true
	a.ResolvedBy = resolvedBy
	a.ResolvedRemark = remark
	a.AfterPhotoURL = afterPhotoURL

	if errStd := tx.Commit(); errStd != nil {
		log.Ctx(ctx).Error().Err(errStd).Msg("failed to commit transaction")
		err = dberror.ErrDatabase.Err(errStd)
		return nil, err
	}

	return &a, nil
}
