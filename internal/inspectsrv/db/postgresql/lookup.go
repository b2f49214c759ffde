package postgresql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// ListQuestions retrieves the active question master of a module in
// checklist order.
func (lm *lookupManager) ListQuestions(ctx context.Context, module inscommon.ModuleKind) ([]*models.Question, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}

	query := `
		SELECT question_id, module, subcategory_id, question_text, seq, active
		FROM questions
		WHERE module = $1 AND active
		ORDER BY subcategory_id, seq
	`

	rows, err := lm.conn().QueryContext(ctx, query, spec.Kind)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []*models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.QuestionID, &q.Module, &q.SubcategoryID, &q.Text, &q.Seq, &q.Active); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan question row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// GetQuestion retrieves one question of a module's master.
func (lm *lookupManager) GetQuestion(ctx context.Context, module inscommon.ModuleKind, questionID string) (*models.Question, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}

	query := `
		SELECT question_id, module, subcategory_id, question_text, seq, active
		FROM questions
		WHERE module = $1 AND question_id = $2
	`

	var q models.Question
	err := lm.conn().QueryRowContext(ctx, query, spec.Kind, questionID).
		Scan(&q.QuestionID, &q.Module, &q.SubcategoryID, &q.Text, &q.Seq, &q.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("question not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}

	return &q, nil
}

// ListSubcategories retrieves the subcategories of a module's checklist.
func (lm *lookupManager) ListSubcategories(ctx context.Context, module inscommon.ModuleKind) ([]*models.Subcategory, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}

	query := `
		SELECT subcategory_id, module, name, seq
		FROM subcategories
		WHERE module = $1
		ORDER BY seq
	`

	rows, err := lm.conn().QueryContext(ctx, query, spec.Kind)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []*models.Subcategory
	for rows.Next() {
		var sc models.Subcategory
		if err := rows.Scan(&sc.SubcategoryID, &sc.Module, &sc.Name, &sc.Seq); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan subcategory row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, &sc)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// GetCoach retrieves one coach of the depot's fleet.
func (lm *lookupManager) GetCoach(ctx context.Context, coachNumber string) (*models.Coach, apperrors.Error) {
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	query := `
		SELECT coach_number, depot_id, coach_type, compartments, active, created_at
		FROM coaches
		WHERE depot_id = $1 AND coach_number = $2
	`

	var c models.Coach
	err := lm.conn().QueryRowContext(ctx, query, depotID, coachNumber).
		Scan(&c.CoachNumber, &c.DepotID, &c.CoachType, pq.Array(&c.Compartments), &c.Active, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("coach not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}

	return &c, nil
}

// ListCoaches retrieves the depot's active coaches.
func (lm *lookupManager) ListCoaches(ctx context.Context) ([]*models.Coach, apperrors.Error) {
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	query := `
		SELECT coach_number, depot_id, coach_type, compartments, active, created_at
		FROM coaches
		WHERE depot_id = $1 AND active
		ORDER BY coach_number
	`

	rows, err := lm.conn().QueryContext(ctx, query, depotID)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []*models.Coach
	for rows.Next() {
		var c models.Coach
		if err := rows.Scan(&c.CoachNumber, &c.DepotID, &c.CoachType, pq.Array(&c.Compartments), &c.Active, &c.CreatedAt); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan coach row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// CreateCoach adds a coach to the depot's fleet.
func (lm *lookupManager) CreateCoach(ctx context.Context, coach *models.Coach) apperrors.Error {
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}
	coach.DepotID = depotID

	query := `
		INSERT INTO coaches (coach_number, depot_id, coach_type, compartments, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := lm.conn().QueryRowContext(ctx, query,
		coach.CoachNumber, coach.DepotID, coach.CoachType, pq.Array(coach.Compartments), coach.Active).
		Scan(&coach.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("coach already exists")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to insert coach")
		return dberror.ErrDatabase.Err(err)
	}

	return nil
}

// DeleteCoach removes a coach from the depot's fleet.
func (lm *lookupManager) DeleteCoach(ctx context.Context, coachNumber string) apperrors.Error {
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}

	result, err := lm.conn().ExecContext(ctx,
		`DELETE FROM coaches WHERE depot_id = $1 AND coach_number = $2`, depotID, coachNumber)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("coach not found")
	}

	return nil
}

// CreateQuestion adds a question to a module's master.
func (lm *lookupManager) CreateQuestion(ctx context.Context, question *models.Question) apperrors.Error {
	if _, apperr := answerSpec(question.Module); apperr != nil {
		return apperr
	}

	query := `
		INSERT INTO questions (question_id, module, subcategory_id, question_text, seq, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := lm.conn().ExecContext(ctx, query,
		question.QuestionID, question.Module, question.SubcategoryID, question.Text, question.Seq, question.Active)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("question already exists")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to insert question")
		return dberror.ErrDatabase.Err(err)
	}

	return nil
}

// DeleteQuestion removes a question from a module's master.
func (lm *lookupManager) DeleteQuestion(ctx context.Context, module inscommon.ModuleKind, questionID string) apperrors.Error {
	if _, apperr := answerSpec(module); apperr != nil {
		return apperr
	}

	result, err := lm.conn().ExecContext(ctx,
		`DELETE FROM questions WHERE module = $1 AND question_id = $2`, module, questionID)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("question not found")
	}

	return nil
}
