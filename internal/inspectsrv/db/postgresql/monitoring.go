package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// The monitoring queries read one module table at a time. The cross-module
// merge happens above this layer, so a broken module table degrades that
// module's slice of the feed without failing the rest.

// sessionConds builds the WHERE conditions for session-table feed queries.
// prefix qualifies column names when the query joins tables.
func sessionConds(filter models.FeedFilter, depotID inscommon.DepotId, prefix string) ([]string, []any) {
	conds := []string{prefix + "depot_id = $1"}
	args := []any{depotID}
	if filter.CoachNumber != "" {
		conds = append(conds, fmt.Sprintf("%scoach_number = $%d", prefix, len(args)+1))
		args = append(args, filter.CoachNumber)
	}
	if filter.InspectorID != "" {
		conds = append(conds, fmt.Sprintf("%sinspector_id = $%d", prefix, len(args)+1))
		args = append(args, filter.InspectorID)
	}
	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("%sstatus = $%d", prefix, len(args)+1))
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conds = append(conds, fmt.Sprintf("%screated_at >= $%d", prefix, len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, fmt.Sprintf("%screated_at < $%d", prefix, len(args)+1))
		args = append(args, filter.To)
	}
	return conds, args
}

// defectConds builds the WHERE conditions for answer-table feed queries,
// which join the session table as s for coach and inspector filtering.
func defectConds(filter models.FeedFilter, depotID inscommon.DepotId) ([]string, []any) {
	conds := []string{"a.depot_id = $1", "a.status = 'DEFICIENCY'"}
	args := []any{depotID}
	if filter.CoachNumber != "" {
		conds = append(conds, fmt.Sprintf("s.coach_number = $%d", len(args)+1))
		args = append(args, filter.CoachNumber)
	}
	if filter.InspectorID != "" {
		conds = append(conds, fmt.Sprintf("s.inspector_id = $%d", len(args)+1))
		args = append(args, filter.InspectorID)
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			conds = append(conds, "a.resolved")
		} else {
			conds = append(conds, "NOT a.resolved")
		}
	}
	if !filter.From.IsZero() {
		conds = append(conds, fmt.Sprintf("a.created_at >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, fmt.Sprintf("a.created_at < $%d", len(args)+1))
		args = append(args, filter.To)
	}
	return conds, args
}

// ListSessionFeed retrieves one module's slice of the unified session feed,
// newest first, at most window rows.
func (qm *monitoringManager) ListSessionFeed(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter, window int) ([]models.SessionFeedRow, apperrors.Error) {
	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	trainCol := "''"
	if spec.HasTrain {
		trainCol = "train_number"
	}

	conds, args := sessionConds(filter, depotID, "")
	args = append(args, window)

	query := fmt.Sprintf(`
		SELECT session_id, coach_number, %s, inspection_date, status, inspector_name, created_at, updated_at
		FROM %s
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d
	`, trainCol, spec.SessionTable, strings.Join(conds, " AND "), len(args))

	rows, err := qm.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []models.SessionFeedRow
	for rows.Next() {
		row := models.SessionFeedRow{Module: module}
		err := rows.Scan(&row.SessionID, &row.CoachNumber, &row.TrainNumber,
			&row.InspectionDate, &row.Status, &row.InspectorName, &row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan session feed row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// ListDefectFeed retrieves one module's slice of the deficiency feed, newest
// first, at most window rows.
func (qm *monitoringManager) ListDefectFeed(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter, window int) ([]models.DefectFeedRow, apperrors.Error) {
	spec, apperr := answerSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	conds, args := defectConds(filter, depotID)
	args = append(args, window)

	query := fmt.Sprintf(`
		SELECT a.answer_id, a.session_id, s.coach_number, a.question_text, a.remark,
			a.photo_url, a.resolved, a.after_photo_url, a.resolved_at, a.created_at, a.updated_at
		FROM %s a
		JOIN %s s ON s.session_id = a.session_id AND s.depot_id = a.depot_id
		WHERE %s
		ORDER BY a.created_at DESC
		LIMIT $%d
	`, spec.AnswerTable, spec.SessionTable, strings.Join(conds, " AND "), len(args))

	rows, err := qm.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []models.DefectFeedRow
	for rows.Next() {
		row := models.DefectFeedRow{Module: module}
		err := rows.Scan(&row.AnswerID, &row.SessionID, &row.CoachNumber, &row.QuestionText,
			&row.Remark, &row.PhotoURL, &row.Resolved, &row.AfterPhotoURL, &row.ResolvedAt,
			&row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan defect feed row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}

// CountSessions tallies one module's sessions by status.
func (qm *monitoringManager) CountSessions(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter) (models.ModuleSessionCounts, apperrors.Error) {
	counts := models.ModuleSessionCounts{Module: module}

	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return counts, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return counts, dberror.ErrMissingDepotID
	}

	conds, args := sessionConds(filter, depotID, "")

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'DRAFT'),
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
			COUNT(*) FILTER (WHERE status = 'SUBMITTED'),
			COUNT(*) FILTER (WHERE status = 'COMPLETED')
		FROM %s
		WHERE %s
	`, spec.SessionTable, strings.Join(conds, " AND "))

	err := qm.conn().QueryRowContext(ctx, query, args...).
		Scan(&counts.Total, &counts.Draft, &counts.Active, &counts.Submitted, &counts.Completed)
	if err != nil {
		return counts, dberror.ErrDatabase.Err(err)
	}

	return counts, nil
}

// CountDefects tallies one module's deficiencies.
func (qm *monitoringManager) CountDefects(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter) (models.DefectCounts, apperrors.Error) {
	var counts models.DefectCounts

	spec, apperr := answerSpec(module)
	if apperr != nil {
		return counts, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return counts, dberror.ErrMissingDepotID
	}

	conds, args := defectConds(filter, depotID)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE a.resolved),
			COUNT(*) FILTER (WHERE NOT a.resolved)
		FROM %s a
		JOIN %s s ON s.session_id = a.session_id AND s.depot_id = a.depot_id
		WHERE %s
	`, spec.AnswerTable, spec.SessionTable, strings.Join(conds, " AND "))

	err := qm.conn().QueryRowContext(ctx, query, args...).
		Scan(&counts.Total, &counts.Resolved, &counts.Pending)
	if err != nil {
		return counts, dberror.ErrDatabase.Err(err)
	}

	return counts, nil
}

// SubmissionTrend tallies one module's submissions per day over the trailing
// window. Days without submissions are absent; the aggregator above fills
// them in.
func (qm *monitoringManager) SubmissionTrend(ctx context.Context, module inscommon.ModuleKind, days int) ([]models.DayCount, apperrors.Error) {
	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return nil, apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return nil, dberror.ErrMissingDepotID
	}

	query := fmt.Sprintf(`
		SELECT date_trunc('day', submitted_at) AS day, COUNT(*)
		FROM %s
		WHERE depot_id = $1
			AND submitted_at IS NOT NULL
			AND submitted_at >= NOW() - ($2 || ' days')::interval
		GROUP BY day
		ORDER BY day
	`, spec.SessionTable)

	rows, err := qm.conn().QueryContext(ctx, query, depotID, days)
	if err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var result []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to scan trend row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, dc)
	}

	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}

	return result, nil
}
