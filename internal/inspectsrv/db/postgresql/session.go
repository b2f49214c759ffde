package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dberror"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// CreateSession inserts a new session row into the module's session table.
// A partial unique index on (depot_id, coach_number, inspection_date) over
// non-terminal rows makes concurrent get-or-create calls collapse onto one
// row; the loser gets ErrAlreadyExists and re-fetches.
func (sm *sessionManager) CreateSession(ctx context.Context, session *models.InspectionSession) apperrors.Error {
	spec, apperr := moduleSpec(session.Module)
	if apperr != nil {
		return apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}
	session.DepotID = depotID

	if session.SessionID == uuid.Nil {
		session.SessionID = uuid.New()
	}

	cols := []string{"session_id", "depot_id", "coach_number"}
	args := []any{session.SessionID, session.DepotID, session.CoachNumber}
	if spec.HasTrain {
		cols = append(cols, "train_number")
		args = append(args, session.TrainNumber)
	}
	cols = append(cols, "inspection_date", "status", "inspector_id", "inspector_name")
	args = append(args, session.InspectionDate, session.Status, session.InspectorID, session.InspectorName)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING created_at, updated_at
	`, spec.SessionTable, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	err := sm.conn().QueryRowContext(ctx, query, args...).
		Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("session already exists for this coach and day")
		}
		log.Ctx(ctx).Error().Err(err).Str("module", string(session.Module)).Msg("failed to insert session")
		return dberror.ErrDatabase.Err(err)
	}

	return nil
}

// GetSession retrieves a session by its ID from the module's session table.
func (sm *sessionManager) GetSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*models.InspectionSession, apperrors.Error) {
	spec, apperr := moduleSpec(module)
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
		WHERE depot_id = $1 AND session_id = $2
	`, sessionColumns(spec), spec.SessionTable)

	session := models.InspectionSession{Module: module}
	err := sm.conn().QueryRowContext(ctx, query, depotID, sessionID).
		Scan(sessionScanDest(spec, &session)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("session not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}

	return &session, nil
}

// GetSessionByLookup retrieves the open session for a coach and day, or
// ErrNotFound when none is in flight. Terminal sessions never match; once a
// session is submitted, get-or-create starts a fresh one. The inspection
// date is compared by day.
func (sm *sessionManager) GetSessionByLookup(ctx context.Context, lookup models.SessionLookup) (*models.InspectionSession, apperrors.Error) {
	spec, apperr := moduleSpec(lookup.Module)
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
		WHERE depot_id = $1 AND coach_number = $2 AND inspection_date = $3::date
			AND status NOT IN ('SUBMITTED', 'COMPLETED')
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionColumns(spec), spec.SessionTable)

	args := []any{depotID, lookup.CoachNumber, lookup.InspectionDate}

	session := models.InspectionSession{Module: lookup.Module}
	err := sm.conn().QueryRowContext(ctx, query, args...).
		Scan(sessionScanDest(spec, &session)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("session not found")
		}
		return nil, dberror.ErrDatabase.Err(err)
	}

	return &session, nil
}

// UpdateSessionStatus moves a session to the given status. The first move
// into a terminal status stamps submitted_at.
func (sm *sessionManager) UpdateSessionStatus(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, status inscommon.SessionStatus) apperrors.Error {
	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}
	if !inscommon.IsValidSessionStatus(status) {
		return dberror.ErrInvalidInput.Msg(fmt.Sprintf("invalid session status: %s", status))
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET
			status = $3,
			submitted_at = CASE
				WHEN $3 IN ('SUBMITTED', 'COMPLETED') AND submitted_at IS NULL THEN NOW()
				ELSE submitted_at
			END,
			updated_at = NOW()
		WHERE depot_id = $1 AND session_id = $2
	`, spec.SessionTable)

	result, err := sm.conn().ExecContext(ctx, query, depotID, sessionID, status)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to update session status")
		return dberror.ErrDatabase.Err(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("session not found")
	}

	return nil
}

// DeleteSession deletes a session by its ID. Answer rows go with it through
// the foreign key cascade.
func (sm *sessionManager) DeleteSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) apperrors.Error {
	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE depot_id = $1 AND session_id = $2
	`, spec.SessionTable)

	result, err := sm.conn().ExecContext(ctx, query, depotID, sessionID)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("session not found")
	}

	return nil
}

// TouchSession bumps a session's updated_at. The checkpoint path uses it to
// record the last explicit save; autosaves leave the session row alone.
func (sm *sessionManager) TouchSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) apperrors.Error {
	spec, apperr := moduleSpec(module)
	if apperr != nil {
		return apperr
	}
	depotID := inscommon.GetDepotID(ctx)
	if depotID == "" {
		return dberror.ErrMissingDepotID
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = NOW()
		WHERE depot_id = $1 AND session_id = $2
	`, spec.SessionTable)

	result, err := sm.conn().ExecContext(ctx, query, depotID, sessionID)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("session not found")
	}

	return nil
}
