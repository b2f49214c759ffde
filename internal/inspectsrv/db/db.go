// Package db provides database interfaces and implementations for the
// inspection service. It defines five interfaces:
// - SessionManager: session rows across the per-module session tables
// - AnswerManager: answer rows, upsert batches and defect resolution
// - LookupManager: question masters and the coach fleet
// - MonitoringManager: per-module feed windows and counters
// - ConnectionManager: database connections and scopes
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/dbmanager"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/postgresql"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// SessionManager handles session rows. Every operation resolves the module's
// session table through the ModuleSpec registry and is scoped to the depot in
// the context.
type SessionManager interface {
	CreateSession(ctx context.Context, session *models.InspectionSession) apperrors.Error
	GetSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*models.InspectionSession, apperrors.Error)
	GetSessionByLookup(ctx context.Context, lookup models.SessionLookup) (*models.InspectionSession, apperrors.Error)
	UpdateSessionStatus(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, status inscommon.SessionStatus) apperrors.Error
	TouchSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) apperrors.Error
	DeleteSession(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) apperrors.Error
}

// AnswerManager handles answer rows. UpsertAnswers and ResolveAnswer run
// their lock, merge and validate steps inside a single transaction.
type AnswerManager interface {
	UpsertAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, saves []models.AnswerSave) ([]*models.InspectionAnswer, apperrors.Error)
	GetAnswerByID(ctx context.Context, module inscommon.ModuleKind, answerID uuid.UUID) (*models.InspectionAnswer, apperrors.Error)
	GetAnswerByKey(ctx context.Context, module inscommon.ModuleKind, key models.AnswerKey) (*models.InspectionAnswer, apperrors.Error)
	ListSessionAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) ([]*models.InspectionAnswer, apperrors.Error)
	ListAreaAnswers(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, compartment string, level inscommon.ActivityLevel) ([]*models.InspectionAnswer, apperrors.Error)
	ListPendingDefects(ctx context.Context, module inscommon.ModuleKind, filter models.DefectFilter) ([]*models.InspectionAnswer, apperrors.Error)
	ResolveAnswer(ctx context.Context, module inscommon.ModuleKind, answerID uuid.UUID, resolvedBy inscommon.InspectorId, remark, afterPhotoURL string) (*models.InspectionAnswer, apperrors.Error)
}

// LookupManager handles the question masters and the coach fleet.
type LookupManager interface {
	ListQuestions(ctx context.Context, module inscommon.ModuleKind) ([]*models.Question, apperrors.Error)
	GetQuestion(ctx context.Context, module inscommon.ModuleKind, questionID string) (*models.Question, apperrors.Error)
	ListSubcategories(ctx context.Context, module inscommon.ModuleKind) ([]*models.Subcategory, apperrors.Error)
	GetCoach(ctx context.Context, coachNumber string) (*models.Coach, apperrors.Error)
	ListCoaches(ctx context.Context) ([]*models.Coach, apperrors.Error)
	CreateCoach(ctx context.Context, coach *models.Coach) apperrors.Error
	DeleteCoach(ctx context.Context, coachNumber string) apperrors.Error
	CreateQuestion(ctx context.Context, question *models.Question) apperrors.Error
	DeleteQuestion(ctx context.Context, module inscommon.ModuleKind, questionID string) apperrors.Error
}

// MonitoringManager reads one module table at a time for the unified feeds.
// The cross-module merge lives in the monitoring package.
type MonitoringManager interface {
	ListSessionFeed(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter, window int) ([]models.SessionFeedRow, apperrors.Error)
	ListDefectFeed(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter, window int) ([]models.DefectFeedRow, apperrors.Error)
	CountSessions(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter) (models.ModuleSessionCounts, apperrors.Error)
	CountDefects(ctx context.Context, module inscommon.ModuleKind, filter models.FeedFilter) (models.DefectCounts, apperrors.Error)
	SubmissionTrend(ctx context.Context, module inscommon.ModuleKind, days int) ([]models.DayCount, apperrors.Error)
}

// ConnectionManager handles database connection and scope management.
type ConnectionManager interface {
	AddScopes(ctx context.Context, scopes map[string]string) error
	DropScopes(ctx context.Context, scopes []string) error
	AddScope(ctx context.Context, scope, value string) error
	DropScope(ctx context.Context, scope string) error
	DropAllScopes(ctx context.Context) error

	// Close the connection to the database.
	Close(ctx context.Context)
}

// Database interface combines all managers into a single interface.
type Database interface {
	SessionManager
	AnswerManager
	LookupManager
	MonitoringManager
	ConnectionManager
}

// Scope constants define the available scopes for database operations
const (
	// Scope_DepotId is used to filter data by depot
	Scope_DepotId string = "railcheck.curr_depotid"
)

var configuredScopes = []string{
	Scope_DepotId,
}

var pool dbmanager.ScopedDb

// Init initializes the database connection pool.
func Init() {
	ctx := log.Logger.WithContext(context.Background())
	pg := dbmanager.NewScopedDb(ctx, "postgresql", configuredScopes)
	if pg == nil {
		panic("unable to create db pool")
	}
	pool = pg
}

// Conn returns a new database connection from the pool.
// Returns an error if the connection cannot be established.
func Conn(ctx context.Context) (dbmanager.ScopedConn, error) {
	if pool != nil {
		conn, err := pool.Conn(ctx)
		if err == nil {
			return conn, nil
		}
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
		return nil, err
	}
	return nil, fmt.Errorf("database pool not initialized")
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "RailcheckInspectionDb"

// ConnCtx adds a database connection to the context.
// Returns an error if the connection cannot be established.
func ConnCtx(ctx context.Context) (context.Context, error) {
	conn, err := Conn(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, ctxDbKey, conn), nil
}

type railcheckInspectionDb struct {
	SessionManager
	AnswerManager
	LookupManager
	MonitoringManager
	ConnectionManager
}

// DB returns a new database instance from the context.
// It expects a valid database connection in the context.
// Returns nil if no connection is found in the context.
func DB(ctx context.Context) Database {
	if conn, ok := ctx.Value(ctxDbKey).(dbmanager.ScopedConn); ok {
		sm, am, lm, qm, cm := postgresql.NewRailcheckDb(conn)
		return &railcheckInspectionDb{
			SessionManager:    sm,
			AnswerManager:     am,
			LookupManager:     lm,
			MonitoringManager: qm,
			ConnectionManager: cm,
		}
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
