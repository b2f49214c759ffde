package models

import (
	"database/sql"
	"time"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// InspectionSession is one inspector-day of work on a coach within a module.
// Each module keeps its own session table; the Module field records which
// table the row came from and is not itself a column.
type InspectionSession struct {
	SessionID      uuid.UUID               `db:"session_id"`
	Module         inscommon.ModuleKind    `db:"-"`
	DepotID        inscommon.DepotId       `db:"depot_id"`
	CoachNumber    string                  `db:"coach_number"`
	TrainNumber    string                  `db:"train_number"`
	InspectionDate time.Time               `db:"inspection_date"`
	Status         inscommon.SessionStatus `db:"status"`
	InspectorID    inscommon.InspectorId   `db:"inspector_id"`
	InspectorName  string                  `db:"inspector_name"`
	CreatedAt      time.Time               `db:"created_at"`
	UpdatedAt      time.Time               `db:"updated_at"`
	SubmittedAt    sql.NullTime            `db:"submitted_at"`
}

// SessionLookup identifies the open session a get-or-create resolves to:
// one coach, one module, one day. The train number is recorded on the
// session but is not part of its identity. The inspection date is truncated
// to the day.
type SessionLookup struct {
	Module         inscommon.ModuleKind
	CoachNumber    string
	InspectionDate time.Time
}
