package models

import (
	"time"

	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Coach is one coach of the depot's fleet. Compartments lists the coach's
// physical compartments for the modules that answer per compartment.
type Coach struct {
	CoachNumber  string            `db:"coach_number" json:"coachNumber"`
	DepotID      inscommon.DepotId `db:"depot_id" json:"depotId"`
	CoachType    string            `db:"coach_type" json:"coachType"`
	Compartments []string          `db:"compartments" json:"compartments"`
	Active       bool              `db:"active" json:"active"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
}
