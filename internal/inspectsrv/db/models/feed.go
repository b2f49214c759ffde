package models

import (
	"time"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// FeedFilter narrows the monitoring feeds and counters. Zero values mean
// unfiltered. The time range applies to created_at; Status applies to
// session sources and Resolved to defect sources.
type FeedFilter struct {
	From        time.Time
	To          time.Time
	CoachNumber string
	InspectorID inscommon.InspectorId
	Status      inscommon.SessionStatus
	Resolved    *bool
}

// DefectFilter narrows the pending-defect listing. Zero values mean
// unfiltered; compartment and subcategory apply to compartmented modules.
type DefectFilter struct {
	SessionID     uuid.UUID
	CoachNumber   string
	Compartment   string
	SubcategoryID string
}

// SessionFeedRow is one session normalized out of its module table for the
// unified monitoring feed.
type SessionFeedRow struct {
	Module         inscommon.ModuleKind    `json:"module"`
	SessionID      uuid.UUID               `json:"sessionId"`
	CoachNumber    string                  `json:"coachNumber"`
	TrainNumber    string                  `json:"trainNumber,omitempty"`
	InspectionDate time.Time               `json:"inspectionDate"`
	Status         inscommon.SessionStatus `json:"status"`
	InspectorName  string                  `json:"inspectorName"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// DefectFeedRow is one deficiency normalized out of its module answer table.
type DefectFeedRow struct {
	Module        inscommon.ModuleKind `json:"module"`
	AnswerID      uuid.UUID            `json:"answerId"`
	SessionID     uuid.UUID            `json:"sessionId"`
	CoachNumber   string               `json:"coachNumber"`
	QuestionText  string               `json:"questionText"`
	Remark        string               `json:"remark"`
	PhotoURL      string               `json:"photoUrl"`
	Resolved      bool                 `json:"resolved"`
	AfterPhotoURL string               `json:"afterPhotoUrl,omitempty"`
	ResolvedAt    *time.Time           `json:"resolvedAt,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// ModuleSessionCounts is the per-module slice of the monitoring summary.
type ModuleSessionCounts struct {
	Module    inscommon.ModuleKind `json:"module"`
	Total     int                  `json:"total"`
	Draft     int                  `json:"draft"`
	Active    int                  `json:"active"`
	Submitted int                  `json:"submitted"`
	Completed int                  `json:"completed"`
}

// DefectCounts tallies deficiencies across one or all modules.
type DefectCounts struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

// DayCount is one day of the submission trend.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
