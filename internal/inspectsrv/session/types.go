package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

var sessionValidator *validator.Validate

// V returns the request validator.
func V() *validator.Validate {
	if sessionValidator == nil {
		sessionValidator = validator.New(validator.WithRequiredStructEnabled())
	}
	return sessionValidator
}

// SessionRequest is the get-or-create payload. The inspection date defaults
// to today when omitted.
type SessionRequest struct {
	CoachNumber    string `json:"coachNumber" validate:"required"`
	TrainNumber    string `json:"trainNumber,omitempty"`
	InspectionDate string `json:"inspectionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SessionRsp is the wire form of a session.
type SessionRsp struct {
	SessionID      string                  `json:"sessionId"`
	Module         inscommon.ModuleKind    `json:"module"`
	DepotID        inscommon.DepotId       `json:"depotId"`
	CoachNumber    string                  `json:"coachNumber"`
	TrainNumber    string                  `json:"trainNumber,omitempty"`
	InspectionDate string                  `json:"inspectionDate"`
	Status         inscommon.SessionStatus `json:"status"`
	InspectorID    inscommon.InspectorId   `json:"inspectorId"`
	InspectorName  string                  `json:"inspectorName"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	SubmittedAt    *time.Time              `json:"submittedAt,omitempty"`
}

// NewSessionRsp converts a session row to its wire form.
func NewSessionRsp(s *models.InspectionSession) *SessionRsp {
	rsp := &SessionRsp{
		SessionID:      s.SessionID.String(),
		Module:         s.Module,
		DepotID:        s.DepotID,
		CoachNumber:    s.CoachNumber,
		TrainNumber:    s.TrainNumber,
		InspectionDate: s.InspectionDate.Format("2006-01-02"),
		Status:         s.Status,
		InspectorID:    s.InspectorID,
		InspectorName:  s.InspectorName,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.SubmittedAt.Valid {
		t := s.SubmittedAt.Time
		rsp.SubmittedAt = &t
	}
	return rsp
}
