package inspection

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

var inspectionValidator *validator.Validate

// V returns the request validator.
func V() *validator.Validate {
	if inspectionValidator == nil {
		inspectionValidator = validator.New(validator.WithRequiredStructEnabled())
	}
	return inspectionValidator
}

// AnswerSaveRequest is one answer write. Absent fields keep their stored
// values; explicit values, including an empty reasons list, replace them.
type AnswerSaveRequest struct {
	QuestionID    string   `json:"questionId" validate:"required"`
	Compartment   string   `json:"compartment,omitempty"`
	SubcategoryID string   `json:"subcategoryId,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
	Remark        *string  `json:"remark,omitempty"`
	PhotoURL      *string  `json:"photoUrl,omitempty"`
}

// CheckpointRequest is a transactional batch of answer writes.
type CheckpointRequest struct {
	Answers []AnswerSaveRequest `json:"answers" validate:"required,min=1,dive"`
}

// ResolveRequest closes out a deficiency. The after photo is the proof of
// the fix and is mandatory.
type ResolveRequest struct {
	Remark        string `json:"remark,omitempty"`
	AfterPhotoURL string `json:"afterPhotoUrl" validate:"required"`
}

// ParseAnswerSaveRequest decodes a single answer write. encoding/json cannot
// tell an absent reasons field from an explicit empty list, and the two mean
// different things here, so presence is checked on the raw body.
func ParseAnswerSaveRequest(body []byte) (*AnswerSaveRequest, apperrors.Error) {
	req := &AnswerSaveRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, ErrInvalidRequest.Msg("unable to parse answer")
	}
	if req.Reasons == nil && gjson.GetBytes(body, "reasons").IsArray() {
		req.Reasons = []string{}
	}
	return req, nil
}

// ParseCheckpointRequest decodes a checkpoint batch, preserving the
// absent-versus-empty distinction for each answer's reasons.
func ParseCheckpointRequest(body []byte) (*CheckpointRequest, apperrors.Error) {
	req := &CheckpointRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, ErrInvalidRequest.Msg("unable to parse checkpoint")
	}
	answers := gjson.GetBytes(body, "answers").Array()
	for i := range req.Answers {
		if i < len(answers) && req.Answers[i].Reasons == nil && answers[i].Get("reasons").IsArray() {
			req.Answers[i].Reasons = []string{}
		}
	}
	return req, nil
}

// AnswerRsp is the wire form of an answer.
type AnswerRsp struct {
	AnswerID       string                  `json:"answerId"`
	SessionID      string                  `json:"sessionId"`
	Module         inscommon.ModuleKind    `json:"module"`
	QuestionID     string                  `json:"questionId"`
	QuestionText   string                  `json:"questionText,omitempty"`
	Compartment    string                  `json:"compartment,omitempty"`
	SubcategoryID  string                  `json:"subcategoryId,omitempty"`
	ActivityLevel  inscommon.ActivityLevel `json:"activityLevel,omitempty"`
	Status         inscommon.AnswerStatus  `json:"status"`
	Reasons        []string                `json:"reasons,omitempty"`
	Remark         string                  `json:"remark,omitempty"`
	PhotoURL       string                  `json:"photoUrl,omitempty"`
	Resolved       bool                    `json:"resolved"`
	ResolvedBy     inscommon.InspectorId   `json:"resolvedBy,omitempty"`
	ResolvedRemark string                  `json:"resolvedRemark,omitempty"`
	AfterPhotoURL  string                  `json:"afterPhotoUrl,omitempty"`
	ResolvedAt     *time.Time              `json:"resolvedAt,omitempty"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// NewAnswerRsp converts an answer row to its wire form.
func NewAnswerRsp(a *models.InspectionAnswer) *AnswerRsp {
	rsp := &AnswerRsp{
		AnswerID:       a.AnswerID.String(),
		SessionID:      a.SessionID.String(),
		Module:         a.Module,
		QuestionID:     a.QuestionID,
		QuestionText:   a.QuestionText,
		Compartment:    a.Compartment,
		SubcategoryID:  a.SubcategoryID,
		ActivityLevel:  a.ActivityLevel,
		Status:         a.Status,
		Reasons:        a.Reasons,
		Remark:         a.Remark,
		PhotoURL:       a.PhotoURL,
		Resolved:       a.Resolved,
		ResolvedBy:     a.ResolvedBy,
		ResolvedRemark: a.ResolvedRemark,
		AfterPhotoURL:  a.AfterPhotoURL,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.ResolvedAt.Valid {
		t := a.ResolvedAt.Time
		rsp.ResolvedAt = &t
	}
	return rsp
}

// NewAnswerRsps converts a slice of answer rows.
func NewAnswerRsps(answers []*models.InspectionAnswer) []*AnswerRsp {
	rsps := make([]*AnswerRsp, 0, len(answers))
	for _, a := range answers {
		rsps = append(rsps, NewAnswerRsp(a))
	}
	return rsps
}
