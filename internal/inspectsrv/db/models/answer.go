package models

import (
	"database/sql"
	"time"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// InspectionAnswer is one checklist verdict inside a session. Compartment,
// SubcategoryID and ActivityLevel are populated only for modules whose answer
// identity includes them.
type InspectionAnswer struct {
	AnswerID       uuid.UUID               `db:"answer_id"`
	SessionID      uuid.UUID               `db:"session_id"`
	Module         inscommon.ModuleKind    `db:"-"`
	DepotID        inscommon.DepotId       `db:"depot_id"`
	QuestionID     string                  `db:"question_id"`
	QuestionText   string                  `db:"question_text"`
	Compartment    string                  `db:"compartment"`
	SubcategoryID  string                  `db:"subcategory_id"`
	ActivityLevel  inscommon.ActivityLevel `db:"activity_level"`
	Status         inscommon.AnswerStatus  `db:"status"`
	Reasons        []string                `db:"reasons"`
	Remark         string                  `db:"remark"`
	PhotoURL       string                  `db:"photo_url"`
	Resolved       bool                    `db:"resolved"`
	ResolvedBy     inscommon.InspectorId   `db:"resolved_by"`
	ResolvedRemark string                  `db:"resolved_remark"`
	AfterPhotoURL  string                  `db:"after_photo_url"`
	ResolvedAt     sql.NullTime            `db:"resolved_at"`
	CreatedAt      time.Time               `db:"created_at"`
	UpdatedAt      time.Time               `db:"updated_at"`
}

// AnswerKey is the logical identity of an answer inside a session. Simple
// modules key answers by question alone; compartmented modules key them by
// question, compartment, subcategory and activity level.
type AnswerKey interface {
	SessionID() uuid.UUID
	QuestionID() string
	isAnswerKey()
}

// SimpleKey identifies an answer in a module without compartments.
type SimpleKey struct {
	Session  uuid.UUID
	Question string
}

func (k SimpleKey) SessionID() uuid.UUID { return k.Session }
func (k SimpleKey) QuestionID() string   { return k.Question }
func (k SimpleKey) isAnswerKey()         {}

// CompartmentedKey identifies an answer in a compartmented module.
type CompartmentedKey struct {
	Session     uuid.UUID
	Question    string
	Compartment string
	Subcategory string
	Level       inscommon.ActivityLevel
}

func (k CompartmentedKey) SessionID() uuid.UUID { return k.Session }
func (k CompartmentedKey) QuestionID() string   { return k.Question }
func (k CompartmentedKey) isAnswerKey()         {}

// AnswerPatch carries the fields an inspector may change on an answer. A nil
// pointer or nil slice means the field was omitted and the stored value is
// kept. Resolution fields are never part of a patch; they change only through
// the defect resolution flow.
type AnswerPatch struct {
	Status   *inscommon.AnswerStatus
	Reasons  []string
	Remark   *string
	PhotoURL *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AnswerPatch) IsEmpty() bool {
	return p.Status == nil && p.Reasons == nil && p.Remark == nil && p.PhotoURL == nil
}

// AnswerSave is one logical write in an upsert batch.
type AnswerSave struct {
	Key          AnswerKey
	Patch        AnswerPatch
	QuestionText string
}

// NewAnswerFromPatch builds a fresh answer row from a key and a patch.
// Omitted patch fields start at their zero values.
func NewAnswerFromPatch(key AnswerKey, patch AnswerPatch, questionText string) *InspectionAnswer {
	a := &InspectionAnswer{
		AnswerID:     uuid.New(),
		SessionID:    key.SessionID(),
		QuestionID:   key.QuestionID(),
		QuestionText: questionText,
	}
	if ck, ok := key.(CompartmentedKey); ok {
		a.Compartment = ck.Compartment
		a.SubcategoryID = ck.Subcategory
		a.ActivityLevel = ck.Level
	}
	ApplyPatch(a, patch)
	return a
}

// ApplyPatch merges a patch into an answer. Moving the status away from
// DEFICIENCY clears the stored reasons; the remark and photo stay since they
// describe the observation, not the verdict.
func ApplyPatch(a *InspectionAnswer, patch AnswerPatch) {
	if patch.Status != nil {
		prev := a.Status
		a.Status = *patch.Status
		if prev == inscommon.AnswerStatusDeficiency && a.Status != inscommon.AnswerStatusDeficiency {
			a.Reasons = nil
		}
	}
	if patch.Reasons != nil {
		a.Reasons = patch.Reasons
	}
	if patch.Remark != nil {
		a.Remark = *patch.Remark
	}
	if patch.PhotoURL != nil {
		a.PhotoURL = *patch.PhotoURL
	}
}

// MissingDeficiencyFields returns the names of the evidence fields a
// DEFICIENCY answer still lacks. A non-deficiency answer never has missing
// fields.
func MissingDeficiencyFields(a *InspectionAnswer) []string {
	if a.Status != inscommon.AnswerStatusDeficiency {
		return nil
	}
	var missing []string
	if len(a.Reasons) == 0 {
		missing = append(missing, "reasons")
	}
	if a.Remark == "" {
		missing = append(missing, "remark")
	}
	if a.PhotoURL == "" {
		missing = append(missing, "photo_url")
	}
	return missing
}

// IsAnswered reports whether the answer carries a verdict.
func (a *InspectionAnswer) IsAnswered() bool {
	return a.Status != ""
}
